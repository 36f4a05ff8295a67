package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"auto", "lan", "loopback"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	// LINE validation
	if cfg.Line.ChannelSecret == "" {
		issues = append(issues, ValidationIssue{
			Path:    "line.channelSecret",
			Message: "channel secret is required to verify webhooks",
		})
	}
	if cfg.Line.ChannelAccessToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "line.channelAccessToken",
			Message: "channel access token is required to send replies",
		})
	}

	// OpenAI validation
	if cfg.OpenAI.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "openai.apiKey",
			Message: "API key is required",
		})
	}
	if cfg.OpenAI.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "openai.maxTokens",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.OpenAI.MaxTokens),
		})
	}
	if cfg.OpenAI.TimeoutSeconds <= 0 {
		issues = append(issues, ValidationIssue{
			Path:    "openai.timeoutSeconds",
			Message: fmt.Sprintf("must be positive, got %d", cfg.OpenAI.TimeoutSeconds),
		})
	}

	// Google validation: optional, but partial config is a mistake
	if (cfg.Google.ClientID == "") != (cfg.Google.ClientSecret == "") {
		issues = append(issues, ValidationIssue{
			Path:    "google",
			Message: "clientId and clientSecret must be set together",
		})
	}

	// Conversation validation
	if cfg.Conversation.HistoryWindow < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "conversation.historyWindow",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Conversation.HistoryWindow),
		})
	}
	if cfg.Conversation.ToolTimeoutSeconds <= 0 {
		issues = append(issues, ValidationIssue{
			Path:    "conversation.toolTimeoutSeconds",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Conversation.ToolTimeoutSeconds),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}

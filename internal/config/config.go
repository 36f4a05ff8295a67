package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3000,
			Bind: "loopback",
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			MaxTokens:      1024,
			TimeoutSeconds: 60,
		},
		Google: GoogleConfig{
			CalendarID: "primary",
		},
		Conversation: ConversationConfig{
			HistoryWindow:      10,
			ToolTimeoutSeconds: 15,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

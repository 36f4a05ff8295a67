// Package config handles Kotori configuration loading and validation.
package config

// Config is the root configuration structure, mirrored by
// ~/.kotori/config.yaml.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Line         LineConfig         `yaml:"line"`
	OpenAI       OpenAIConfig       `yaml:"openai"`
	Google       GoogleConfig       `yaml:"google"`
	Conversation ConversationConfig `yaml:"conversation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"` // "loopback", "lan", "auto"
}

// LineConfig holds LINE Messaging API credentials.
type LineConfig struct {
	ChannelSecret      string `yaml:"channelSecret"`
	ChannelAccessToken string `yaml:"channelAccessToken"`
}

// OpenAIConfig holds model provider settings.
type OpenAIConfig struct {
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"maxTokens"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// GoogleConfig holds Google Calendar OAuth settings. The refresh token
// itself lives in the database, not here.
type GoogleConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURL  string `yaml:"redirectUrl"`
	CalendarID   string `yaml:"calendarId"`
}

// ConversationConfig controls agent conversation behavior.
type ConversationConfig struct {
	HistoryWindow      int `yaml:"historyWindow"`
	ToolTimeoutSeconds int `yaml:"toolTimeoutSeconds"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	ConsoleStyle string `yaml:"consoleStyle"` // "pretty", "json"
}

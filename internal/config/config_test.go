package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 10, cfg.Conversation.HistoryWindow)
	assert.Equal(t, 15, cfg.Conversation.ToolTimeoutSeconds)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
line:
  channelSecret: secret-1
  channelAccessToken: token-1
openai:
  apiKey: sk-test
conversation:
  historyWindow: 20
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "secret-1", cfg.Line.ChannelSecret)
	assert.Equal(t, 20, cfg.Conversation.HistoryWindow)
	// Unset fields fall back to defaults.
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 60, cfg.OpenAI.TimeoutSeconds)
}

func TestLoad_ExpandsSecretEnvRefs(t *testing.T) {
	t.Setenv("TEST_KOTORI_SECRET", "expanded-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
line:
  channelSecret: ${TEST_KOTORI_SECRET}
  channelAccessToken: ${UNSET_KOTORI_VAR}
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "expanded-secret", cfg.Line.ChannelSecret)
	// Unset refs stay as-is so validation catches them.
	assert.Equal(t, "${UNSET_KOTORI_VAR}", cfg.Line.ChannelAccessToken)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KOTORI_SERVER_PORT", "9000")
	t.Setenv("KOTORI_OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

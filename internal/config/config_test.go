package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"SERVER_ADDRESS", "DATABASE_URL", "COMMIT_MODE", "MAX_CONTENT_LENGTH", "MQTT_TOPIC_PREFIX", "USE_SPACES", "EXPIRY_SWEEP_INTERVAL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "confirmed", cfg.CommitMode)
	assert.Equal(t, 1000, cfg.MaxContentLength)
	assert.Equal(t, 1920, cfg.DefaultWidth)
	assert.Equal(t, 1080, cfg.DefaultHeight)
	assert.Equal(t, "led", cfg.MQTTTopicPrefix)
	assert.Equal(t, 30*time.Second, cfg.ExpirySweepInterval)
	assert.False(t, cfg.UseSpaces)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COMMIT_MODE", "optimistic")
	t.Setenv("MAX_CONTENT_LENGTH", "280")
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "5s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "optimistic", cfg.CommitMode)
	assert.Equal(t, 280, cfg.MaxContentLength)
	assert.Equal(t, 5*time.Second, cfg.ExpirySweepInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"COMMIT_MODE":           "eventual",
		"MAX_CONTENT_LENGTH":    "-1",
		"DEFAULT_WIDTH":         "wide",
		"DEFAULT_HEIGHT":        "20000",
		"EXPIRY_SWEEP_INTERVAL": "soon",
		"LOG_FORMAT":            "xml",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresSpacesBucket(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("USE_SPACES", "true")
	t.Setenv("SPACES_ENDPOINT", "")
	t.Setenv("SPACES_BUCKET", "")

	_, err := Load()
	assert.Error(t, err)
}

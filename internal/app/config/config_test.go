package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT", "LOGO_TEMPLATE_PATH", "FACE_CASCADE_PATH",
	"EMOTION_CLASSIFIER", "CORS_ALLOWED_ORIGINS", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
	"SHUTDOWN_TIMEOUT", "CACHE_TTL", "LOGO_TEMPLATE_THRESHOLD", "LOGO_RED_THRESHOLD", "EMOTION_RATE_LIMIT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "./logo.png", cfg.TemplatePath)
	assert.Equal(t, "./haarcascade_frontalface_default.xml", cfg.CascadePath)
	assert.Equal(t, 0.43, cfg.Thresholds.Template)
	assert.Equal(t, 0.8, cfg.Thresholds.Red)
	assert.Equal(t, ClassifierDeepFace, cfg.EmotionClassifier)
	assert.Zero(t, cfg.EmotionRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("EMOTION_CLASSIFIER", "ONNX")
	t.Setenv("EMOTION_RATE_LIMIT", "60")
	t.Setenv("LOGO_TEMPLATE_THRESHOLD", "0.5")
	t.Setenv("LOGO_RED_THRESHOLD", "0.75")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, ClassifierONNX, cfg.EmotionClassifier)
	assert.Equal(t, 60, cfg.EmotionRateLimit)
	assert.Equal(t, 0.5, cfg.Thresholds.Template)
	assert.Equal(t, 0.75, cfg.Thresholds.Red)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"HTTP_READ_TIMEOUT", "soon"},
		{"LOGO_TEMPLATE_THRESHOLD", "high"},
		{"EMOTION_RATE_LIMIT", "-1"},
		{"EMOTION_CLASSIFIER", "tarot"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

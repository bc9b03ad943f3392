// Package config はサーバー全体の設定を環境変数から読み込みます。
// 各アダプター固有の設定はそれぞれのパッケージのLoadConfigが担当します。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"analysis_backend/internal/feature/logodetection/domain/entity"
)

// 分類器のバックエンド名です。
const (
	ClassifierDeepFace = "deepface"
	ClassifierVision   = "vision"
	ClassifierGemini   = "gemini"
	ClassifierONNX     = "onnx"
)

// Config はサーバーの設定です。
type Config struct {
	Port            string
	GinMode         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	TemplatePath string
	CascadePath  string
	Thresholds   entity.Thresholds

	EmotionClassifier string
	EmotionRateLimit  int // 1分あたりの分類API呼び出し上限（0は無制限）

	CacheTTL    time.Duration
	CORSOrigins []string
}

// LoadConfig は環境変数から設定を読み込み、既定値を補います。
// 数値や期間として解釈できない値はエラーにします。
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envOr("PORT", "8080"),
		GinMode:           os.Getenv("GIN_MODE"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogFormat:         envOr("LOG_FORMAT", "json"),
		TemplatePath:      envOr("LOGO_TEMPLATE_PATH", "./logo.png"),
		CascadePath:       envOr("FACE_CASCADE_PATH", "./haarcascade_frontalface_default.xml"),
		EmotionClassifier: strings.ToLower(envOr("EMOTION_CLASSIFIER", ClassifierDeepFace)),
		CORSOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.ReadTimeout, err = durationEnv("HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = durationEnv("HTTP_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	th := entity.DefaultThresholds()
	if th.Template, err = floatEnv("LOGO_TEMPLATE_THRESHOLD", th.Template); err != nil {
		return Config{}, err
	}
	if th.Red, err = floatEnv("LOGO_RED_THRESHOLD", th.Red); err != nil {
		return Config{}, err
	}
	cfg.Thresholds = th

	if v := os.Getenv("EMOTION_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("EMOTION_RATE_LIMIT must be a non-negative integer: %q", v)
		}
		cfg.EmotionRateLimit = n
	}

	switch cfg.EmotionClassifier {
	case ClassifierDeepFace, ClassifierVision, ClassifierGemini, ClassifierONNX:
	default:
		return Config{}, fmt.Errorf("unsupported EMOTION_CLASSIFIER %q", cfg.EmotionClassifier)
	}

	return cfg, nil
}

// Addr はhttp.Serverに渡すリッスンアドレスを返します。
func (c Config) Addr() string {
	return ":" + c.Port
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package deepface はDeepFace互換のHTTP APIを使用した感情分類クライアントを提供します。
package deepface

import (
	"os"
	"strconv"
	"time"
)

// Config はDeepFace APIクライアントの設定です。
type Config struct {
	BaseURL         string        // APIのベースURL（例: "http://localhost:5005"）
	DetectorBackend string        // 切り出し済み顔に対して使用する検出バックエンド
	Timeout         time.Duration // HTTPリクエストのタイムアウト
	MaxFaceSide     int           // 送信前に縮小する顔画像の長辺（0で無効）
}

// LoadConfig は環境変数からDeepFaceの設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		BaseURL:         os.Getenv("DEEPFACE_URL"),
		DetectorBackend: os.Getenv("DEEPFACE_DETECTOR_BACKEND"),
		Timeout:         30 * time.Second,
		MaxFaceSide:     512,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5005"
	}
	if cfg.DetectorBackend == "" {
		cfg.DetectorBackend = "opencv"
	}
	if d, err := time.ParseDuration(os.Getenv("DEEPFACE_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("DEEPFACE_MAX_FACE_SIDE")); err == nil && n >= 0 {
		cfg.MaxFaceSide = n
	}
	return cfg
}

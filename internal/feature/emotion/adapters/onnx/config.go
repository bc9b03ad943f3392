// Package onnx はONNX RuntimeでFER+モデルを実行するローカル感情分類器を提供します。
package onnx

import (
	"os"
	"strconv"
	"time"
)

// FER+モデルの既定値です。
const (
	DefaultInputName  = "Input3"
	DefaultOutputName = "Plus692_Output_0"
	DefaultInputSize  = 64
	DefaultPoolSize   = 2
	AcquireTimeout    = 5 * time.Second
)

// Config はONNX分類器の設定です。
type Config struct {
	ModelPath   string // .onnx ファイルのパス
	LibraryPath string // onnxruntime 共有ライブラリのパス（空の場合は既定の探索）
	InputName   string
	OutputName  string
	InputSize   int // 入力画像の一辺（FER+は64）
	PoolSize    int // 同時推論数
}

// LoadConfig は環境変数からONNX分類器の設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		ModelPath:   os.Getenv("ONNX_MODEL_PATH"),
		LibraryPath: os.Getenv("ONNXRUNTIME_LIB_PATH"),
		InputName:   os.Getenv("ONNX_INPUT_NAME"),
		OutputName:  os.Getenv("ONNX_OUTPUT_NAME"),
		InputSize:   DefaultInputSize,
		PoolSize:    DefaultPoolSize,
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = "./models/emotion-ferplus-8.onnx"
	}
	if cfg.InputName == "" {
		cfg.InputName = DefaultInputName
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	if n, err := strconv.Atoi(os.Getenv("ONNX_POOL_SIZE")); err == nil && n > 0 {
		cfg.PoolSize = n
	}
	return cfg
}

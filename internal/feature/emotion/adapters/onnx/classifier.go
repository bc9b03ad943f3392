package onnx

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"analysis_backend/internal/feature/emotion/adapters/facecodec"
	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/feature/emotion/usecase"
	"analysis_backend/internal/shared/apperr"
)

// ferPlusLabels はFER+モデルの出力順に対応するラベルです。
// contempt は対応する感情ラベルが無いため空文字で表し、結果から除外します。
var ferPlusLabels = []string{
	entity.LabelNeutral,
	entity.LabelHappy,
	entity.LabelSurprise,
	entity.LabelSad,
	entity.LabelAngry,
	entity.LabelDisgust,
	entity.LabelFear,
	"",
}

// FERPlusClassifier はONNX RuntimeでFER+モデルを実行し、顔画像の感情を推定します。
type FERPlusClassifier struct {
	cfg  Config
	pool *sessionPool
}

// FERPlusClassifierがEmotionClassifierを実装していることをコンパイル時に検証します。
var _ usecase.EmotionClassifier = (*FERPlusClassifier)(nil)

// NewFERPlusClassifier はONNX Runtime環境を初期化し、セッションプールを構築します。
func NewFERPlusClassifier(cfg Config) (*FERPlusClassifier, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("onnx model %s: %v: %w", cfg.ModelPath, err, apperr.ErrStartup)
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultInputSize
	}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize onnx runtime: %v: %w", err, apperr.ErrStartup)
		}
	}

	pool, err := newSessionPool(cfg.PoolSize, AcquireTimeout, func() (*modelSession, error) {
		return initSession(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("onnx: %v: %w", err, apperr.ErrStartup)
	}
	return &FERPlusClassifier{cfg: cfg, pool: pool}, nil
}

func initSession(cfg Config) (*modelSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	threads := runtime.NumCPU() / max(cfg.PoolSize, 1)
	options.SetIntraOpNumThreads(max(threads, 1))

	inputShape := ort.NewShape(1, 1, int64(cfg.InputSize), int64(cfg.InputSize))
	outputShape := ort.NewShape(1, int64(len(ferPlusLabels)))

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &modelSession{session: session, input: inputTensor, output: outputTensor}, nil
}

// Classify は顔画像を64x64のグレースケールに変換して推論し、1件の感情スコアを返します。
func (f *FERPlusClassifier) Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
	s, err := f.pool.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("onnx: %v: %w", err, apperr.ErrClassification)
	}
	defer f.pool.release(s)

	copy(s.input.GetData(), facecodec.GrayPixels(face, f.cfg.InputSize, f.cfg.InputSize))
	if err := s.run(); err != nil {
		return nil, fmt.Errorf("onnx inference failed: %v: %w", err, apperr.ErrClassification)
	}

	scores := toScores(s.output.GetData())
	return []entity.FaceEmotion{entity.NewFaceEmotion(scores)}, nil
}

// Close はセッションプールを破棄します。ONNX Runtime環境自体は破棄しません。
func (f *FERPlusClassifier) Close() error {
	f.pool.close()
	return nil
}

// toScores はFER+の生出力をソフトマックスでパーセンテージへ正規化し、ラベル付きスコアにします。
func toScores(logits []float32) []entity.EmotionScore {
	probs := softmax(logits)
	out := make([]entity.EmotionScore, 0, len(ferPlusLabels))
	for i, label := range ferPlusLabels {
		if label == "" || i >= len(probs) {
			continue
		}
		out = append(out, entity.EmotionScore{Label: label, Score: probs[i] * 100})
	}
	return out
}

func softmax(xs []float32) []float64 {
	if len(xs) == 0 {
		return nil
	}
	peak := math.Inf(-1)
	for _, x := range xs {
		peak = math.Max(peak, float64(x))
	}
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		out[i] = math.Exp(float64(x) - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

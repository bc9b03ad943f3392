// Package usecase はemotionフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/imageinput"
	"analysis_backend/internal/shared/raster"
)

// ImageDecoder は画像バイト列をラスタ画像にデコードするインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ImageDecoder interface {
	Decode(data []byte) (raster.Image, error)
}

// FaceLocator は画像中の顔領域を検出・切り出すインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type FaceLocator interface {
	// LocateFaces は顔の矩形を返します。顔が1つもなければ apperr.ErrNoFaceDetected を返します。
	LocateFaces(img raster.Image) ([]image.Rectangle, error)
	// CropFace は画像範囲にクランプした矩形領域の画像を返します。
	CropFace(img raster.Image, rect image.Rectangle) (image.Image, error)
}

// EmotionClassifier は顔画像の感情を分類する外部サービスのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type EmotionClassifier interface {
	// Classify は1枚の顔画像に対する分類結果を返します。結果は0件以上です。
	Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error)
}

// analyzeUsecase は顔検出から感情集約までのパイプラインを提供します。
type analyzeUsecase struct {
	decoder    ImageDecoder
	locator    FaceLocator
	classifier EmotionClassifier
}

// NewAnalyzeUsecase はanalyzeUsecaseの新しいインスタンスを生成します。
func NewAnalyzeUsecase(d ImageDecoder, l FaceLocator, c EmotionClassifier) *analyzeUsecase {
	return &analyzeUsecase{decoder: d, locator: l, classifier: c}
}

// Analyze は画像中のすべての顔を分類し、感情スコアの平均を返します。
func (u *analyzeUsecase) Analyze(ctx context.Context, imageData []byte) (*entity.AnalysisResult, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("image data is empty: %w", apperr.ErrInvalidInput)
	}
	if len(imageData) > imageinput.MaxImageSize {
		return nil, fmt.Errorf("image size exceeds maximum of %d bytes: %w", imageinput.MaxImageSize, apperr.ErrInvalidInput)
	}

	img, err := u.decoder.Decode(imageData)
	if err != nil {
		if errors.Is(err, apperr.ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrDecode)
	}
	defer func() {
		if err := img.Close(); err != nil {
			slog.Warn("画像リソースの解放に失敗", "error", err)
		}
	}()

	faces, err := u.locator.LocateFaces(img)
	if err != nil {
		return nil, err
	}

	var records []entity.FaceEmotion
	for i, rect := range faces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		crop, err := u.locator.CropFace(img, rect)
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidInput) {
				slog.Debug("画像範囲外の顔領域をスキップ", "face", i, "rect", rect.String())
				continue
			}
			return nil, fmt.Errorf("crop face %d: %w", i, err)
		}

		out, err := u.classifier.Classify(ctx, crop)
		if err != nil {
			if errors.Is(err, apperr.ErrClassification) {
				return nil, err
			}
			return nil, fmt.Errorf("classify face %d: %v: %w", i, err, apperr.ErrClassification)
		}
		records = append(records, out...)
	}

	result := Aggregate(records)
	return &result, nil
}

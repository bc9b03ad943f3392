// Package usecase はlogodetectionフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/imageinput"
	"analysis_backend/internal/shared/raster"
)

// ImageDecoder は画像バイト列をラスタ画像にデコードするインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ImageDecoder interface {
	Decode(data []byte) (raster.Image, error)
}

// Correlator はグレースケールのテンプレートマッチングを行うインターフェースです。
type Correlator interface {
	// MaxCorrelation は正規化相関係数（TM_CCOEFF_NORMED）の最大値を返します。
	MaxCorrelation(img, tmpl raster.Image) (float64, error)
}

// RedRegionExtractor は画像から赤色領域の輪郭を抽出するインターフェースです。
type RedRegionExtractor interface {
	RedContours(img raster.Image) ([]entity.Contour, error)
}

// ShapeComparer は2つの輪郭の形状距離（Hu不変モーメントI1）を返すインターフェースです。
// 0は同一形状を表し、値が大きいほど形状が異なります。
type ShapeComparer interface {
	ShapeDistance(a, b entity.Contour) float64
}

// logoDetectionUsecase はテンプレートと赤色領域の2段階でロゴを判定します。
type logoDetectionUsecase struct {
	decoder    ImageDecoder
	correlator Correlator
	extractor  RedRegionExtractor
	comparer   ShapeComparer
	template   *entity.Template
	thresholds entity.Thresholds
}

// NewLogoDetectionUsecase はlogoDetectionUsecaseの新しいインスタンスを生成します。
func NewLogoDetectionUsecase(
	d ImageDecoder,
	c Correlator,
	e RedRegionExtractor,
	s ShapeComparer,
	tmpl *entity.Template,
	th entity.Thresholds,
) *logoDetectionUsecase {
	return &logoDetectionUsecase{
		decoder:    d,
		correlator: c,
		extractor:  e,
		comparer:   s,
		template:   tmpl,
		thresholds: th,
	}
}

// Detect は画像に参照ロゴが含まれるかを判定します。
// 相関値がしきい値以下の場合、赤色領域の比較は行いません。
func (u *logoDetectionUsecase) Detect(ctx context.Context, imageData []byte) (*entity.Detection, error) {
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

	corr, err := u.correlator.MaxCorrelation(img, u.template.Gray())
	if err != nil {
		return nil, fmt.Errorf("template matching failed: %w", err)
	}

	out := &entity.Detection{Correlation: corr}
	if corr <= u.thresholds.Template {
		slog.Debug("テンプレート相関がしきい値以下", "correlation", corr, "threshold", u.thresholds.Template)
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours, err := u.extractor.RedContours(img)
	if err != nil {
		return nil, fmt.Errorf("red region extraction failed: %w", err)
	}

	out.Similarity = u.similarity(u.template.RedContours(), contours)
	out.LogoDetected = out.Similarity > u.thresholds.Red
	slog.Debug("ロゴ判定",
		"correlation", corr,
		"similarity", out.Similarity,
		"logo_detected", out.LogoDetected,
	)
	return out, nil
}

// similarity は全輪郭ペアの最小形状距離 best から 1/(1+best) を計算します。
// どちらかの輪郭集合が空の場合は0を返します。
func (u *logoDetectionUsecase) similarity(tmpl, input []entity.Contour) float64 {
	if len(tmpl) == 0 || len(input) == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, a := range tmpl {
		for _, b := range input {
			if d := u.comparer.ShapeDistance(a, b); d < best {
				best = d
			}
		}
	}
	if math.IsInf(best, 1) || math.IsNaN(best) {
		return 0
	}
	return 1 / (1 + best)
}

// Package entity はlogodetectionフィーチャーのドメインモデルを定義します。
package entity

import (
	"errors"
	"image"

	"analysis_backend/internal/shared/raster"
)

const (
	// DefaultTemplateThreshold はテンプレートマッチング（TM_CCOEFF_NORMED）の既定しきい値です。
	DefaultTemplateThreshold = 0.43
	// DefaultRedThreshold は赤色領域の形状類似度の既定しきい値です。
	DefaultRedThreshold = 0.8
)

// Contour は輪郭を構成する点列です。
type Contour []image.Point

// Thresholds はロゴ判定に使う2段階のしきい値です。
type Thresholds struct {
	Template float64 // この値を超えた場合のみ赤色領域の比較に進む
	Red      float64 // 類似度がこの値を超えた場合にロゴありと判定する
}

// DefaultThresholds は既定のしきい値を返します。
func DefaultThresholds() Thresholds {
	return Thresholds{Template: DefaultTemplateThreshold, Red: DefaultRedThreshold}
}

// Detection はロゴ判定の結果です。
type Detection struct {
	LogoDetected bool
	Correlation  float64 // テンプレートマッチングの最大相関値
	Similarity   float64 // 赤色領域の形状類似度（比較しなかった場合は0）
}

// Template は起動時に一度だけ構築される参照ロゴです。構築後は変更されません。
type Template struct {
	gray     raster.Image
	color    raster.Image
	contours []Contour
}

// NewTemplate はグレースケール画像、カラー画像、赤色輪郭からTemplateを生成します。
func NewTemplate(gray, color raster.Image, contours []Contour) *Template {
	return &Template{gray: gray, color: color, contours: cloneContours(contours)}
}

// Gray はテンプレートマッチング用のグレースケール画像を返します。
func (t *Template) Gray() raster.Image {
	return t.gray
}

// Color は読み込んだままのBGR画像を返します。
func (t *Template) Color() raster.Image {
	return t.color
}

// RedContours は赤色領域の輪郭のコピーを返します。
func (t *Template) RedContours() []Contour {
	return cloneContours(t.contours)
}

// Close は保持している画像を解放します。プロセス終了時にのみ呼び出します。
func (t *Template) Close() error {
	var errs []error
	for _, img := range []raster.Image{t.gray, t.color} {
		if img != nil {
			errs = append(errs, img.Close())
		}
	}
	return errors.Join(errs...)
}

func cloneContours(in []Contour) []Contour {
	out := make([]Contour, len(in))
	for i, c := range in {
		out[i] = append(Contour(nil), c...)
	}
	return out
}

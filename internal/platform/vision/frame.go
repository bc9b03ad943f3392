// Package vision はOpenCV（gocv）を使用した画像処理の実装を提供します。
package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"analysis_backend/internal/shared/raster"
)

// errUnsupportedRaster は gocv 以外で生成された raster.Image が渡された場合のエラーです。
var errUnsupportedRaster = errors.New("vision: unsupported raster implementation")

// Frame はgocv.Matを保持するraster.Imageの実装です。
type Frame struct {
	mat gocv.Mat
}

// FrameがImageを実装していることをコンパイル時に検証します。
var _ raster.Image = (*Frame)(nil)

// NewFrame はMatの所有権を引き継いだFrameを生成します。
func NewFrame(mat gocv.Mat) *Frame {
	return &Frame{mat: mat}
}

// Bounds は画像の範囲を返します。
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

// Close はMatを解放します。
func (f *Frame) Close() error {
	return f.mat.Close()
}

func matOf(img raster.Image) (*gocv.Mat, error) {
	f, ok := img.(*Frame)
	if !ok || f == nil {
		return nil, errUnsupportedRaster
	}
	if f.mat.Empty() {
		return nil, errors.New("vision: empty image")
	}
	return &f.mat, nil
}

package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/raster"
)

// Decoder は画像バイト列（PNG/JPEGなど）をBGR画像にデコードします。
type Decoder struct{}

// NewDecoder はDecoderを生成します。
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode はバイト列をカラー画像としてデコードします。
// OpenCVが認識できない形式の場合は apperr.ErrDecode を返します。
func (d *Decoder) Decode(data []byte) (raster.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data: %w", apperr.ErrDecode)
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("imdecode: %v: %w", err, apperr.ErrDecode)
	}
	if mat.Empty() {
		_ = mat.Close()
		return nil, fmt.Errorf("unrecognized image format: %w", apperr.ErrDecode)
	}
	return NewFrame(mat), nil
}

package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/shared/apperr"
)

// LoadTemplate は参照ロゴ画像を読み込み、カラー画像を保持したままグレースケール画像と赤色輪郭を事前計算します。
// ファイルが存在しない、または画像として読めない場合は apperr.ErrStartup を返します。
func LoadTemplate(path string, extractor *RedRegionExtractor) (*entity.Template, error) {
	color := gocv.IMRead(path, gocv.IMReadColor)
	if color.Empty() {
		_ = color.Close()
		return nil, fmt.Errorf("failed to load logo template %q: %w", path, apperr.ErrStartup)
	}
	colorFrame := NewFrame(color)

	contours, err := extractor.RedContours(colorFrame)
	if err != nil {
		_ = colorFrame.Close()
		return nil, fmt.Errorf("extract template red regions: %v: %w", err, apperr.ErrStartup)
	}

	gray := gocv.NewMat()
	gocv.CvtColor(color, &gray, gocv.ColorBGRToGray)
	if gray.Empty() {
		_ = gray.Close()
		_ = colorFrame.Close()
		return nil, fmt.Errorf("failed to convert logo template to grayscale: %w", apperr.ErrStartup)
	}

	return entity.NewTemplate(NewFrame(gray), colorFrame, contours), nil
}

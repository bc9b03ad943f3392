package vision

import (
	"image"

	"gocv.io/x/gocv"

	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/shared/raster"
)

// MinRedArea はノイズとして除外する輪郭面積の上限です。これを超える輪郭のみ残します。
const MinRedArea = 50.0

// HSVの赤色範囲です。OpenCVの色相は0〜180で、赤は両端にまたがります。
var (
	redLowerA = gocv.NewScalar(0, 70, 50, 0)
	redUpperA = gocv.NewScalar(10, 255, 255, 0)
	redLowerB = gocv.NewScalar(170, 70, 50, 0)
	redUpperB = gocv.NewScalar(180, 255, 255, 0)
)

// RedRegionExtractor はHSV色空間で赤色領域の外側輪郭を抽出します。
type RedRegionExtractor struct {
	minArea float64
}

// NewRedRegionExtractor はRedRegionExtractorを生成します。
func NewRedRegionExtractor() *RedRegionExtractor {
	return &RedRegionExtractor{minArea: MinRedArea}
}

// RedContours は赤色マスクにオープン・クローズ処理をかけ、面積が閾値を超える外側輪郭を返します。
func (e *RedRegionExtractor) RedContours(img raster.Image) ([]entity.Contour, error) {
	src, err := matOf(img)
	if err != nil {
		return nil, err
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(*src, &hsv, gocv.ColorBGRToHSV)

	lowMask := gocv.NewMat()
	defer lowMask.Close()
	gocv.InRangeWithScalar(hsv, redLowerA, redUpperA, &lowMask)

	highMask := gocv.NewMat()
	defer highMask.Close()
	gocv.InRangeWithScalar(hsv, redLowerB, redUpperB, &highMask)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.BitwiseOr(lowMask, highMask, &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]entity.Contour, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		if gocv.ContourArea(pv) > e.minArea {
			out = append(out, entity.Contour(pv.ToPoints()))
		}
	}
	return out, nil
}

package vision

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/shared/raster"
)

// TemplateMatcher はグレースケール画像でテンプレートマッチングを行います。
type TemplateMatcher struct{}

// ShapeMatcher はHu不変モーメントで輪郭形状を比較します。
type ShapeMatcher struct{}

// NewTemplateMatcher はTemplateMatcherを生成します。
func NewTemplateMatcher() *TemplateMatcher { return &TemplateMatcher{} }

// NewShapeMatcher はShapeMatcherを生成します。
func NewShapeMatcher() *ShapeMatcher { return &ShapeMatcher{} }

// MaxCorrelation は入力画像（BGR）をグレースケール化し、テンプレート（グレースケール）との
// TM_CCOEFF_NORMED の最大値を返します。入力がテンプレートより小さい場合は
// テンプレートを入力に収まるよう縮小して比較します。
func (m *TemplateMatcher) MaxCorrelation(img, tmpl raster.Image) (float64, error) {
	src, err := matOf(img)
	if err != nil {
		return 0, err
	}
	tm, err := matOf(tmpl)
	if err != nil {
		return 0, err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if src.Channels() == 1 {
		src.CopyTo(&gray)
	} else {
		gocv.CvtColor(*src, &gray, gocv.ColorBGRToGray)
	}

	templ := *tm
	if tm.Cols() > gray.Cols() || tm.Rows() > gray.Rows() {
		scale := math.Min(float64(gray.Cols())/float64(tm.Cols()), float64(gray.Rows())/float64(tm.Rows()))
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(*tm, &resized, image.Point{}, scale, scale, gocv.InterpolationArea)
		if resized.Empty() || resized.Cols() == 0 || resized.Rows() == 0 {
			return 0, nil
		}
		templ = resized
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(gray, templ, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	v := float64(maxVal)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	return v, nil
}

// ShapeDistance は matchShapes（CONTOURS_MATCH_I1）の値を返します。0は同一形状です。
func (s *ShapeMatcher) ShapeDistance(a, b entity.Contour) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	pa := gocv.NewPointVectorFromPoints(a)
	defer pa.Close()
	pb := gocv.NewPointVectorFromPoints(b)
	defer pb.Close()
	return gocv.MatchShapes(pa, pb, gocv.ContoursMatchI1, 0)
}

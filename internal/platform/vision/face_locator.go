package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/raster"
)

// 顔検出パラメータです。
const (
	DefaultScaleFactor  = 1.1
	DefaultMinNeighbors = 5
	GroupThreshold      = 1
	GroupEps            = 0.2
)

// FaceLocator はHaarカスケードで正面顔を検出します。
// OpenCVのCascadeClassifierは並行呼び出しに対応していないため、検出はミューテックスで直列化します。
type FaceLocator struct {
	mu           sync.Mutex
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
}

// NewFaceLocator はカスケードファイルを読み込んでFaceLocatorを生成します。
// 読み込めない場合は apperr.ErrStartup を返します。
func NewFaceLocator(cascadePath string) (*FaceLocator, error) {
	if _, err := os.Stat(cascadePath); err != nil {
		return nil, fmt.Errorf("cascade file %q: %v: %w", cascadePath, err, apperr.ErrStartup)
	}
	c := gocv.NewCascadeClassifier()
	if !c.Load(cascadePath) {
		_ = c.Close()
		return nil, fmt.Errorf("failed to load cascade %q: %w", cascadePath, apperr.ErrStartup)
	}
	return &FaceLocator{
		classifier:   c,
		scaleFactor:  DefaultScaleFactor,
		minNeighbors: DefaultMinNeighbors,
	}, nil
}

// Close はカスケード分類器を解放します。
func (l *FaceLocator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.classifier.Close()
}

// LocateFaces はグレースケール画像で顔を検出し、近接する矩形をグループ化して返します。
// グループ化で全ての矩形が除外された場合は検出結果をそのまま返します。
func (l *FaceLocator) LocateFaces(img raster.Image) ([]image.Rectangle, error) {
	src, err := matOf(img)
	if err != nil {
		return nil, err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*src, &gray, gocv.ColorBGRToGray)

	l.mu.Lock()
	raw := l.classifier.DetectMultiScaleWithParams(gray, l.scaleFactor, l.minNeighbors, 0, image.Point{}, image.Point{})
	l.mu.Unlock()

	if len(raw) == 0 {
		return nil, apperr.ErrNoFaceDetected
	}

	grouped := gocv.GroupRectangles(append([]image.Rectangle(nil), raw...), GroupThreshold, GroupEps)
	if len(grouped) == 0 {
		return raw, nil
	}
	return grouped, nil
}

// CropFace は矩形を画像範囲にクランプし、その領域をimage.Imageとして返します。
// クランプ後の領域が空の場合は apperr.ErrInvalidInput を返します。
func (l *FaceLocator) CropFace(img raster.Image, rect image.Rectangle) (image.Image, error) {
	return cropRegion(img, rect)
}

func cropRegion(img raster.Image, rect image.Rectangle) (image.Image, error) {
	src, err := matOf(img)
	if err != nil {
		return nil, err
	}
	r := rect.Canon().Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("face rect %v is outside of image %v: %w", rect, img.Bounds(), apperr.ErrInvalidInput)
	}

	roi := src.Region(r)
	defer roi.Close()
	// ROIは親のストライドを共有するため、連続メモリに複製してから変換する
	cont := roi.Clone()
	defer cont.Close()

	out, err := cont.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert face region: %w", err)
	}
	return out, nil
}

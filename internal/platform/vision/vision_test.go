package vision

import (
	"context"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/feature/logodetection/usecase"
	"analysis_backend/internal/shared/apperr"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// newCanvas は黒背景のBGR画像に塗りつぶし矩形を描画します。
func newCanvas(t *testing.T, w, h int, rects map[image.Rectangle]color.RGBA) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC3)
	for r, c := range rects {
		gocv.Rectangle(&m, r, c, -1)
	}
	return m
}

func encodePNG(t *testing.T, m gocv.Mat) []byte {
	t.Helper()
	buf, err := gocv.IMEncode(gocv.PNGFileExt, m)
	require.NoError(t, err)
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...)
}

func TestDecoder_Decode(t *testing.T) {
	m := newCanvas(t, 40, 30, nil)
	defer m.Close()
	data := encodePNG(t, m)

	img, err := NewDecoder().Decode(data)
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	_, err = NewDecoder().Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, apperr.ErrDecode)

	_, err = NewDecoder().Decode(nil)
	assert.ErrorIs(t, err, apperr.ErrDecode)
}

func TestRedRegionExtractor_RedContours(t *testing.T) {
	tests := []struct {
		name  string
		rects map[image.Rectangle]color.RGBA
		want  int
	}{
		{name: "no red", rects: nil, want: 0},
		{name: "single red square", rects: map[image.Rectangle]color.RGBA{image.Rect(20, 20, 60, 60): red}, want: 1},
		{name: "two separate red squares", rects: map[image.Rectangle]color.RGBA{
			image.Rect(5, 5, 30, 30):   red,
			image.Rect(60, 60, 90, 90): red,
		}, want: 2},
		{name: "tiny red blob is ignored", rects: map[image.Rectangle]color.RGBA{image.Rect(10, 10, 15, 15): red}, want: 0},
		{name: "blue square is ignored", rects: map[image.Rectangle]color.RGBA{image.Rect(20, 20, 60, 60): blue}, want: 0},
	}

	e := NewRedRegionExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(newCanvas(t, 100, 100, tt.rects))
			defer f.Close()

			got, err := e.RedContours(f)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestShapeMatcher_ShapeDistance(t *testing.T) {
	square := entity.Contour{image.Pt(0, 0), image.Pt(0, 40), image.Pt(40, 40), image.Pt(40, 0)}
	bigSquare := entity.Contour{image.Pt(10, 10), image.Pt(10, 90), image.Pt(90, 90), image.Pt(90, 10)}
	triangle := entity.Contour{image.Pt(0, 0), image.Pt(50, 80), image.Pt(100, 0)}

	s := NewShapeMatcher()
	assert.InDelta(t, 0, s.ShapeDistance(square, square), 1e-9)
	assert.InDelta(t, 0, s.ShapeDistance(square, bigSquare), 1e-3, "scale invariant")
	assert.Greater(t, s.ShapeDistance(square, triangle), 0.0)
}

func TestTemplateMatcher_MaxCorrelation(t *testing.T) {
	logo := map[image.Rectangle]color.RGBA{image.Rect(10, 10, 40, 40): red}

	tmplColor := newCanvas(t, 50, 50, logo)
	defer tmplColor.Close()
	tmplGray := gocv.NewMat()
	gocv.CvtColor(tmplColor, &tmplGray, gocv.ColorBGRToGray)
	tmpl := NewFrame(tmplGray)
	defer tmpl.Close()

	m := NewTemplateMatcher()

	same := NewFrame(newCanvas(t, 50, 50, logo))
	defer same.Close()
	corr, err := m.MaxCorrelation(same, tmpl)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, corr, 1e-3)

	small := NewFrame(newCanvas(t, 20, 20, map[image.Rectangle]color.RGBA{image.Rect(4, 4, 16, 16): red}))
	defer small.Close()
	_, err = m.MaxCorrelation(small, tmpl)
	assert.NoError(t, err, "input smaller than template must not fail")
}

func TestFaceLocator_CropFace(t *testing.T) {
	f := NewFrame(newCanvas(t, 100, 80, nil))
	defer f.Close()

	got, err := cropRegion(f, image.Rect(90, 70, 130, 120))
	require.NoError(t, err)
	assert.Equal(t, 10, got.Bounds().Dx())
	assert.Equal(t, 10, got.Bounds().Dy())

	_, err = cropRegion(f, image.Rect(200, 200, 240, 240))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")

	m := newCanvas(t, 60, 60, map[image.Rectangle]color.RGBA{image.Rect(10, 10, 50, 50): red})
	defer m.Close()
	require.True(t, gocv.IMWrite(path, m))

	tmpl, err := LoadTemplate(path, NewRedRegionExtractor())
	require.NoError(t, err)
	defer tmpl.Close()
	assert.Len(t, tmpl.RedContours(), 1)
	assert.Equal(t, image.Rect(0, 0, 60, 60), tmpl.Gray().Bounds())

	_, err = LoadTemplate(filepath.Join(dir, "missing.png"), NewRedRegionExtractor())
	assert.ErrorIs(t, err, apperr.ErrStartup)
}

func TestNewFaceLocator_MissingCascade(t *testing.T) {
	_, err := NewFaceLocator(filepath.Join(t.TempDir(), "nope.xml"))
	assert.ErrorIs(t, err, apperr.ErrStartup)
}

// cascadePath はFACE_CASCADE_PATH、gocvモジュール同梱のdata、OpenCVの標準インストール先の順にカスケードを探します。
func cascadePath(t *testing.T) string {
	t.Helper()
	const name = "haarcascade_frontalface_default.xml"

	candidates := []string{os.Getenv("FACE_CASCADE_PATH"), name}
	if out, err := exec.Command("go", "list", "-m", "-f", "{{.Dir}}", "gocv.io/x/gocv").Output(); err == nil {
		candidates = append(candidates, filepath.Join(strings.TrimSpace(string(out)), "data", name))
	}
	candidates = append(candidates,
		filepath.Join("/usr/local/share/opencv4/haarcascades", name),
		filepath.Join("/usr/share/opencv4/haarcascades", name),
	)
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("haar cascade not found in FACE_CASCADE_PATH, the gocv module or the OpenCV install")
	return ""
}

func TestFaceLocator_LocateFaces_NoFace(t *testing.T) {
	l, err := NewFaceLocator(cascadePath(t))
	require.NoError(t, err)
	defer l.Close()

	f := NewFrame(newCanvas(t, 120, 120, nil))
	defer f.Close()

	_, err = l.LocateFaces(f)
	assert.ErrorIs(t, err, apperr.ErrNoFaceDetected)
}

// TestLogoDetection_EndToEnd は実際のテンプレート読み込みと照合処理を通して判定結果を検証します。
func TestLogoDetection_EndToEnd(t *testing.T) {
	logo := map[image.Rectangle]color.RGBA{
		image.Rect(10, 10, 70, 30): red,
		image.Rect(10, 30, 30, 70): red,
	}

	tmplMat := newCanvas(t, 80, 80, logo)
	defer tmplMat.Close()
	path := filepath.Join(t.TempDir(), "logo.png")
	require.True(t, gocv.IMWrite(path, tmplMat))

	extractor := NewRedRegionExtractor()
	tmpl, err := LoadTemplate(path, extractor)
	require.NoError(t, err)
	defer tmpl.Close()

	uc := usecase.NewLogoDetectionUsecase(NewDecoder(), NewTemplateMatcher(), extractor, NewShapeMatcher(), tmpl, entity.DefaultThresholds())

	tests := []struct {
		name  string
		rects map[image.Rectangle]color.RGBA
		want  bool
	}{
		{name: "identical image", rects: logo, want: true},
		{name: "same layout without red", rects: map[image.Rectangle]color.RGBA{
			image.Rect(10, 10, 70, 30): blue,
			image.Rect(10, 30, 30, 70): blue,
		}, want: false},
		{name: "blank image", rects: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newCanvas(t, 80, 80, tt.rects)
			data := encodePNG(t, m)
			m.Close()

			got, err := uc.Detect(context.Background(), data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.LogoDetected)
			if tt.want {
				assert.InDelta(t, 1.0, got.Correlation, 1e-3)
				assert.InDelta(t, 1.0, got.Similarity, 1e-6)
			}
		})
	}
}

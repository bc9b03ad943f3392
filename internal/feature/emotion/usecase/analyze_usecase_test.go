package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/feature/emotion/usecase"
	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/imageinput"
	"analysis_backend/internal/shared/raster"
)

// fakeImage はraster.Imageのテスト用実装です。
type fakeImage struct {
	bounds image.Rectangle
	closed int
}

func (f *fakeImage) Bounds() image.Rectangle { return f.bounds }
func (f *fakeImage) Close() error            { f.closed++; return nil }

// mockDecoder はImageDecoderインターフェースのモック実装です。
type mockDecoder struct {
	DecodeFunc func(data []byte) (raster.Image, error)
}

func (m *mockDecoder) Decode(data []byte) (raster.Image, error) {
	return m.DecodeFunc(data)
}

// mockLocator はFaceLocatorインターフェースのモック実装です。
type mockLocator struct {
	LocateFacesFunc func(img raster.Image) ([]image.Rectangle, error)
	CropFaceFunc    func(img raster.Image, rect image.Rectangle) (image.Image, error)
}

func (m *mockLocator) LocateFaces(img raster.Image) ([]image.Rectangle, error) {
	return m.LocateFacesFunc(img)
}

func (m *mockLocator) CropFace(img raster.Image, rect image.Rectangle) (image.Image, error) {
	if m.CropFaceFunc != nil {
		return m.CropFaceFunc(img, rect)
	}
	return image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy())), nil
}

// mockClassifier はEmotionClassifierインターフェースのモック実装です。
type mockClassifier struct {
	ClassifyFunc  func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error)
	ClassifyCalls int
}

func (m *mockClassifier) Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
	m.ClassifyCalls++
	return m.ClassifyFunc(ctx, face)
}

func TestAnalyzeUsecase_Analyze(t *testing.T) {
	t.Parallel()

	twoFaces := func(img raster.Image) ([]image.Rectangle, error) {
		return []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30)}, nil
	}
	perFace := func() func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
		calls := 0
		return func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
			calls++
			if calls == 1 {
				return []entity.FaceEmotion{{DominantEmotion: "happy", Emotions: scores("happy", 80.0, "sad", 20.0)}}, nil
			}
			return []entity.FaceEmotion{{DominantEmotion: "sad", Emotions: scores("happy", 40.0, "sad", 60.0)}}, nil
		}
	}

	tests := []struct {
		name         string
		data         []byte
		decodeErr    error
		locate       func(img raster.Image) ([]image.Rectangle, error)
		crop         func(img raster.Image, rect image.Rectangle) (image.Image, error)
		classify     func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error)
		want         *entity.AnalysisResult
		wantErr      error
		wantClassify int
	}{
		{
			name:         "success: two faces averaged",
			data:         []byte("img"),
			locate:       twoFaces,
			classify:     perFace(),
			want:         &entity.AnalysisResult{DominantEmotion: "happy", Emotions: map[string]float64{"happy": 60, "sad": 40}},
			wantClassify: 2,
		},
		{
			name:   "success: classifier returns no records",
			data:   []byte("img"),
			locate: twoFaces,
			classify: func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
				return nil, nil
			},
			want:         &entity.AnalysisResult{DominantEmotion: "", Emotions: map[string]float64{}},
			wantClassify: 2,
		},
		{
			name:   "success: out of bounds face is skipped",
			data:   []byte("img"),
			locate: twoFaces,
			crop: func(img raster.Image, rect image.Rectangle) (image.Image, error) {
				if rect.Min.X == 0 {
					return nil, fmt.Errorf("empty crop: %w", apperr.ErrInvalidInput)
				}
				return image.NewGray(image.Rect(0, 0, 10, 10)), nil
			},
			classify: func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
				return []entity.FaceEmotion{{Emotions: scores("neutral", 70.0)}}, nil
			},
			want:         &entity.AnalysisResult{DominantEmotion: "neutral", Emotions: map[string]float64{"neutral": 70}},
			wantClassify: 1,
		},
		{
			name:    "error: empty payload",
			data:    nil,
			wantErr: apperr.ErrInvalidInput,
		},
		{
			name:    "error: payload too large",
			data:    make([]byte, imageinput.MaxImageSize+1),
			wantErr: apperr.ErrInvalidInput,
		},
		{
			name:      "error: undecodable image",
			data:      []byte("garbage"),
			decodeErr: errors.New("imdecode returned empty mat"),
			wantErr:   apperr.ErrDecode,
		},
		{
			name: "error: no face",
			data: []byte("img"),
			locate: func(img raster.Image) ([]image.Rectangle, error) {
				return nil, apperr.ErrNoFaceDetected
			},
			wantErr: apperr.ErrNoFaceDetected,
		},
		{
			name:   "error: classifier failure",
			data:   []byte("img"),
			locate: twoFaces,
			classify: func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
				return nil, errors.New("upstream 502")
			},
			wantErr:      apperr.ErrClassification,
			wantClassify: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			img := &fakeImage{bounds: image.Rect(0, 0, 100, 100)}
			dec := &mockDecoder{DecodeFunc: func(data []byte) (raster.Image, error) {
				if tt.decodeErr != nil {
					return nil, tt.decodeErr
				}
				return img, nil
			}}
			loc := &mockLocator{LocateFacesFunc: tt.locate, CropFaceFunc: tt.crop}
			cls := &mockClassifier{ClassifyFunc: tt.classify}

			uc := usecase.NewAnalyzeUsecase(dec, loc, cls)
			got, err := uc.Analyze(context.Background(), tt.data)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.DominantEmotion, got.DominantEmotion)
				assert.InDeltaMapValues(t, tt.want.Emotions, got.Emotions, 1e-9)
				assert.Len(t, got.Emotions, len(tt.want.Emotions))
			}
			assert.Equal(t, tt.wantClassify, cls.ClassifyCalls)
			if tt.locate != nil {
				assert.Equal(t, 1, img.closed, "decoded image must be released")
			}
		})
	}
}

func TestAnalyzeUsecase_Analyze_ContextCanceled(t *testing.T) {
	t.Parallel()

	img := &fakeImage{bounds: image.Rect(0, 0, 50, 50)}
	dec := &mockDecoder{DecodeFunc: func(data []byte) (raster.Image, error) { return img, nil }}
	loc := &mockLocator{LocateFacesFunc: func(raster.Image) ([]image.Rectangle, error) {
		return []image.Rectangle{image.Rect(0, 0, 10, 10)}, nil
	}}
	cls := &mockClassifier{ClassifyFunc: func(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
		return nil, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := usecase.NewAnalyzeUsecase(dec, loc, cls).Analyze(ctx, []byte("img"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, cls.ClassifyCalls)
	assert.Equal(t, 1, img.closed)
}

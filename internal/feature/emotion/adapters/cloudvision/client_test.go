package cloudvision

import (
	"context"
	"errors"
	"image"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"

	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/shared/apperr"
)

// mockAnnotator はannotatorインターフェースのモック実装です。
type mockAnnotator struct {
	BatchAnnotateImagesFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
}

func (m *mockAnnotator) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	return m.BatchAnnotateImagesFunc(ctx, req)
}

func TestVisionEmotionClassifier_Classify(t *testing.T) {
	t.Parallel()

	face := image.NewRGBA(image.Rect(0, 0, 16, 16))

	tests := []struct {
		name    string
		resp    *visionpb.BatchAnnotateImagesResponse
		err     error
		want    []entity.FaceEmotion
		wantErr error
	}{
		{
			name: "joyful face",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				FaceAnnotations: []*visionpb.FaceAnnotation{{
					JoyLikelihood:      visionpb.Likelihood_VERY_LIKELY,
					SorrowLikelihood:   visionpb.Likelihood_VERY_UNLIKELY,
					AngerLikelihood:    visionpb.Likelihood_UNLIKELY,
					SurpriseLikelihood: visionpb.Likelihood_POSSIBLE,
				}},
			}}},
			want: []entity.FaceEmotion{{
				DominantEmotion: entity.LabelHappy,
				Emotions: []entity.EmotionScore{
					{Label: entity.LabelAngry, Score: 25},
					{Label: entity.LabelHappy, Score: 100},
					{Label: entity.LabelSad, Score: 0},
					{Label: entity.LabelSurprise, Score: 50},
					{Label: entity.LabelNeutral, Score: 0},
				},
			}},
		},
		{
			name: "expressionless face is neutral",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				FaceAnnotations: []*visionpb.FaceAnnotation{{}},
			}}},
			want: []entity.FaceEmotion{{
				DominantEmotion: entity.LabelNeutral,
				Emotions: []entity.EmotionScore{
					{Label: entity.LabelAngry, Score: 0},
					{Label: entity.LabelHappy, Score: 0},
					{Label: entity.LabelSad, Score: 0},
					{Label: entity.LabelSurprise, Score: 0},
					{Label: entity.LabelNeutral, Score: 100},
				},
			}},
		},
		{
			name: "no face found",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{}}},
			want: []entity.FaceEmotion{},
		},
		{
			name:    "transport error",
			err:     errors.New("unavailable"),
			wantErr: apperr.ErrClassification,
		},
		{
			name: "api error in response",
			resp: &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{{
				Error: &status.Status{Message: "bad image"},
			}}},
			wantErr: apperr.ErrClassification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := &VisionEmotionClassifier{client: &mockAnnotator{
				BatchAnnotateImagesFunc: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
					require.Len(t, req.Requests, 1)
					assert.Equal(t, visionpb.Feature_FACE_DETECTION, req.Requests[0].Features[0].Type)
					assert.NotEmpty(t, req.Requests[0].Image.Content)
					return tt.resp, tt.err
				},
			}}

			got, err := v.Classify(context.Background(), face)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

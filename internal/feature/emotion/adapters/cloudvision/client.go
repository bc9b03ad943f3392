// Package cloudvision はGoogle Cloud Vision APIの顔検出を使用した感情分類クライアントを提供します。
package cloudvision

import (
	"context"
	"fmt"
	"image"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"analysis_backend/internal/feature/emotion/adapters/facecodec"
	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/feature/emotion/usecase"
	"analysis_backend/internal/shared/apperr"
)

// maxFaceSide はVision APIに送信する顔画像の長辺です。
const maxFaceSide = 1024

// annotator はImageAnnotatorClientのうち本クライアントが使用するメソッドです。
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// likelihoodScore はVision APIの尤度をパーセンテージに換算した値です。
var likelihoodScore = map[visionpb.Likelihood]float64{
	visionpb.Likelihood_UNKNOWN:       0,
	visionpb.Likelihood_VERY_UNLIKELY: 0,
	visionpb.Likelihood_UNLIKELY:      25,
	visionpb.Likelihood_POSSIBLE:      50,
	visionpb.Likelihood_LIKELY:        75,
	visionpb.Likelihood_VERY_LIKELY:   100,
}

// VisionEmotionClassifier はGoogle Cloud Vision APIのFACE_DETECTIONで感情を推定します。
type VisionEmotionClassifier struct {
	client annotator
	closer func() error
}

// VisionEmotionClassifierがEmotionClassifierを実装していることをコンパイル時に検証します。
var _ usecase.EmotionClassifier = (*VisionEmotionClassifier)(nil)

// NewVisionEmotionClassifier はADCを使用してVisionEmotionClassifierの新しいインスタンスを生成します。
func NewVisionEmotionClassifier(ctx context.Context) (*VisionEmotionClassifier, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionEmotionClassifier{client: client, closer: client.Close}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionEmotionClassifier) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

// Classify は顔画像から喜び・悲しみ・怒り・驚きの尤度を取得し、感情スコアに変換します。
// Vision APIが顔を見つけられなかった場合は0件を返します。
func (v *VisionEmotionClassifier) Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
	jpeg, err := facecodec.EncodeJPEG(face, maxFaceSide)
	if err != nil {
		return nil, fmt.Errorf("vision: %v: %w", err, apperr.ErrClassification)
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: jpeg},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_FACE_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %v: %w", err, apperr.ErrClassification)
	}

	if len(resp.Responses) == 0 {
		return nil, nil
	}

	if resp.Responses[0].Error != nil {
		return nil, fmt.Errorf("vision API error: %s: %w", resp.Responses[0].Error.Message, apperr.ErrClassification)
	}

	out := make([]entity.FaceEmotion, 0, len(resp.Responses[0].FaceAnnotations))
	for _, fa := range resp.Responses[0].FaceAnnotations {
		out = append(out, toFaceEmotion(fa))
	}
	return out, nil
}

// toFaceEmotion は顔アノテーションを感情スコアに変換します。neutral は他の最大値の補数です。
func toFaceEmotion(fa *visionpb.FaceAnnotation) entity.FaceEmotion {
	scores := []entity.EmotionScore{
		{Label: entity.LabelAngry, Score: likelihoodScore[fa.GetAngerLikelihood()]},
		{Label: entity.LabelHappy, Score: likelihoodScore[fa.GetJoyLikelihood()]},
		{Label: entity.LabelSad, Score: likelihoodScore[fa.GetSorrowLikelihood()]},
		{Label: entity.LabelSurprise, Score: likelihoodScore[fa.GetSurpriseLikelihood()]},
	}
	peak := 0.0
	for _, s := range scores {
		if s.Score > peak {
			peak = s.Score
		}
	}
	scores = append(scores, entity.EmotionScore{Label: entity.LabelNeutral, Score: 100 - peak})
	return entity.NewFaceEmotion(scores)
}

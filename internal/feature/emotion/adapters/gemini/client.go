// Package gemini はGoogle Gemini APIのマルチモーダル入力を使用した感情分類クライアントを提供します。
package gemini

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"google.golang.org/genai"

	"analysis_backend/internal/feature/emotion/adapters/facecodec"
	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/feature/emotion/usecase"
	"analysis_backend/internal/shared/apperr"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
	// maxFaceSide はGeminiに送信する顔画像の長辺です。
	maxFaceSide = 512
)

// EmotionPrompt は顔画像の感情スコアをJSONで返させるプロンプトです。
var EmotionPrompt = "この顔画像の表情を分析し、angry, disgust, fear, happy, sad, surprise, neutral の7つのキーを持つ" +
	"JSONオブジェクトのみを返してください。各値は0から100の数値で、合計は100にしてください。"

// contentGenerator はgenai.Modelsのうち本クライアントが使用するメソッドです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiEmotionClassifier はGoogle Gemini APIを使用して顔画像の感情を分類します。
type GeminiEmotionClassifier struct {
	models contentGenerator
	model  string
}

// GeminiEmotionClassifierがEmotionClassifierを実装していることをコンパイル時に検証します。
var _ usecase.EmotionClassifier = (*GeminiEmotionClassifier)(nil)

// NewGeminiEmotionClassifier はADCを使用してGeminiEmotionClassifierの新しいインスタンスを生成します。
// 環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
// GEMINI_MODEL でモデルを上書きできます。
func NewGeminiEmotionClassifier(ctx context.Context) (*GeminiEmotionClassifier, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultModel
	}
	return &GeminiEmotionClassifier{models: client.Models, model: model}, nil
}

// Classify は顔画像とプロンプトを送信し、JSON応答を感情スコアとして読み取ります。
func (g *GeminiEmotionClassifier) Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
	jpeg, err := facecodec.EncodeJPEG(face, maxFaceSide)
	if err != nil {
		return nil, fmt.Errorf("gemini: %v: %w", err, apperr.ErrClassification)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(jpeg, "image/jpeg"),
			genai.NewPartFromText(EmotionPrompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %v: %w", err, apperr.ErrClassification)
	}

	text := facecodec.StripCodeFence(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response: %w", apperr.ErrClassification)
	}

	scores, err := facecodec.DecodeScores([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("gemini response %q: %v: %w", truncate(text), err, apperr.ErrClassification)
	}
	return []entity.FaceEmotion{entity.NewFaceEmotion(scores)}, nil
}

func truncate(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return strings.TrimSpace(s[:limit]) + "..."
}

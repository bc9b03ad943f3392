package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"analysis_backend/internal/feature/emotion/adapters/deepface/dto"
	"analysis_backend/internal/feature/emotion/adapters/facecodec"
	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/feature/emotion/usecase"
	"analysis_backend/internal/shared/apperr"
)

// maxErrorBody はエラーログに含めるレスポンスボディの上限です。
const maxErrorBody = 512

// DeepFaceClassifier はDeepFace互換APIの /analyze を呼び出して感情を分類します。
type DeepFaceClassifier struct {
	cfg    Config
	client *http.Client
}

// DeepFaceClassifierがEmotionClassifierを実装していることをコンパイル時に検証します。
var _ usecase.EmotionClassifier = (*DeepFaceClassifier)(nil)

// NewDeepFaceClassifier は指定された設定とHTTPクライアントでDeepFaceClassifierを生成します。
func NewDeepFaceClassifier(cfg Config, client *http.Client) *DeepFaceClassifier {
	return &DeepFaceClassifier{cfg: cfg, client: client}
}

// Classify は顔画像をJPEGのdata URLとして送信し、顔ごとの感情スコアを返します。
// 顔検出の強制は無効にして送信するため、切り出し済み画像が検出失敗で拒否されることはありません。
func (d *DeepFaceClassifier) Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
	jpeg, err := facecodec.EncodeJPEG(face, d.cfg.MaxFaceSide)
	if err != nil {
		return nil, fmt.Errorf("deepface: %v: %w", err, apperr.ErrClassification)
	}

	body, err := json.Marshal(dto.AnalyzeRequest{
		Img:              facecodec.DataURL(jpeg),
		Actions:          []string{"emotion"},
		EnforceDetection: false,
		DetectorBackend:  d.cfg.DetectorBackend,
	})
	if err != nil {
		return nil, fmt.Errorf("deepface: marshal request: %v: %w", err, apperr.ErrClassification)
	}

	u := strings.TrimRight(d.cfg.BaseURL, "/") + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("deepface: %v: %w", err, apperr.ErrClassification)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepface request failed: %v: %w", err, apperr.ErrClassification)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("deepface: read response: %v: %w", err, apperr.ErrClassification)
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("deepface http %d: %s: %w", res.StatusCode, errorMessage(raw), apperr.ErrClassification)
	}

	out, err := parseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("deepface: %v: %w", err, apperr.ErrClassification)
	}
	return out, nil
}

// maxNestingDepth は入れ子になった結果配列をたどる深さの上限です。
const maxNestingDepth = 32

// parseResponse は {"results": [...]}、配列、単一オブジェクトのいずれの形式も顔ごとの結果の列に正規化します。
// 入れ子の配列は再帰的に平坦化し、オブジェクトでも配列でもない要素は読み捨てます。
func parseResponse(raw []byte) ([]entity.FaceEmotion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	if (trimmed[0] != '[' && trimmed[0] != '{') || !json.Valid(trimmed) {
		return nil, fmt.Errorf("unexpected response: %s", truncate(trimmed))
	}

	root := json.RawMessage(trimmed)
	if trimmed[0] == '{' {
		var env dto.AnalyzeEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if env.Results != nil {
			root = env.Results
		}
	}

	var records []dto.AnalyzeResult
	if err := flatten(root, 0, &records); err != nil {
		return nil, err
	}

	out := make([]entity.FaceEmotion, 0, len(records))
	for i, r := range records {
		fe, err := toFaceEmotion(r)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		out = append(out, fe)
	}
	return out, nil
}

// flatten はオブジェクトを1件の結果として追加し、配列は要素ごとに再帰します。
func flatten(node json.RawMessage, depth int, out *[]dto.AnalyzeResult) error {
	node = bytes.TrimSpace(node)
	if len(node) == 0 {
		return nil
	}
	switch node[0] {
	case '{':
		var r dto.AnalyzeResult
		if err := json.Unmarshal(node, &r); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		*out = append(*out, r)
	case '[':
		if depth >= maxNestingDepth {
			return fmt.Errorf("result nesting exceeds %d levels", maxNestingDepth)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(node, &items); err != nil {
			return fmt.Errorf("decode result list: %w", err)
		}
		for _, item := range items {
			if err := flatten(item, depth+1, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// toFaceEmotion は1件の結果を変換します。emotion が無い結果はスコアなしの1件として数えます。
func toFaceEmotion(r dto.AnalyzeResult) (entity.FaceEmotion, error) {
	var scores []entity.EmotionScore
	if len(r.Emotion) > 0 && string(r.Emotion) != "null" {
		var err error
		if scores, err = facecodec.DecodeScores(r.Emotion); err != nil {
			return entity.FaceEmotion{}, err
		}
	}
	fe := entity.NewFaceEmotion(scores)
	if r.DominantEmotion != "" && len(scores) > 0 {
		fe.DominantEmotion = strings.ToLower(r.DominantEmotion)
	}
	return fe, nil
}

func errorMessage(raw []byte) string {
	var e dto.ErrorBody
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return truncate(raw)
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}

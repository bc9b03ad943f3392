// Package dto はDeepFace APIのリクエスト・レスポンス形式を定義します。
package dto

import "encoding/json"

// AnalyzeRequest は POST /analyze のリクエストボディです。
type AnalyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	EnforceDetection bool     `json:"enforce_detection"`
	DetectorBackend  string   `json:"detector_backend,omitempty"`
}

// AnalyzeResult は顔1つ分の解析結果です。emotion はキー順を保つため生のまま保持します。
type AnalyzeResult struct {
	Emotion         json.RawMessage `json:"emotion"`
	DominantEmotion string          `json:"dominant_emotion"`
}

// AnalyzeEnvelope は {"results": ...} 形式のレスポンスです。results は入れ子の配列を含むことがあるため生のまま保持します。
type AnalyzeEnvelope struct {
	Results json.RawMessage `json:"results"`
}

// ErrorBody はDeepFace APIがエラー時に返すボディです。
type ErrorBody struct {
	Error string `json:"error"`
}

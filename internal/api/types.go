// Package api はHTTPレスポンスで共有される型を定義します。
package api

// ErrorResponse はすべてのエンドポイントで共通のエラーレスポンスです。
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AnalyzeResponse は /analyze の成功レスポンスです。
type AnalyzeResponse struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Emotions        map[string]float64 `json:"emotions"`
}

// DetectResponse は /detect の成功レスポンスです。
type DetectResponse struct {
	LogoDetected bool `json:"logo_detected"`
}

// ReadinessResponse は /readyz のレスポンスです。
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ImageRequest は /analyze と /detect で共通のリクエストボディです。
// image_data（Base64またはdata URL）か、bucket と image_key の組のどちらかを指定します。
// file_name と content_type はクライアント互換のために受け付けますが使用しません。
// multipart/form-data の場合は image フィールドのファイルも受け付けます。
type ImageRequest struct {
	ImageData   string `json:"image_data" form:"image_data"`
	Bucket      string `json:"bucket" form:"bucket"`
	ImageKey    string `json:"image_key" form:"image_key"`
	FileName    string `json:"file_name" form:"file_name"`
	ContentType string `json:"content_type" form:"content_type"`
}

// Package apperr はサービス全体で共有するエラー種別を定義します。
// 下位層はいずれかのセンチネルを fmt.Errorf("...: %w", ...) でラップし、
// HTTP境界で errors.Is によりステータスコードへ変換します。
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput は必須項目の欠落や不正なリクエストの場合に返されます。
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecode は画像ペイロードがBase64として不正、または画像としてデコードできない場合に返されます。
	ErrDecode = errors.New("image decode failed")

	// ErrNoFaceDetected は顔検出で1件も見つからなかった場合に返されます。
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrClassification は外部の感情分類器が失敗した場合に返されます。
	ErrClassification = errors.New("emotion classification failed")

	// ErrStorage はオブジェクトストレージからの取得に失敗した場合に返されます。
	ErrStorage = errors.New("object storage fetch failed")

	// ErrStartup は起動時に必須のアセットやモデルを読み込めない場合に返されます。
	ErrStartup = errors.New("startup failed")
)

// api.ErrorResponse.Code に設定するエラーコードです。
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidImage         = "invalid_image"
	CodeNoFaceDetected       = "no_face_detected"
	CodeClassificationFailed = "classification_failed"
	CodeStorageFailed        = "storage_failed"
	CodeInternal             = "internal_error"
)

// HTTPStatus はエラー種別に対応するHTTPステータスコードを返します。
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code はエラー種別に対応するエラーコード文字列を返します。
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidRequest
	case errors.Is(err, ErrDecode):
		return CodeInvalidImage
	case errors.Is(err, ErrNoFaceDetected):
		return CodeNoFaceDetected
	case errors.Is(err, ErrClassification):
		return CodeClassificationFailed
	case errors.Is(err, ErrStorage):
		return CodeStorageFailed
	default:
		return CodeInternal
	}
}

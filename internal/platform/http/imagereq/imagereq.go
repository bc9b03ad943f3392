// Package imagereq は画像を受け取るエンドポイントに共通のリクエスト読み取りとエラー応答を提供します。
package imagereq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"analysis_backend/internal/api"
	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/imageinput"
)

// MaxRequestBodySize はリクエストボディの上限です。Base64の膨張分を見込んでMaxImageSizeより大きくしています。
const MaxRequestBodySize = 16 << 20

// FileField はmultipart/form-dataで画像ファイルを受け取るフィールド名です。
const FileField = "image"

// ImageResolver は画像の参照をバイト列に解決するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ImageResolver interface {
	Resolve(ctx context.Context, src imageinput.Source) ([]byte, error)
}

// Read はリクエストから画像バイト列を取り出します。
// JSONボディの image_data か bucket/image_key、またはmultipartの image ファイルを受け付けます。
func Read(c *gin.Context, resolver ImageResolver) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)

	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		return readMultipart(c, resolver)
	}

	var req api.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	return resolver.Resolve(c.Request.Context(), toSource(req))
}

func readMultipart(c *gin.Context, resolver ImageResolver) ([]byte, error) {
	var req api.ImageRequest
	if err := c.ShouldBind(&req); err != nil {
		return nil, bindError(err)
	}

	file, err := c.FormFile(FileField)
	if err != nil {
		// ファイルが無い場合はフォームフィールドの参照として扱う
		return resolver.Resolve(c.Request.Context(), toSource(req))
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %v: %w", err, apperr.ErrInvalidInput)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded file", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, imageinput.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %v: %w", err, apperr.ErrInvalidInput)
	}
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("uploaded file is empty: %w", apperr.ErrDecode)
	case len(data) > imageinput.MaxImageSize:
		return nil, fmt.Errorf("image size exceeds maximum of %d bytes: %w", imageinput.MaxImageSize, apperr.ErrInvalidInput)
	}
	return data, nil
}

func toSource(req api.ImageRequest) imageinput.Source {
	return imageinput.Source{ImageData: req.ImageData, Bucket: req.Bucket, Key: req.ImageKey}
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("request body exceeds %d bytes: %w", MaxRequestBodySize, apperr.ErrInvalidInput)
	}
	return fmt.Errorf("malformed request body: %v: %w", err, apperr.ErrInvalidInput)
}

// messages はエラーコードごとの利用者向けメッセージです。
var messages = map[string]string{
	apperr.CodeInvalidRequest:       "リクエストが不正です",
	apperr.CodeInvalidImage:         "画像をデコードできませんでした",
	apperr.CodeNoFaceDetected:       "顔が検出されませんでした",
	apperr.CodeClassificationFailed: "感情分類に失敗しました",
	apperr.CodeStorageFailed:        "画像の取得に失敗しました",
	apperr.CodeInternal:             "内部エラーが発生しました",
}

// WriteError はエラー種別に応じたステータスとapi.ErrorResponseを書き込みます。
// 既知のエラー種別は詳細を含めて返し、分類できない内部エラーのみ詳細を伏せます。
func WriteError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.Code(err)

	resp := api.ErrorResponse{Error: messages[code], Code: code}
	if code != apperr.CodeInternal {
		resp.Details = err.Error()
	}
	if status < http.StatusInternalServerError {
		slog.Warn("request rejected", "path", c.FullPath(), "code", code, "error", err, "remote_addr", c.ClientIP())
	} else {
		slog.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}

// Package imageinput はリクエストに含まれる画像参照を画像バイト列に解決します。
package imageinput

import (
	"encoding/base64"
	"fmt"
	"strings"

	"analysis_backend/internal/shared/apperr"
)

// MaxImageSize は受け付ける画像の最大サイズ（10MB）です。
const MaxImageSize = 10 * 1024 * 1024

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodePayload はBase64文字列またはdata URLを画像バイト列に変換します。
// カンマを含む場合は最初のカンマまでをプレフィックスとして取り除きます。
func DecodePayload(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	s = stripWhitespace(s)
	if s == "" {
		return nil, fmt.Errorf("empty base64 payload: %w", apperr.ErrDecode)
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageSize+2 {
		return nil, fmt.Errorf("image size exceeds maximum of %d bytes: %w", MaxImageSize, apperr.ErrInvalidInput)
	}

	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			if len(b) > MaxImageSize {
				return nil, fmt.Errorf("image size exceeds maximum of %d bytes: %w", MaxImageSize, apperr.ErrInvalidInput)
			}
			return b, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("invalid base64 payload: %v: %w", lastErr, apperr.ErrDecode)
}

// stripWhitespace は改行などBase64アルファベット外の空白を取り除きます。
func stripWhitespace(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}

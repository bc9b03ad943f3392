// Package facecodec は感情分類器アダプター間で共有する顔画像の前処理と
// スコアJSONの読み取りを提供します。
package facecodec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"analysis_backend/internal/feature/emotion/domain/entity"
)

// JPEGQuality は外部サービスへ送る顔画像のJPEG品質です。
const JPEGQuality = 90

// EncodeJPEG は顔画像をJPEGにエンコードします。maxSide > 0 の場合、長辺がそれ以下になるよう縮小します。
func EncodeJPEG(face image.Image, maxSide int) ([]byte, error) {
	if face == nil || face.Bounds().Empty() {
		return nil, errors.New("empty face image")
	}
	b := face.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		face = imaging.Fit(face, maxSide, maxSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, face, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode face as jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL はJPEGバイト列をdata URLに変換します。
func DataURL(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}

// GrayPixels は顔画像を w×h のグレースケールに変換し、0〜255の画素値を行優先で返します。
func GrayPixels(face image.Image, w, h int) []float32 {
	g := imaging.Grayscale(imaging.Resize(face, w, h, imaging.Linear))
	out := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := g.PixOffset(x, y)
			out[y*w+x] = float32(g.Pix[i])
		}
	}
	return out
}

// DecodeScores はJSONオブジェクト {"label": score, ...} をキーの出現順を保ったまま読み取ります。
// 値は数値または数値文字列を受け付けます。
func DecodeScores(raw []byte) ([]entity.EmotionScore, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("scores must be a JSON object, got %v", tok)
	}

	var out []entity.EmotionScore
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read score label: %w", err)
		}
		label, _ := keyTok.(string)

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("read score %q: %w", label, err)
		}
		score, err := parseScore(v)
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", label, err)
		}
		out = append(out, entity.EmotionScore{Label: strings.ToLower(label), Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	return out, nil
}

func parseScore(v json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(v))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", string(v))
	}
	return f, nil
}

// StripCodeFence は ```json ... ``` で囲まれた応答から中身を取り出します。
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

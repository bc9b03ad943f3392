// Package entity はemotionフィーチャーのドメインモデルを定義します。
package entity

import "math"

// 分類器が返す感情ラベルです。
const (
	LabelAngry    = "angry"
	LabelDisgust  = "disgust"
	LabelFear     = "fear"
	LabelHappy    = "happy"
	LabelSad      = "sad"
	LabelSurprise = "surprise"
	LabelNeutral  = "neutral"
)

// Labels は既定の感情ラベルの並びです。
var Labels = []string{
	LabelAngry,
	LabelDisgust,
	LabelFear,
	LabelHappy,
	LabelSad,
	LabelSurprise,
	LabelNeutral,
}

// EmotionScore は1つの感情ラベルとそのスコア（0〜100）です。
type EmotionScore struct {
	Label string
	Score float64
}

// FaceEmotion は1つの顔に対する分類結果です。
// Emotions の順序は分類器が返した順序を保持します。
type FaceEmotion struct {
	DominantEmotion string
	Emotions        []EmotionScore
}

// AnalysisResult は全顔の分類結果を集約した結果です。
type AnalysisResult struct {
	DominantEmotion string
	Emotions        map[string]float64
}

// NewFaceEmotion はスコア列から FaceEmotion を生成します。
// 負値とNaNは0に丸め、最大スコアのラベル（同値なら先頭）を支配的な感情とします。
func NewFaceEmotion(scores []EmotionScore) FaceEmotion {
	out := FaceEmotion{Emotions: make([]EmotionScore, 0, len(scores))}
	best := -1.0
	for _, s := range scores {
		v := s.Score
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		out.Emotions = append(out.Emotions, EmotionScore{Label: s.Label, Score: v})
		if v > best {
			best = v
			out.DominantEmotion = s.Label
		}
	}
	return out
}

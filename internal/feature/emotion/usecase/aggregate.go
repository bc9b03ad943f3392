package usecase

import "analysis_backend/internal/feature/emotion/domain/entity"

// Aggregate は顔ごとの分類結果をラベル単位で平均し、最大値のラベルを支配的な感情とします。
// 平均の分母は結果の件数で、ある結果に存在しないラベルはその結果で0として扱います。
// 同値の場合は最初に現れたラベルを採用します。
func Aggregate(records []entity.FaceEmotion) entity.AnalysisResult {
	out := entity.AnalysisResult{Emotions: map[string]float64{}}
	if len(records) == 0 {
		return out
	}

	var order []string
	sums := map[string]float64{}
	for _, r := range records {
		for _, s := range r.Emotions {
			if _, ok := sums[s.Label]; !ok {
				order = append(order, s.Label)
			}
			sums[s.Label] += s.Score
		}
	}

	n := float64(len(records))
	best := -1.0
	for _, label := range order {
		mean := sums[label] / n
		out.Emotions[label] = mean
		if mean > best {
			best = mean
			out.DominantEmotion = label
		}
	}
	return out
}

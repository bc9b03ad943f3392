package di

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"analysis_backend/internal/app/config"
	emotionusecase "analysis_backend/internal/feature/emotion/usecase"
	logousecase "analysis_backend/internal/feature/logodetection/usecase"
	"analysis_backend/internal/platform/cache"
	"analysis_backend/internal/platform/vision"
)

// visionパッケージの実装が各ユースケースのインターフェースを満たすことをコンパイル時に検証します。
// platform/vision はユースケースのパッケージをimportしません。
var (
	_ emotionusecase.ImageDecoder    = (*vision.Decoder)(nil)
	_ emotionusecase.FaceLocator     = (*vision.FaceLocator)(nil)
	_ logousecase.ImageDecoder       = (*vision.Decoder)(nil)
	_ logousecase.Correlator         = (*vision.TemplateMatcher)(nil)
	_ logousecase.RedRegionExtractor = (*vision.RedRegionExtractor)(nil)
	_ logousecase.ShapeComparer      = (*vision.ShapeMatcher)(nil)
)

// Pipelines は /analyze と /detect のユースケースと、その解放処理をまとめたものです。
type Pipelines struct {
	Analyzer cache.Analyzer
	Detector cache.Detector
	closers  []func() error
}

// NewPipelines はテンプレートとカスケードを読み込み、両ユースケースを組み立てます。
// アセットが読み込めない場合は apperr.ErrStartup を含むエラーを返します。
func NewPipelines(ctx context.Context, cfg config.Config) (*Pipelines, error) {
	p := &Pipelines{}

	detector, closeDetector, err := NewLogoDetection(cfg)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, closeDetector)

	analyzer, closeAnalyzer, err := NewEmotionAnalysis(ctx, cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.closers = append(p.closers, closeAnalyzer)

	p.Analyzer, p.Detector = analyzer, detector
	return p, nil
}

// NewLogoDetection は参照ロゴを読み込み、ロゴ検出ユースケースを組み立てます。
func NewLogoDetection(cfg config.Config) (cache.Detector, func() error, error) {
	extractor := vision.NewRedRegionExtractor()
	tmpl, err := vision.LoadTemplate(cfg.TemplatePath, extractor)
	if err != nil {
		return nil, nil, err
	}
	uc := logousecase.NewLogoDetectionUsecase(
		vision.NewDecoder(),
		vision.NewTemplateMatcher(),
		extractor,
		vision.NewShapeMatcher(),
		tmpl,
		cfg.Thresholds,
	)
	return uc, tmpl.Close, nil
}

// NewEmotionAnalysis はカスケードと感情分類器を用意し、感情分析ユースケースを組み立てます。
func NewEmotionAnalysis(ctx context.Context, cfg config.Config) (cache.Analyzer, func() error, error) {
	locator, err := vision.NewFaceLocator(cfg.CascadePath)
	if err != nil {
		return nil, nil, err
	}

	classifier, closeClassifier, err := NewEmotionClassifier(ctx, cfg)
	if err != nil {
		_ = locator.Close()
		return nil, nil, fmt.Errorf("emotion classifier: %w", err)
	}

	uc := emotionusecase.NewAnalyzeUsecase(vision.NewDecoder(), locator, classifier)
	closeFn := func() error {
		return errors.Join(closeClassifier(), locator.Close())
	}
	return uc, closeFn, nil
}

// Close は保持している資源を逆順に解放します。
func (p *Pipelines) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// AnalyzeCacheNamespace は分類器ごとに分けた感情分析キャッシュの名前空間を返します。
func AnalyzeCacheNamespace(cfg config.Config) string {
	return "analyze:" + cfg.EmotionClassifier
}

// DetectCacheNamespace はテンプレートの内容としきい値を含むロゴ検出キャッシュの名前空間を返します。
// テンプレートやしきい値を変更すると別の名前空間になります。
func DetectCacheNamespace(cfg config.Config) string {
	return fmt.Sprintf("detect:%s:t%g:r%g", fileDigest(cfg.TemplatePath), cfg.Thresholds.Template, cfg.Thresholds.Red)
}

func fileDigest(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

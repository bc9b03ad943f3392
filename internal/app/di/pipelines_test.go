package di

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analysis_backend/internal/app/config"
	"analysis_backend/internal/feature/emotion/adapters/throttled"
	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/shared/apperr"
)

func TestNewPipelines_MissingTemplate(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		TemplatePath:      filepath.Join(t.TempDir(), "missing.png"),
		CascadePath:       filepath.Join(t.TempDir(), "missing.xml"),
		EmotionClassifier: config.ClassifierDeepFace,
		Thresholds:        entity.DefaultThresholds(),
	}
	_, err := NewPipelines(context.Background(), cfg)
	assert.ErrorIs(t, err, apperr.ErrStartup)
}

func TestNewEmotionClassifier(t *testing.T) {
	t.Setenv("DEEPFACE_URL", "http://deepface:5000")

	c, closeFn, err := NewEmotionClassifier(context.Background(), config.Config{EmotionClassifier: config.ClassifierDeepFace})
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.NoError(t, closeFn())

	c, _, err = NewEmotionClassifier(context.Background(), config.Config{
		EmotionClassifier: config.ClassifierDeepFace,
		EmotionRateLimit:  30,
	})
	require.NoError(t, err)
	assert.IsType(t, &throttled.ThrottledClassifier{}, c)

	_, _, err = NewEmotionClassifier(context.Background(), config.Config{EmotionClassifier: "tarot"})
	assert.Error(t, err)
}

func TestNewEmotionClassifier_ONNXMissingModel(t *testing.T) {
	t.Setenv("ONNX_MODEL_PATH", filepath.Join(t.TempDir(), "none.onnx"))

	_, _, err := NewEmotionClassifier(context.Background(), config.Config{EmotionClassifier: config.ClassifierONNX})
	assert.ErrorIs(t, err, apperr.ErrStartup)
}

func TestNewObjectStore(t *testing.T) {
	t.Setenv("OBJECT_STORE_PROVIDER", "none")
	store, closeFn, err := NewObjectStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.NoError(t, closeFn())

	t.Setenv("OBJECT_STORE_PROVIDER", "ftp")
	_, _, err = NewObjectStore(context.Background())
	assert.Error(t, err)

	t.Setenv("OBJECT_STORE_PROVIDER", "s3")
	t.Setenv("AWS_REGION", "ap-northeast-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("S3_ENDPOINT_URL", "http://localhost:4566")
	store, _, err = NewObjectStore(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestPipelines_CloseOrder(t *testing.T) {
	t.Parallel()

	var order []int
	boom := errors.New("boom")
	p := &Pipelines{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
	}}
	assert.ErrorIs(t, p.Close(), boom)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, p.Close())
}

func TestCacheNamespaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(a, []byte("logo-a"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("logo-b"), 0o600))

	base := config.Config{TemplatePath: a, Thresholds: entity.DefaultThresholds(), EmotionClassifier: "onnx"}
	other := base
	other.TemplatePath = b
	tuned := base
	tuned.Thresholds.Red = 0.9

	assert.Equal(t, "analyze:onnx", AnalyzeCacheNamespace(base))
	assert.Contains(t, DetectCacheNamespace(base), ":t0.43:r0.8")
	assert.NotEqual(t, DetectCacheNamespace(base), DetectCacheNamespace(other))
	assert.NotEqual(t, DetectCacheNamespace(base), DetectCacheNamespace(tuned))
}

package entity_test

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"analysis_backend/internal/feature/logodetection/domain/entity"
)

type stubImage struct {
	bounds image.Rectangle
	closed int
	err    error
}

func (s *stubImage) Bounds() image.Rectangle { return s.bounds }
func (s *stubImage) Close() error            { s.closed++; return s.err }

func TestDefaultThresholds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, entity.Thresholds{Template: 0.43, Red: 0.8}, entity.DefaultThresholds())
}

func TestTemplate_Accessors(t *testing.T) {
	t.Parallel()

	gray := &stubImage{bounds: image.Rect(0, 0, 10, 10)}
	color := &stubImage{bounds: image.Rect(0, 0, 10, 10)}
	tmpl := entity.NewTemplate(gray, color, []entity.Contour{{image.Pt(0, 0), image.Pt(1, 1)}})

	assert.Same(t, gray, tmpl.Gray())
	assert.Same(t, color, tmpl.Color())
	assert.Len(t, tmpl.RedContours(), 1)
}

func TestTemplate_CloseReleasesBothImages(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	gray := &stubImage{}
	color := &stubImage{err: boom}
	tmpl := entity.NewTemplate(gray, color, nil)

	assert.ErrorIs(t, tmpl.Close(), boom)
	assert.Equal(t, 1, gray.closed)
	assert.Equal(t, 1, color.closed)

	assert.NoError(t, entity.NewTemplate(nil, nil, nil).Close())
}

package imageinput

import (
	"context"
	"errors"
	"fmt"

	"analysis_backend/internal/shared/apperr"
)

// ObjectStore はバケットとキーで指定されたオブジェクトを取得するインターフェースです。
// Goの慣例に従い、インターフェースは利用者側で定義します。
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Source はリクエストから取り出した画像の参照です。
type Source struct {
	ImageData string // Base64またはdata URL
	Bucket    string
	Key       string
}

// Resolver はSourceを画像バイト列に解決します。
type Resolver struct {
	store ObjectStore
}

// NewResolver はResolverを生成します。storeがnilの場合、オブジェクトストレージ参照は拒否されます。
func NewResolver(store ObjectStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve はインライン画像を優先し、なければオブジェクトストレージから取得します。
func (r *Resolver) Resolve(ctx context.Context, src Source) ([]byte, error) {
	if src.ImageData != "" {
		return DecodePayload(src.ImageData)
	}

	switch {
	case src.Bucket == "" && src.Key == "":
		return nil, fmt.Errorf("image_data is required: %w", apperr.ErrInvalidInput)
	case src.Bucket == "" || src.Key == "":
		return nil, fmt.Errorf("bucket and image_key must be given together: %w", apperr.ErrInvalidInput)
	case r.store == nil:
		return nil, fmt.Errorf("object storage is not configured: %w", apperr.ErrInvalidInput)
	}

	data, err := r.store.Get(ctx, src.Bucket, src.Key)
	if err != nil {
		if errors.Is(err, apperr.ErrStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch object %s/%s: %v: %w", src.Bucket, src.Key, err, apperr.ErrStorage)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("object %s/%s is empty: %w", src.Bucket, src.Key, apperr.ErrDecode)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image size exceeds maximum of %d bytes: %w", MaxImageSize, apperr.ErrInvalidInput)
	}
	return data, nil
}

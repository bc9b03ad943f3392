package objectstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/imageinput"
)

// GCSStore はGoogle Cloud Storageから画像を取得します。
type GCSStore struct {
	client *storage.Client
}

// GCSStoreがObjectStoreを実装していることをコンパイル時に検証します。
var _ imageinput.ObjectStore = (*GCSStore)(nil)

// NewGCSStore はADCを使用してGCSStoreを生成します。
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Close はクライアントを解放します。
func (g *GCSStore) Close() error {
	return g.client.Close()
}

// Get はオブジェクトを読み込みます。
func (g *GCSStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s not found: %w", bucket, key, apperr.ErrStorage)
		}
		return nil, fmt.Errorf("gcs new reader: %v: %w", err, apperr.ErrStorage)
	}
	defer r.Close()

	return readLimited(r)
}

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/imageinput"
)

// S3API はs3.Clientのうち本パッケージが使用するメソッドです。
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store はAmazon S3（または互換ストレージ）から画像を取得します。
type S3Store struct {
	client S3API
}

// S3StoreがObjectStoreを実装していることをコンパイル時に検証します。
var _ imageinput.ObjectStore = (*S3Store)(nil)

// NewS3Store は既存のクライアントからS3Storeを生成します。
func NewS3Store(client S3API) *S3Store {
	return &S3Store{client: client}
}

// NewS3StoreFromConfig はAWS既定の認証チェーンでS3クライアントを構築します。
// アクセスキーが設定されている場合は静的な認証情報を、Endpointが設定されている場合はパススタイルで接続します。
func NewS3StoreFromConfig(ctx context.Context, cfg Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Store(client), nil
}

// Get はオブジェクトを読み込みます。MaxImageSizeを超える場合は超過分を読まずに返します。
func (s *S3Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s not found: %w", bucket, key, apperr.ErrStorage)
		}
		return nil, fmt.Errorf("s3 get object: %v: %w", err, apperr.ErrStorage)
	}
	defer out.Body.Close()

	return readLimited(out.Body)
}

// readLimited はMaxImageSize+1バイトまで読み込みます。上限判定は呼び出し側で行います。
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, imageinput.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object body: %v: %w", err, apperr.ErrStorage)
	}
	return data, nil
}

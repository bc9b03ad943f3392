// Package objectstore はバケットとキーで画像を取得するオブジェクトストレージクライアントを提供します。
package objectstore

import "os"

// サポートするプロバイダ名です。
const (
	ProviderS3   = "s3"
	ProviderGCS  = "gcs"
	ProviderNone = "none"
)

// Config はオブジェクトストレージの設定です。
type Config struct {
	Provider        string
	Endpoint        string // S3互換エンドポイント（localstack等）。空の場合はAWS既定
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// LoadConfig は環境変数からオブジェクトストレージの設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		Provider:        os.Getenv("OBJECT_STORE_PROVIDER"),
		Endpoint:        os.Getenv("S3_ENDPOINT_URL"),
		Region:          os.Getenv("AWS_REGION"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderS3
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return cfg
}

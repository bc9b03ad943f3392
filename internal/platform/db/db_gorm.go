// Package db はデータベース接続（GORM）の生成を提供します。
// 接続はreadinessプローブの依存先として利用されます。
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// サポートするドライバ名です。
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// DefaultConnectTimeout は起動時の接続リトライを打ち切るまでの時間です。
const DefaultConnectTimeout = 60 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	Driver       string
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	InstanceName string // Cloud SQL の接続名（設定時はUnixソケット接続）
	SQLitePath   string
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:       os.Getenv("DB_DRIVER"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:   os.Getenv("DB_SQLITE_PATH"),
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverMySQL
	}
	return cfg
}

// Enabled はデータベース接続が設定されているかを返します。
func (c Config) Enabled() bool {
	switch c.Driver {
	case DriverSQLite:
		return c.SQLitePath != ""
	default:
		return c.Name != "" && (c.Host != "" || c.InstanceName != "")
	}
}

// BuildDSN はMySQL用のDSN文字列を生成します。InstanceNameが設定されている場合はCloud SQLのUnixソケットを優先します。
func BuildDSN(cfg Config) string {
	if cfg.InstanceName != "" {
		return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
}

// BuildPostgresDSN はPostgreSQL用のDSN文字列を生成します。
func BuildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if cfg.InstanceName != "" {
		host = "/cloudsql/" + cfg.InstanceName
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable", host, cfg.User, cfg.Password, cfg.Name)
	if cfg.Port != "" && cfg.InstanceName == "" {
		dsn += " port=" + cfg.Port
	}
	return dsn
}

// Opener は指定されたドライバのGORMオープン関数を返します。
func Opener(driver string) (func(dsn string) (*gorm.DB, error), error) {
	var dialect func(string) gorm.Dialector
	switch driver {
	case DriverMySQL, "":
		dialect = gmysql.Open
	case DriverPostgres:
		dialect = postgres.Open
	case DriverSQLite:
		dialect = sqlite.Open
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	return func(dsn string) (*gorm.DB, error) {
		return gorm.Open(dialect(dsn), &gorm.Config{})
	}, nil
}

// DSN は設定されたドライバに応じたDSNを返します。
func DSN(cfg Config) string {
	switch cfg.Driver {
	case DriverPostgres:
		return BuildPostgresDSN(cfg)
	case DriverSQLite:
		return cfg.SQLitePath
	default:
		return BuildDSN(cfg)
	}
}

// ConnectWithRetry はtimeoutに達するまで一定間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener func(string) (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従ってデータベースへ接続します。
func OpenDB(cfg Config, timeout time.Duration) (*gorm.DB, error) {
	opener, err := Opener(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(DSN(cfg), timeout, opener)
	if err != nil {
		return nil, err
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)
	return db, nil
}

// Pinger はGORM接続の疎通を確認します。
type Pinger struct {
	db *gorm.DB
}

// NewPinger は新しいPingerを生成します。
func NewPinger(db *gorm.DB) *Pinger {
	return &Pinger{db: db}
}

// Ping は基盤の*sql.DBへPingします。
func (p *Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Package logging はプロセス全体で使用するslogロガーを構築します。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel は "debug", "info", "warn", "error" をslog.Levelに変換します。未知の値はInfoです。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger は指定された形式（json または text）でwへ出力するロガーを生成します。
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// New は標準エラー出力へのロガーを生成し、slogのデフォルトに設定します。
func New(level, format string) *slog.Logger {
	logger := NewLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

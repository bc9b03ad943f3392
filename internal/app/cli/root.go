// Package cli はローカル画像に対してロゴ検出と感情分析を実行するコマンドラインツールを提供します。
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"analysis_backend/internal/app/config"
	"analysis_backend/internal/platform/logging"
)

// Version はアプリケーションのバージョンです。
const Version = "0.1.0"

// options はサブコマンド間で共有されるフラグと設定です。
type options struct {
	templatePath string
	cascadePath  string
	classifier   string
	jsonOutput   bool
	quiet        bool

	cfg config.Config
}

// NewRootCmd はvisionctlのコマンドツリーを生成します。
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "visionctl",
		Short:         "Logo detection and facial emotion analysis for local images",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&opts.templatePath, "template", "", "logo template image (default: $LOGO_TEMPLATE_PATH or ./logo.png)")
	root.PersistentFlags().StringVar(&opts.cascadePath, "cascade", "", "Haar cascade XML (default: $FACE_CASCADE_PATH)")
	root.PersistentFlags().StringVar(&opts.classifier, "classifier", "", "emotion classifier: deepface, vision, gemini or onnx")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print one JSON object per image")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")

	root.AddCommand(newDetectCmd(opts), newAnalyzeCmd(opts), newCacheCmd(), newVersionCmd())
	return root
}

// load は.envと環境変数を読み込み、フラグで上書きします。
func (o *options) load(cmd *cobra.Command) error {
	_ = godotenv.Load(".env")

	if o.classifier != "" {
		if err := os.Setenv("EMOTION_CLASSIFIER", o.classifier); err != nil {
			return err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if o.templatePath != "" {
		cfg.TemplatePath = o.templatePath
	}
	if o.cascadePath != "" {
		cfg.CascadePath = o.cascadePath
	}
	o.cfg = cfg

	slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, "text"))
	return nil
}

// progressWriter は進捗バーの出力先を返します。
func (o *options) progressWriter(cmd *cobra.Command) io.Writer {
	if o.quiet {
		return io.Discard
	}
	return cmd.ErrOrStderr()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// 設定の読み込みは不要
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// Execute はシグナルでキャンセルされるコンテキストでコマンドを実行します。
func Execute() {
	// Ctrl+C（SIGINT）またはSIGTERMでキャンセルされるコンテキストを作成します
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
)

// imageExts はディレクトリ走査時に対象とする拡張子です。
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// result は1画像分の処理結果です。
type result struct {
	Path            string             `json:"path"`
	LogoDetected    *bool              `json:"logo_detected,omitempty"`
	Correlation     *float64           `json:"correlation,omitempty"`
	Similarity      *float64           `json:"similarity,omitempty"`
	DominantEmotion *string            `json:"dominant_emotion,omitempty"`
	Emotions        map[string]float64 `json:"emotions,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// collectFiles は引数のファイルをそのまま、ディレクトリは配下の画像ファイルを列挙します。
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imageExts[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found")
	}
	return files, nil
}

// runBatch は各ファイルにfnを適用し、進捗を表示します。個々の失敗は結果に記録して処理を続けます。
func runBatch(ctx context.Context, files []string, desc string, progress io.Writer, fn func(ctx context.Context, data []byte) (result, error)) ([]result, error) {
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
	)

	out := make([]result, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		r := result{Path: path}
		data, err := os.ReadFile(path)
		if err == nil {
			r, err = fn(ctx, data)
			r.Path = path
		}
		if err != nil {
			r.Error = err.Error()
		}
		out = append(out, r)
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(progress)
	return out, nil
}

// writeResults は結果をJSON Lines、またはタブ区切りの表で出力します。
func writeResults(w io.Writer, results []result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRESULT\tDETAIL")
	fmt.Fprintln(tw, "----\t------\t------")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Path, summary(r), detail(r))
	}
	return tw.Flush()
}

func summary(r result) string {
	switch {
	case r.Error != "":
		return "error"
	case r.LogoDetected != nil:
		if *r.LogoDetected {
			return "logo"
		}
		return "no logo"
	case r.DominantEmotion != nil:
		if *r.DominantEmotion == "" {
			return "-"
		}
		return *r.DominantEmotion
	}
	return ""
}

func detail(r result) string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Correlation != nil:
		s := fmt.Sprintf("correlation=%.3f", *r.Correlation)
		if r.Similarity != nil {
			s += fmt.Sprintf(" similarity=%.3f", *r.Similarity)
		}
		return s
	case len(r.Emotions) > 0:
		labels := make([]string, 0, len(r.Emotions))
		for label := range r.Emotions {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		parts := make([]string, 0, len(labels))
		for _, label := range labels {
			parts = append(parts, fmt.Sprintf("%s=%.1f", label, r.Emotions[label]))
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// failed は失敗した件数を返します。
func failed(results []result) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}

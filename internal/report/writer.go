// Package report writes a finished campaign to a folder of summary files in
// the configured formats.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
)

// Format is an output format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatText   Format = "txt"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

var knownFormats = map[Format]bool{
	FormatJSON: true, FormatCSV: true, FormatText: true, FormatXLSX: true, FormatSQLite: true,
}

// Config is the export section of the application config.
type Config struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"`
}

// Writer writes campaign folders under a base directory.
type Writer struct {
	dir     string
	formats []Format
}

// New validates cfg and creates a Writer.
func New(cfg Config) (*Writer, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, &model.ConfigurationError{Field: "export.dir", Reason: "must not be blank"}
	}
	if len(cfg.Formats) == 0 {
		return nil, &model.ConfigurationError{Field: "export.formats", Reason: "must name at least one format"}
	}
	w := &Writer{dir: cfg.Dir}
	seen := make(map[Format]bool)
	for _, f := range cfg.Formats {
		format := Format(strings.ToLower(strings.TrimSpace(f)))
		if !knownFormats[format] {
			return nil, &model.ConfigurationError{Field: "export.formats", Reason: fmt.Sprintf("unknown format %q", f)}
		}
		if !seen[format] {
			seen[format] = true
			w.formats = append(w.formats, format)
		}
	}
	return w, nil
}

// Formats returns the enabled formats in configured order.
func (w *Writer) Formats() []Format { return w.formats }

// Write creates the campaign folder and every enabled file in it, returning
// the folder path. statistics.json is always written.
func (w *Writer) Write(ctx context.Context, r *model.CampaignResult) (string, error) {
	folder := filepath.Join(w.dir, FolderName(r.Query, r.StartedAt))
	if _, err := os.Stat(folder); err == nil && r.RunID != "" {
		folder += "_" + shortID(r.RunID)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create folder %s", folder)
	}

	rep := newCampaignReport(r)
	if err := writeJSON(filepath.Join(folder, "statistics.json"), rep.statistics()); err != nil {
		return "", err
	}

	for _, f := range w.formats {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "report: cancelled")
		}
		var err error
		switch f {
		case FormatJSON:
			err = writeJSONFiles(folder, rep)
		case FormatCSV:
			err = writeCSVFiles(folder, rep)
		case FormatText:
			err = writeText(filepath.Join(folder, "summary.txt"), rep)
		case FormatXLSX:
			err = writeXLSX(filepath.Join(folder, "campaign.xlsx"), rep)
		case FormatSQLite:
			err = writeSQLite(ctx, filepath.Join(folder, "campaign.db"), rep)
		}
		if err != nil {
			return "", err
		}
	}

	zap.L().Info("report: campaign written",
		zap.String("run_id", r.RunID),
		zap.String("path", folder),
		zap.Int("businesses", len(r.Entities)),
	)
	return folder, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

// FolderName names a campaign folder industry_location_timestamp.
func FolderName(q model.Query, started time.Time) string {
	return fmt.Sprintf("%s_%s_%s", slug(q.Industry), slug(q.Location), started.UTC().Format("20060102_150405"))
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// businessDir names one business's folder, prefixed with its position so
// names never collide.
func businessDir(i int, name string) string {
	return fmt.Sprintf("%02d_%s", i+1, slug(name))
}

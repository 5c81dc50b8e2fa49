package transfer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Importer reads export files back into the editor state.
type Importer struct {
	applier Applier
	logger  *slog.Logger
	metrics Metrics
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithImportMetrics sets the metrics sink.
func WithImportMetrics(m Metrics) ImporterOption {
	return func(i *Importer) { i.metrics = m }
}

// NewImporter creates an Importer.
func NewImporter(applier Applier, logger *slog.Logger, opts ...ImporterOption) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Importer{
		applier: applier,
		logger:  logger.With("component", "importer"),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import parses r and applies it. It reports whether the state was
// replaced; failures are logged.
func (i *Importer) Import(ctx context.Context, r io.Reader) bool {
	s, err := Decode(r)
	if err != nil {
		i.fail("parse backup failed", err)
		return false
	}
	if err := i.applier.Apply(ctx, &s); err != nil {
		i.fail("import backup failed", err)
		return false
	}

	i.metrics.ImportFinished(true)
	i.logger.Info("backup imported",
		"backup_time", s.BackupTime,
		"backup_version", s.BackupVersion,
		"documents", len(s.Documents))
	return true
}

// ImportFile imports the export file at path. An empty path means the
// user picked nothing; only .json files are accepted.
func (i *Importer) ImportFile(ctx context.Context, path string) bool {
	if path == "" {
		i.logger.Debug("import canceled")
		return false
	}
	if !strings.EqualFold(filepath.Ext(path), FileExt) {
		i.logger.Warn("import rejected, not a .json file", "path", path)
		i.metrics.ImportFinished(false)
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		i.fail("open backup file failed", err)
		return false
	}
	defer f.Close()

	return i.Import(ctx, f)
}

func (i *Importer) fail(msg string, err error) {
	i.metrics.ImportFinished(false)
	i.logger.Error(msg, "error", err)
}

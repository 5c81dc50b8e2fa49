package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// Exporter writes the current editor state to export files.
type Exporter struct {
	capturer Capturer
	now      func() time.Time
	logger   *slog.Logger
	metrics  Metrics
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithClock sets the clock used for export file names.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// WithExportMetrics sets the metrics sink.
func WithExportMetrics(m Metrics) ExporterOption {
	return func(e *Exporter) { e.metrics = m }
}

// NewExporter creates an Exporter.
func NewExporter(capturer Capturer, logger *slog.Logger, opts ...ExporterOption) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		capturer: capturer,
		now:      time.Now,
		logger:   logger.With("component", "exporter"),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export captures the editor state and writes it to w. It returns the
// file name the export should be saved under.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (string, error) {
	s := e.capturer.Capture(ctx)

	var buf bytes.Buffer
	if err := Encode(&buf, &s); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	name := Filename(e.now())
	e.metrics.ExportFinished()
	e.logger.Info("state exported", "filename", name, "documents", len(s.Documents))
	return name, nil
}

// ExportToDir writes an export file into dir and returns its path. The
// file appears complete or not at all. An existing file is never replaced;
// a name clash returns domain.ErrExportExists.
func (e *Exporter) ExportToDir(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".md-backup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	name, err := e.Export(ctx, tmp)
	if err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", domain.ErrExportExists.WithDetails(name)
		}
		return "", fmt.Errorf("link export: %w", err)
	}
	return path, nil
}

// ExportFile describes an export file on disk.
type ExportFile struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ListExports returns the export files in dir, newest first. A missing
// directory has no exports.
func ListExports(dir string) ([]ExportFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []ExportFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export dir: %w", err)
	}

	files := []ExportFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, ExportFile{
			Name:      entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: created,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.After(files[j].CreatedAt)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

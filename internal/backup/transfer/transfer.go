// Package transfer moves snapshots between the editor state and portable
// JSON files.
//
// An export file is a single snapshot object, UTF-8, indented with two
// spaces, named md-backup-<yyyy-MM-dd-HHmmss>.json in local time.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
)

// FileExt is the only extension accepted for import files.
const FileExt = ".json"

// filenamePrefix and filenameLayout build export file names.
const (
	filenamePrefix = "md-backup-"
	filenameLayout = "2006-01-02-150405"
)

// MaxImportSize caps the size of an import body.
const MaxImportSize = 64 << 20

// Capturer captures the current editor state. *backup.Service implements it.
type Capturer interface {
	Capture(ctx context.Context) domain.Snapshot
}

// Applier writes a snapshot into the editor state. *backup.Service
// implements it.
type Applier interface {
	Apply(ctx context.Context, s *domain.Snapshot) error
}

// Metrics records transfer activity. *metric.Registry implements it.
type Metrics interface {
	ExportFinished()
	ImportFinished(ok bool)
}

type nopMetrics struct{}

func (nopMetrics) ExportFinished()     {}
func (nopMetrics) ImportFinished(bool) {}

// Filename returns the export file name for t.
func Filename(t time.Time) string {
	return filenamePrefix + t.Local().Format(filenameLayout) + FileExt
}

// parseFilename returns the timestamp embedded in an export file name.
func parseFilename(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filenamePrefix) || !strings.HasSuffix(name, FileExt) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, filenamePrefix), FileExt)
	t, err := time.ParseInLocation(filenameLayout, ts, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Encode writes s as indented JSON.
func Encode(w io.Writer, s *domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

// Decode parses a snapshot. Syntax errors and oversized input are
// validation errors; section presence is checked by the applier.
func Decode(r io.Reader) (domain.Snapshot, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return domain.Snapshot{}, domain.ErrValidation.WithDetails("read backup").WithCause(err)
	}
	if len(data) > MaxImportSize {
		return domain.Snapshot{}, domain.ErrValidation.WithDetails(
			fmt.Sprintf("backup larger than %d bytes", MaxImportSize))
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var s domain.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Snapshot{}, domain.ErrValidation.WithDetails("invalid JSON").WithCause(err)
	}
	return s, nil
}

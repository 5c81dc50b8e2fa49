// Package domain defines the core domain models for mdkeep.
package domain

import "time"

// BackupVersion is the schema version written into every captured snapshot.
const BackupVersion = "1.0.0"

// TimeLayout is the ISO-8601 layout used for backup timestamps
// (UTC, millisecond precision, e.g. 2024-05-01T08:30:00.000Z).
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime formats t as a backup timestamp.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a backup timestamp. Any RFC 3339 value is accepted.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Snapshot is a captured copy of the editor state.
//
// A nil Documents, StyleConfig or Settings means the section is absent;
// an empty slice or zero-value struct is present. Snapshots are values:
// once captured they are never modified.
type Snapshot struct {
	Documents     []Document   `json:"posts"`
	StyleConfig   *StyleConfig `json:"cssContentConfig"`
	Settings      *Settings    `json:"settings"`
	BackupTime    string       `json:"backupTime"`
	BackupVersion string       `json:"backupVersion"`
}

// Document is one markdown document with its edit history.
type Document struct {
	Title   string         `json:"title"`
	Content string         `json:"content"`
	History []HistoryEntry `json:"history"`
}

// HistoryEntry is one saved version of a document's content.
type HistoryEntry struct {
	Datetime string `json:"datetime"`
	Content  string `json:"content"`
}

// StyleConfig holds the named custom CSS variants and the active one.
type StyleConfig struct {
	Active string     `json:"active"`
	Tabs   []StyleTab `json:"tabs"`
}

// StyleTab is one named CSS variant.
type StyleTab struct {
	Title   string `json:"title"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Settings holds the editor's scalar preferences.
type Settings struct {
	Theme          string `json:"theme"`
	FontFamily     string `json:"fontFamily"`
	FontSize       string `json:"fontSize"`
	PrimaryColor   string `json:"primaryColor"`
	CodeBlockTheme string `json:"codeBlockTheme"`
	Legend         string `json:"legend"`
	IsMacCodeBlock bool   `json:"isMacCodeBlock"`
	IsCiteStatus   bool   `json:"isCiteStatus"`
	IsCountStatus  bool   `json:"isCountStatus"`
	IsUseIndent    bool   `json:"isUseIndent"`
	IsEditOnLeft   bool   `json:"isEditOnLeft"`
}

// MissingSections returns the JSON names of absent sections, in
// declaration order. An empty result means the snapshot can be applied.
func (s *Snapshot) MissingSections() []string {
	if s == nil {
		return []string{"posts", "cssContentConfig", "settings"}
	}
	var missing []string
	if s.Documents == nil {
		missing = append(missing, "posts")
	}
	if s.StyleConfig == nil {
		missing = append(missing, "cssContentConfig")
	}
	if s.Settings == nil {
		missing = append(missing, "settings")
	}
	return missing
}

// SnapshotRecord is the full payload row stored per backup.
//
// Time duplicates Data.BackupTime so records can be indexed without
// decoding the payload.
type SnapshotRecord struct {
	ID   string   `json:"id"`
	Data Snapshot `json:"data"`
	Time string   `json:"time"`
}

// IndexEntry is the lightweight listing row stored per backup.
type IndexEntry struct {
	ID   string `json:"id"`
	Time string `json:"time"`
	Note string `json:"note"`
}

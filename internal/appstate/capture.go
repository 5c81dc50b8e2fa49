package appstate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage"
)

// Options configures Capture and Apply.
type Options struct {
	// KeyPrefix namespaces prefixed keys. Default: "MD".
	KeyPrefix string

	// Now is the capture clock. Default: time.Now.
	Now func() time.Time

	// StrictVersion makes Apply reject snapshots whose backupVersion is
	// not domain.BackupVersion.
	StrictVersion bool

	// Logger receives read failures. Default: slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Capture reads the editor state from kv. It never fails: absent or
// malformed entries become empty values and read errors are logged and
// treated as absent.
func Capture(ctx context.Context, kv storage.KVStore, opts Options) domain.Snapshot {
	opts = opts.withDefaults()
	keys := KeysFor(opts.KeyPrefix)
	r := reader{ctx: ctx, kv: kv, logger: opts.Logger}

	documents := []domain.Document{}
	decode(r, keys.Posts, &documents)
	if documents == nil {
		// "null" decodes to a nil slice.
		documents = []domain.Document{}
	}

	style := &domain.StyleConfig{}
	decode(r, keys.StyleConfig, style)

	return domain.Snapshot{
		Documents:   documents,
		StyleConfig: style,
		Settings: &domain.Settings{
			Theme:          r.text(keys.Theme),
			FontFamily:     r.text(keys.FontFamily),
			FontSize:       r.text(keys.FontSize),
			PrimaryColor:   r.text(keys.PrimaryColor),
			CodeBlockTheme: r.text(keys.CodeBlockTheme),
			Legend:         r.text(keys.Legend),
			IsMacCodeBlock: r.flag(keys.IsMacCodeBlock),
			IsCiteStatus:   r.flag(keys.IsCiteStatus),
			IsCountStatus:  r.flag(keys.IsCountStatus),
			IsUseIndent:    r.flag(keys.IsUseIndent),
			IsEditOnLeft:   r.flag(keys.IsEditOnLeft),
		},
		BackupTime:    domain.FormatTime(opts.Now()),
		BackupVersion: domain.BackupVersion,
	}
}

type reader struct {
	ctx    context.Context
	kv     storage.KVStore
	logger *slog.Logger
}

func (r reader) text(key string) string {
	v, ok, err := r.kv.Get(r.ctx, key)
	if err != nil {
		r.logger.Warn("state read failed, treating as absent", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (r reader) flag(key string) bool {
	return r.text(key) == "true"
}

// decode reads the JSON entry under key into dst. dst keeps its initial
// value when the entry is absent, empty or malformed.
func decode[T any](r reader, key string, dst *T) {
	raw := r.text(key)
	if raw == "" {
		return
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		r.logger.Warn("malformed state entry, using empty value", "key", key, "error", err)
		return
	}
	*dst = v
}

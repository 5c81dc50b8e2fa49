package appstate

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage"
)

// Validate checks that s can be applied.
func Validate(s *domain.Snapshot, strictVersion bool) error {
	if missing := s.MissingSections(); len(missing) > 0 {
		return domain.ErrValidation.WithDetails("missing " + strings.Join(missing, ", "))
	}
	if strictVersion && s.BackupVersion != domain.BackupVersion {
		return domain.ErrVersionMismatch.WithDetails(
			"got " + strconv.Quote(s.BackupVersion) + ", want " + strconv.Quote(domain.BackupVersion))
	}
	return nil
}

// Apply overwrites every tracked key in kv with the contents of s.
//
// Nothing is written when s fails validation. Writes are not atomic: a
// store failure mid-way is returned as a storage error and leaves the keys
// written so far in place.
func Apply(ctx context.Context, kv storage.KVStore, s *domain.Snapshot, opts Options) error {
	opts = opts.withDefaults()
	if err := Validate(s, opts.StrictVersion); err != nil {
		return err
	}

	posts, err := json.Marshal(s.Documents)
	if err != nil {
		return domain.ErrValidation.WithDetails("encode posts").WithCause(err)
	}
	style, err := json.Marshal(s.StyleConfig)
	if err != nil {
		return domain.ErrValidation.WithDetails("encode cssContentConfig").WithCause(err)
	}

	keys := KeysFor(opts.KeyPrefix)
	st := s.Settings
	writes := []struct{ key, value string }{
		{keys.Posts, string(posts)},
		{keys.StyleConfig, string(style)},
		{keys.Theme, st.Theme},
		{keys.FontFamily, st.FontFamily},
		{keys.FontSize, st.FontSize},
		{keys.PrimaryColor, st.PrimaryColor},
		{keys.CodeBlockTheme, st.CodeBlockTheme},
		{keys.Legend, st.Legend},
		{keys.IsMacCodeBlock, strconv.FormatBool(st.IsMacCodeBlock)},
		{keys.IsCiteStatus, strconv.FormatBool(st.IsCiteStatus)},
		{keys.IsCountStatus, strconv.FormatBool(st.IsCountStatus)},
		{keys.IsUseIndent, strconv.FormatBool(st.IsUseIndent)},
		{keys.IsEditOnLeft, strconv.FormatBool(st.IsEditOnLeft)},
	}

	for i, w := range writes {
		if err := kv.Set(ctx, w.key, w.value); err != nil {
			opts.Logger.Error("state write failed, state is partially applied",
				"key", w.key, "written", i, "total", len(writes), "error", err)
			return domain.ErrStorage.WithDetails("write " + w.key).WithCause(err)
		}
	}
	return nil
}

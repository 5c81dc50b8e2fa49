// Package backupdb stores backup snapshots and their index entries in an
// embedded Badger database.
//
// Key layout:
//
//	meta/schema_version          "1"
//	backups/<id>                 JSON SnapshotRecord (sealed when a Sealer is set)
//	backups_time/<time>/<id>     empty; secondary index on time
//	backups_list/<id>            JSON IndexEntry
//
// A record, its time index key and its index entry are always written and
// deleted in the same transaction.
package backupdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage"
	"github.com/yndnr/mdkeep-go/pkg/crypto/adaptive"
)

// SchemaVersion is the layout version this package reads and writes.
const SchemaVersion = 1

const (
	keySchemaVersion = "meta/schema_version"
	prefixRecord     = "backups/"
	prefixTime       = "backups_time/"
	prefixList       = "backups_list/"
)

// Options configures a DB.
type Options struct {
	// Dir is the Badger directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the database in memory (tests, ephemeral mode).
	InMemory bool

	// Badger tuning. Zero value means storage.DefaultBadgerConfig().
	Badger storage.BadgerConfig

	// Sealer encrypts records at rest when non-nil.
	Sealer *adaptive.Sealer

	// Registerer receives the engine's size metrics when non-nil.
	Registerer prometheus.Registerer

	// Now overrides the clock used for records without a valid time.
	Now func() time.Time
}

// DB is the backup database gateway. It opens lazily: every operation
// calls Open first.
type DB struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	engine *storage.BadgerEngine

	// metricsRegistered is set once the first engine registered its
	// gauges; a reopened engine runs without them.
	metricsRegistered bool
}

// New creates a DB. Nothing touches the disk until Open.
func New(opts Options, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Badger == (storage.BadgerConfig{}) {
		opts.Badger = storage.DefaultBadgerConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DB{opts: opts, logger: logger}
}

// Open opens the database and checks its schema version. It is safe to
// call repeatedly and from multiple goroutines; only the first call does
// any work.
func (d *DB) Open(ctx context.Context) error {
	_, err := d.open(ctx)
	return err
}

func (d *DB) open(ctx context.Context) (*storage.BadgerEngine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine != nil {
		return d.engine, nil
	}

	cfg := storage.KVConfig{
		Name:     "backups",
		Dir:      d.opts.Dir,
		InMemory: d.opts.InMemory,
		Badger:   d.opts.Badger,
	}
	engine, err := storage.NewBadgerEngine(cfg, d.logger)
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("open backup database").WithCause(err)
	}

	if err := migrate(ctx, engine); err != nil {
		engine.Close()
		return nil, err
	}

	if d.opts.Registerer != nil && !d.metricsRegistered {
		engine.RegisterMetrics(d.opts.Registerer)
		d.metricsRegistered = true
	}

	d.engine = engine
	return engine, nil
}

// migrate stamps a fresh database with SchemaVersion and rejects
// databases written by a newer layout.
func migrate(ctx context.Context, engine *storage.BadgerEngine) error {
	return engine.Update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(strconv.Itoa(SchemaVersion)))
		}
		if err != nil {
			return domain.ErrStorage.WithDetails("read schema version").WithCause(err)
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return domain.ErrStorage.WithDetails("read schema version").WithCause(err)
		}
		version, err := strconv.Atoi(string(raw))
		if err != nil {
			return domain.ErrStorage.WithDetails(fmt.Sprintf("invalid schema version %q", raw))
		}
		if version > SchemaVersion {
			return domain.ErrStorage.WithDetails(
				fmt.Sprintf("schema version %d is newer than supported version %d", version, SchemaVersion))
		}
		return nil
	})
}

// Close closes the database. A later operation reopens it.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine == nil {
		return nil
	}
	err := d.engine.Close()
	d.engine = nil
	return err
}

// CreateBackup stores payload with note and returns the new backup id.
func (d *DB) CreateBackup(ctx context.Context, payload domain.Snapshot, note string) (string, error) {
	engine, err := d.open(ctx)
	if err != nil {
		return "", err
	}

	now := d.opts.Now()
	id, err := domain.GenerateBackupID(now)
	if err != nil {
		return "", err
	}

	ts := normalizeTime(payload.BackupTime, now)
	record := domain.SnapshotRecord{ID: id, Data: payload, Time: ts}
	entry := domain.IndexEntry{ID: id, Time: ts, Note: note}

	recordBytes, err := d.encodeRecord(&record)
	if err != nil {
		return "", err
	}
	entryBytes, err := json.Marshal(&entry)
	if err != nil {
		return "", domain.ErrStorage.WithDetails("encode index entry").WithCause(err)
	}

	err = engine.Update(ctx, func(txn *badger.Txn) error {
		for _, key := range [][]byte{recordKey(id), listKey(id)} {
			_, err := txn.Get(key)
			if err == nil {
				return domain.ErrConflict.WithDetails(id)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		if err := txn.Set(recordKey(id), recordBytes); err != nil {
			return err
		}
		if err := txn.Set(timeKey(ts, id), nil); err != nil {
			return err
		}
		return txn.Set(listKey(id), entryBytes)
	})
	if err != nil {
		return "", storageErr("create backup", err)
	}

	d.logger.Debug("backup stored", "id", id, "time", ts, "bytes", len(recordBytes))
	return id, nil
}

// ListBackups returns every index entry, newest first. Entries with equal
// times are ordered by id, newest id first.
func (d *DB) ListBackups(ctx context.Context) ([]domain.IndexEntry, error) {
	engine, err := d.open(ctx)
	if err != nil {
		return nil, err
	}

	var entries []domain.IndexEntry
	err = engine.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key not greater than the seek key.
		seek := append([]byte(prefixTime), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(prefixTime)); it.Next() {
			_, id := splitTimeKey(it.Item().Key())

			item, err := txn.Get(listKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var entry domain.IndexEntry
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode index entry %s: %w", id, err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list backups", err)
	}

	return entries, nil
}

// GetBackup returns the snapshot stored under id.
func (d *DB) GetBackup(ctx context.Context, id string) (domain.Snapshot, error) {
	engine, err := d.open(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	var raw []byte
	err = engine.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Snapshot{}, domain.ErrNotFound.WithDetails(id)
	}
	if err != nil {
		return domain.Snapshot{}, storageErr("get backup", err)
	}

	record, err := d.decodeRecord(id, raw)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return record.Data, nil
}

// DeleteBackup removes the record, its time index key and its index entry
// in one transaction. Deleting an absent id is not an error.
func (d *DB) DeleteBackup(ctx context.Context, id string) error {
	engine, err := d.open(ctx)
	if err != nil {
		return err
	}

	err = engine.Update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(listKey(id))
		switch {
		case err == nil:
			var entry domain.IndexEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err == nil {
				if err := txn.Delete(timeKey(entry.Time, id)); err != nil {
					return err
				}
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Delete(recordKey(id)); err != nil {
			return err
		}
		return txn.Delete(listKey(id))
	})
	if err != nil {
		return storageErr("delete backup", err)
	}

	d.logger.Debug("backup deleted", "id", id)
	return nil
}

// Count returns the number of stored backups.
func (d *DB) Count(ctx context.Context) (int, error) {
	engine, err := d.open(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	err = engine.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixList)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, storageErr("count backups", err)
	}
	return n, nil
}

func (d *DB) encodeRecord(record *domain.SnapshotRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("encode snapshot record").WithCause(err)
	}
	if d.opts.Sealer == nil {
		return data, nil
	}
	sealed, err := d.opts.Sealer.Seal(data, []byte(record.ID))
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("seal snapshot record").WithCause(err)
	}
	return sealed, nil
}

func (d *DB) decodeRecord(id string, raw []byte) (*domain.SnapshotRecord, error) {
	if adaptive.IsSealed(raw) {
		if d.opts.Sealer == nil {
			return nil, domain.ErrStorage.WithDetails("backup " + id + " is sealed and no encryption key is configured")
		}
		var err error
		if raw, err = d.opts.Sealer.Open(raw, []byte(id)); err != nil {
			return nil, domain.ErrStorage.WithDetails("open sealed backup " + id).WithCause(err)
		}
	}

	var record domain.SnapshotRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, domain.ErrStorage.WithDetails("decode backup " + id).WithCause(err)
	}
	return &record, nil
}

// normalizeTime re-formats ts in the fixed-width layout so the time index
// sorts chronologically. Unparsable times fall back to now.
func normalizeTime(ts string, now time.Time) string {
	if t, err := domain.ParseTime(ts); err == nil {
		return domain.FormatTime(t)
	}
	return domain.FormatTime(now)
}

func storageErr(op string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.ErrStorage.WithDetails(op).WithCause(err)
}

func recordKey(id string) []byte { return []byte(prefixRecord + id) }
func listKey(id string) []byte   { return []byte(prefixList + id) }

func timeKey(ts, id string) []byte {
	return []byte(prefixTime + ts + "/" + id)
}

// splitTimeKey splits backups_time/<time>/<id>. Ids never contain '/'.
func splitTimeKey(key []byte) (ts, id string) {
	rest := string(key[len(prefixTime):])
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '/' {
			return rest[:i], rest[i+1:]
		}
	}
	return rest, ""
}

package storage

import "context"

// KVStore is the flat key-value storage the editor keeps its state in.
//
// Values are opaque text: JSON documents for structured entries and the
// literal strings "true"/"false" for boolean settings.
//
// Implementations must be safe for concurrent use.
type KVStore interface {
	// Get returns the value stored under key.
	// ok is false when the key is absent; err reports store failures only.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size.
	LSMSize uint64

	// ValueLogSize is the value log size.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRuns is the number of value-log rewrites performed by GC.
	GCRuns uint64
}

// KVConfig configures an embedded Badger engine.
type KVConfig struct {
	// Name labels the engine in logs and metrics ("state", "backups").
	Name string

	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory (tests only).
	InMemory bool

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (run GC when 50% of data is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// NumLevelZeroTables is the number of Level 0 tables before compaction.
	// Default: 5
	NumLevelZeroTables int

	// NumLevelZeroTablesStall is the number of Level 0 tables that triggers write stall.
	// Default: 10
	NumLevelZeroTablesStall int

	// SyncWrites enables sync writes (fsync after each write).
	// Default: true
	SyncWrites bool

	// DetectConflicts enables transaction conflict detection.
	// Default: true
	DetectConflicts bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(name, dir string) KVConfig {
	return KVConfig{
		Name:   name,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
//
// The data set is small (a few documents and at most a handful of
// snapshots), so caches and value log files are sized down.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:              "10m",
		GCThreshold:             0.5,
		CacheSize:               16 << 20, // 16MB
		ValueLogFileSize:        64 << 20, // 64MB
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
		SyncWrites:              true,
		DetectConflicts:         true,
	}
}

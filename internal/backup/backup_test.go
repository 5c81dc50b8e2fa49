package backup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/mdkeep-go/internal/appstate"
	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage/backupdb"
	"github.com/yndnr/mdkeep-go/internal/storage/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingMetrics struct {
	mu       sync.Mutex
	created  int
	failed   []string
	pruned   int
	restored int
}

func (m *recordingMetrics) BackupCreated(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *recordingMetrics) BackupFailed(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, op)
}

func (m *recordingMetrics) BackupPruned() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned++
}

func (m *recordingMetrics) BackupRestored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restored++
}

// failingStore fails every operation with err.
type failingStore struct{ err error }

func (f failingStore) CreateBackup(context.Context, domain.Snapshot, string) (string, error) {
	return "", f.err
}
func (f failingStore) ListBackups(context.Context) ([]domain.IndexEntry, error) { return nil, f.err }
func (f failingStore) GetBackup(context.Context, string) (domain.Snapshot, error) {
	return domain.Snapshot{}, f.err
}
func (f failingStore) DeleteBackup(context.Context, string) error { return f.err }

type fixture struct {
	state   *memory.Store
	db      *backupdb.DB
	svc     *Service
	metrics *recordingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	state := memory.NewWithData(map[string]string{
		"MD__posts": `[{"title":"Welcome","content":"# Hello","history":[]}]`,
		"theme":     "default",
	})
	db := backupdb.New(backupdb.Options{InMemory: true}, quietLogger())
	t.Cleanup(func() { db.Close() })

	m := &recordingMetrics{}
	svc := NewService(state, db, Config{}, quietLogger(), WithMetrics(m))
	return &fixture{state: state, db: db, svc: svc, metrics: m}
}

func TestService_AutoBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AutoBackup(ctx, "manual")
	if err != nil {
		t.Fatalf("AutoBackup() error = %v", err)
	}

	entries := f.svc.ListBackups(ctx)
	if len(entries) != 1 || entries[0].ID != id || entries[0].Note != "manual" {
		t.Fatalf("ListBackups() = %+v", entries)
	}

	snap, err := f.svc.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Documents) != 1 || snap.Documents[0].Title != "Welcome" {
		t.Errorf("stored documents = %+v", snap.Documents)
	}
	if snap.BackupTime != entries[0].Time {
		t.Errorf("BackupTime %s != index time %s", snap.BackupTime, entries[0].Time)
	}
	if f.metrics.created != 1 {
		t.Errorf("created metric = %d", f.metrics.created)
	}
}

func TestService_RetentionKeepsTen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 11; i++ {
		id, err := f.svc.AutoBackup(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	entries := f.svc.ListBackups(ctx)
	if len(entries) != 10 {
		t.Fatalf("len = %d, want 10", len(entries))
	}
	for _, e := range entries {
		if e.ID == ids[0] {
			t.Errorf("oldest backup %s still listed", ids[0])
		}
	}
	if entries[0].ID != ids[10] {
		t.Errorf("newest = %s, want %s", entries[0].ID, ids[10])
	}
	if _, err := f.svc.Get(ctx, ids[0]); !domain.IsNotFound(err) {
		t.Errorf("Get(oldest) error = %v, want not found", err)
	}
	if f.metrics.pruned != 1 {
		t.Errorf("pruned metric = %d, want 1", f.metrics.pruned)
	}
}

func TestService_ListOrderNonIncreasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.svc.AutoBackup(ctx, ""); err != nil {
			t.Fatal(err)
		}
	}

	entries := f.svc.ListBackups(ctx)
	for i := 1; i < len(entries); i++ {
		if entries[i].Time > entries[i-1].Time {
			t.Errorf("entries[%d].Time %s after entries[%d].Time %s",
				i, entries[i].Time, i-1, entries[i-1].Time)
		}
	}
}

func TestService_ListFailOpen(t *testing.T) {
	m := &recordingMetrics{}
	svc := NewService(memory.New(), failingStore{err: errors.New("db gone")}, Config{}, quietLogger(), WithMetrics(m))

	entries := svc.ListBackups(context.Background())
	if entries == nil || len(entries) != 0 {
		t.Errorf("ListBackups() = %#v, want empty", entries)
	}
	if len(m.failed) != 1 || m.failed[0] != "list" {
		t.Errorf("failed metric = %v", m.failed)
	}
}

func TestService_AutoBackupStoreFailure(t *testing.T) {
	boom := domain.ErrStorage.WithDetails("disk full")
	svc := NewService(memory.New(), failingStore{err: boom}, Config{}, quietLogger())

	if _, err := svc.AutoBackup(context.Background(), ""); !domain.IsStorage(err) {
		t.Errorf("AutoBackup() error = %v, want storage error", err)
	}
}

func TestService_Restore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AutoBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	f.state.Set(ctx, "theme", "grace")
	f.state.Set(ctx, "MD__posts", "[]")

	if err := f.svc.Restore(ctx, id); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if v, _, _ := f.state.Get(ctx, "theme"); v != "default" {
		t.Errorf("theme = %q, want default", v)
	}
	snap := f.svc.Capture(ctx)
	if len(snap.Documents) != 1 || snap.Documents[0].Title != "Welcome" {
		t.Errorf("documents after restore = %+v", snap.Documents)
	}
	if f.metrics.restored != 1 {
		t.Errorf("restored metric = %d", f.metrics.restored)
	}
}

func TestService_RestoreUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.state.Snapshot()

	err := f.svc.Restore(ctx, "backup_01arz3ndektsv4rrffq69g5fav")
	if !domain.IsNotFound(err) {
		t.Errorf("Restore() error = %v, want not found", err)
	}
	if len(f.state.Snapshot()) != len(before) {
		t.Error("state changed on failed restore")
	}
}

func TestService_RestoreStrictVersion(t *testing.T) {
	state := memory.New()
	db := backupdb.New(backupdb.Options{InMemory: true}, quietLogger())
	defer db.Close()
	ctx := context.Background()

	snap := appstate.Capture(ctx, state, appstate.Options{})
	snap.BackupVersion = "0.9.0"
	id, err := db.CreateBackup(ctx, snap, "")
	if err != nil {
		t.Fatal(err)
	}

	svc := NewService(state, db, Config{State: appstate.Options{StrictVersion: true}}, quietLogger())
	if err := svc.Restore(ctx, id); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Errorf("Restore() error = %v, want ErrVersionMismatch", err)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AutoBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Get(ctx, id); !domain.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v", err)
	}
	if len(f.svc.ListBackups(ctx)) != 0 {
		t.Error("expected empty list after delete")
	}
}

func TestService_ConcurrentAutoBackupKeepsBound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.AutoBackup(ctx, "")
		}()
	}
	wg.Wait()

	if n := len(f.svc.ListBackups(ctx)); n != DefaultMaxBackups {
		t.Errorf("stored = %d, want %d", n, DefaultMaxBackups)
	}
}

package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yndnr/mdkeep-go/internal/core/domain"
	"github.com/yndnr/mdkeep-go/internal/storage/backupdb"
)

func TestRetention_Enforce(t *testing.T) {
	tests := []struct {
		name        string
		stored      int
		max         int
		wantRemoved bool
		wantLeft    int
	}{
		{"empty", 0, 3, false, 0},
		{"below bound", 2, 3, false, 2},
		{"at bound", 3, 3, false, 3},
		{"one over", 4, 3, true, 3},
		{"two over removes one", 5, 3, true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := backupdb.New(backupdb.Options{InMemory: true}, quietLogger())
			defer db.Close()
			ctx := context.Background()

			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			var first string
			for i := 0; i < tt.stored; i++ {
				snap := domain.Snapshot{BackupTime: domain.FormatTime(base.Add(time.Duration(i) * time.Minute))}
				id, err := db.CreateBackup(ctx, snap, "")
				if err != nil {
					t.Fatal(err)
				}
				if i == 0 {
					first = id
				}
			}

			r := NewRetention(db, tt.max, quietLogger())
			removed, err := r.Enforce(ctx)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if (removed != "") != tt.wantRemoved {
				t.Errorf("removed = %q, wantRemoved %v", removed, tt.wantRemoved)
			}
			if tt.wantRemoved && removed != first {
				t.Errorf("removed = %s, want oldest %s", removed, first)
			}

			n, _ := db.Count(ctx)
			if n != tt.wantLeft {
				t.Errorf("left = %d, want %d", n, tt.wantLeft)
			}
		})
	}
}

func TestRetention_ListFailure(t *testing.T) {
	r := NewRetention(failingStore{err: errors.New("boom")}, 10, quietLogger())
	if _, err := r.Enforce(context.Background()); err == nil {
		t.Error("Enforce() should fail when listing fails")
	}
}

func TestNewRetention_Default(t *testing.T) {
	if got := NewRetention(failingStore{}, 0, nil).MaxBackups(); got != DefaultMaxBackups {
		t.Errorf("MaxBackups() = %d, want %d", got, DefaultMaxBackups)
	}
}

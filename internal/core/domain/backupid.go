package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// BackupIDPrefix prefixes every backup id.
const BackupIDPrefix = "backup_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// GenerateBackupID returns a new time-ordered backup id.
// Format: backup_{ulid_lowercase}. Ids generated within the same
// millisecond still sort in creation order.
func GenerateBackupID(now time.Time) (string, error) {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return BackupIDPrefix + strings.ToLower(id.String()), nil
}

// IsValidBackupID reports whether id has the backup id format.
func IsValidBackupID(id string) bool {
	if !strings.HasPrefix(id, BackupIDPrefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(BackupIDPrefix):]))
	return err == nil
}

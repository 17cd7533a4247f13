// Package storage provides persistence for imported glucose readings.
package storage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jwulff/meterimport/internal/bloodsugar"
)

// Store is the interface for persistent storage.
type Store interface {
	// Upload stores one reading and returns its record id.
	Upload(ctx context.Context, reading bloodsugar.Reading) (string, error)
	// UploadBatch stores readings atomically, returning ids in input order.
	UploadBatch(ctx context.Context, readings []bloodsugar.Reading) ([]string, error)

	Get(ctx context.Context, id string) (*Record, error)
	// Read returns readings with start <= timestamp <= end, oldest first.
	Read(ctx context.Context, start, end time.Time) ([]Record, error)

	// Changes returns records stored after token, in storage order, and the
	// token to pass on the next call.
	Changes(ctx context.Context, token SyncToken) ([]Record, SyncToken, error)

	Close() error
}

// Record is a stored reading.
type Record struct {
	ID string
	bloodsugar.Reading
	ImportedAt time.Time
}

// SyncToken marks a position in the store's change history. The zero
// value means "from the beginning". Callers hold it between calls.
type SyncToken string

const syncTokenPrefix = "seq-"

// NewSyncToken returns the token for a storage sequence number.
func NewSyncToken(seq int64) SyncToken {
	if seq <= 0 {
		return ""
	}
	return SyncToken(syncTokenPrefix + strconv.FormatInt(seq, 10))
}

// Seq returns the sequence number the token points at.
func (t SyncToken) Seq() (int64, error) {
	if t == "" {
		return 0, nil
	}
	raw, ok := strings.CutPrefix(string(t), syncTokenPrefix)
	if !ok {
		return 0, errors.WithHint(errors.Newf("malformed sync token %q", string(t)),
			"pass a token printed by a previous changes call, or none to start over")
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seq < 0 {
		return 0, errors.WithHint(errors.Newf("malformed sync token %q", string(t)),
			"pass a token printed by a previous changes call, or none to start over")
	}
	return seq, nil
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is, or wraps, a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

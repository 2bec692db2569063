package triage

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when no triage record matches the id.
var ErrRecordNotFound = errors.New("triage record not found")

// Repository is the persistence boundary for triage records.
type Repository interface {
	// Create inserts the record. When the record carries a session id and
	// that session was already persisted, the existing record is returned
	// instead of a duplicate.
	Create(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

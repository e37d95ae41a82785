package storage

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned when the database cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListOptions filters and pages ListRecords. An empty OwnerID lists every
// owner's records.
type ListOptions struct {
	OwnerID string
	Limit   int
	Offset  int
}

// UsageEvent records one use of a feature. Events are append-only.
type UsageEvent struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"ownerId"`
	Feature    string          `json:"feature"`
	OccurredAt time.Time       `json:"occurredAt"`
	Metadata   json.RawMessage `json:"metadata"`
}

// Package persist defines the durable-storage contract used to survive
// reloads, and its adapters.
//
// A Port stores exactly one serialized record. The session store is its
// only owner; nothing else reads or writes the record.
package persist

import (
	"context"
	"errors"
)

// DefaultKey names the session record in keyed backends.
const DefaultKey = "crimelense_auth"

// ErrNotFound is returned by Get when no record is stored.
var ErrNotFound = errors.New("record not found")

// Port is a get/set/remove contract over a single serialized record.
// Remove of an absent record is not an error.
type Port interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
}

package queue

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the backing queue could not be reached.
	ErrUnavailable = errors.New("queue unavailable")
)

// RawMessage is one opaque queue entry. Sequence and Timestamp are the
// queue-native ordering hints; either may be absent depending on the backend.
// Body holds the undecoded event payload: a JSON string, raw bytes, or an
// already-decoded object, depending on what the backend hands us.
type RawMessage struct {
	ID        string
	Sequence  *int64
	Timestamp *int64 // epoch millis
	Body      any
}

// Reader reads and acknowledges messages for a single game's event queue.
type Reader interface {
	// ReadBatch returns up to limit pending messages. An empty slice with a
	// nil error means the queue is simply idle.
	ReadBatch(ctx context.Context, limit int) ([]RawMessage, error)

	// Ack acknowledges consumed messages by id. Acknowledgment is per-id;
	// a partial failure leaves the remainder for redelivery.
	Ack(ctx context.Context, ids []string) error
}

// Source hands out a Reader per game. Implementations are chosen at
// construction time, one adapter type per backend.
type Source interface {
	Reader(gameID string) Reader
}

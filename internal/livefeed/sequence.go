package livefeed

import (
	"math"
	"time"

	"github.com/blazesportsintel/livefeed/internal/queue"
)

// ResolveSequence assigns a payload its comparable sequence number, trying
// signals in priority order: the payload's explicit sequence, the queue's
// native sequence, the queue's timestamp, the payload's parseable timestamp,
// and finally the current wall clock. Mixing fallback tiers inside one batch
// weakens ordering, which is accepted; steady-state producers set an
// explicit sequence.
func ResolveSequence(payload *GameEventPayload, msg queue.RawMessage) int64 {
	if payload != nil && payload.Sequence != nil && isFinite(*payload.Sequence) {
		return int64(*payload.Sequence)
	}

	if msg.Sequence != nil {
		return *msg.Sequence
	}

	if msg.Timestamp != nil {
		return *msg.Timestamp
	}

	if payload != nil && payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
			return ts.UnixMilli()
		}
	}

	return time.Now().UnixMilli()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

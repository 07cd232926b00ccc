package livefeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blazesportsintel/livefeed/internal/queue"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestResolveSequence_Priority(t *testing.T) {
	tests := []struct {
		name    string
		payload *GameEventPayload
		msg     queue.RawMessage
		want    int64
	}{
		{
			name:    "payload sequence wins over everything",
			payload: &GameEventPayload{Sequence: f64(42), Timestamp: "2026-04-18T19:00:00Z"},
			msg:     queue.RawMessage{Sequence: i64(7), Timestamp: i64(99)},
			want:    42,
		},
		{
			name:    "queue native sequence next",
			payload: &GameEventPayload{Timestamp: "2026-04-18T19:00:00Z"},
			msg:     queue.RawMessage{Sequence: i64(7), Timestamp: i64(99)},
			want:    7,
		},
		{
			name:    "queue timestamp next",
			payload: &GameEventPayload{Timestamp: "2026-04-18T19:00:00Z"},
			msg:     queue.RawMessage{Timestamp: i64(99)},
			want:    99,
		},
		{
			name:    "payload timestamp parsed to millis",
			payload: &GameEventPayload{Timestamp: "2026-04-18T19:00:00Z"},
			msg:     queue.RawMessage{},
			want:    time.Date(2026, 4, 18, 19, 0, 0, 0, time.UTC).UnixMilli(),
		},
		{
			name:    "fractional payload sequence truncates",
			payload: &GameEventPayload{Sequence: f64(42.9)},
			msg:     queue.RawMessage{},
			want:    42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSequence(tt.payload, tt.msg))
		})
	}
}

func TestResolveSequence_WallClockLastResort(t *testing.T) {
	before := time.Now().UnixMilli()
	got := ResolveSequence(&GameEventPayload{Timestamp: "not-a-time"}, queue.RawMessage{})
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

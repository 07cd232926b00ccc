package queue

import (
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestNewRedisSource_ConsumerName(t *testing.T) {
	src := NewRedisSource(nil, "livefeed-a", zap.NewNop())
	if src.consumer != "livefeed-a" {
		t.Errorf("explicit consumer name not kept: %s", src.consumer)
	}

	src = NewRedisSource(nil, "", zap.NewNop())
	if src.consumer == "" {
		t.Error("expected derived consumer name")
	}
	if !strings.HasPrefix(src.consumer, "livefeed-") {
		t.Errorf("unexpected consumer name: %s", src.consumer)
	}
}

// The derived name must not change between restarts of the same instance,
// otherwise entries pending under the old name are never re-read.
func TestDefaultConsumerName_Stable(t *testing.T) {
	a := defaultConsumerName()
	b := defaultConsumerName()
	if a != b {
		t.Errorf("consumer name differs across calls: %s vs %s", a, b)
	}
}

func TestPoisonIDs(t *testing.T) {
	pending := []redis.XPendingExt{
		{ID: "1-0", RetryCount: 1},
		{ID: "2-0", RetryCount: maxDeliveries},
		{ID: "3-0", RetryCount: maxDeliveries + 2},
	}

	ids := poisonIDs(pending)
	if len(ids) != 2 {
		t.Fatalf("expected 2 poison ids, got %v", ids)
	}
	if ids[0] != "2-0" || ids[1] != "3-0" {
		t.Errorf("unexpected poison ids: %v", ids)
	}

	if ids := poisonIDs(nil); ids != nil {
		t.Errorf("expected no poison ids for empty pending list, got %v", ids)
	}
}

func TestRawFromXMessage(t *testing.T) {
	msg := redis.XMessage{
		ID: "1700000000000-0",
		Values: map[string]interface{}{
			"sequence": "42",
			"data":     `{"gameId":"G1"}`,
		},
	}

	raw := rawFromXMessage(msg)
	if raw.ID != "1700000000000-0" {
		t.Errorf("unexpected id: %s", raw.ID)
	}
	if raw.Sequence == nil || *raw.Sequence != 42 {
		t.Errorf("unexpected sequence: %v", raw.Sequence)
	}
	if raw.Timestamp == nil || *raw.Timestamp != 1700000000000 {
		t.Errorf("unexpected timestamp: %v", raw.Timestamp)
	}
	if body, ok := raw.Body.(string); !ok || body != `{"gameId":"G1"}` {
		t.Errorf("unexpected body: %v", raw.Body)
	}
}

func TestParseStreamIDMillis(t *testing.T) {
	tests := []struct {
		id     string
		want   int64
		wantOK bool
	}{
		{id: "1700000000000-3", want: 1700000000000, wantOK: true},
		{id: "123-0", want: 123, wantOK: true},
		{id: "nonsense", wantOK: false},
		{id: "-0", wantOK: false},
		{id: "abc-0", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := parseStreamIDMillis(tt.id)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseStreamIDMillis(%q) = %d, %v; want %d, %v", tt.id, got, ok, tt.want, tt.wantOK)
		}
	}
}

package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/blazesportsintel/livefeed/internal/cache"
	"github.com/blazesportsintel/livefeed/internal/livefeed"
	"github.com/blazesportsintel/livefeed/internal/queue"
)

func newStreamerStack(t *testing.T) (*queue.MemorySource, *Hub, *Streamer) {
	t.Helper()
	logger := zap.NewNop()

	source := queue.NewMemorySource()
	frames := cache.NewFrameCache(cache.NewMemoryStore(), "ncaa-baseball", logger)
	reducer := livefeed.NewReducer(source, frames, logger)
	hub := NewHub(logger)

	return source, hub, NewStreamer(hub, reducer, time.Hour, logger)
}

func TestStreamerBroadcastsNewFrames(t *testing.T) {
	source, hub, streamer := newStreamerStack(t)

	client := newTestClient(hub)
	hub.Subscribe(client, "G1")
	source.Enqueue("G1", queue.RawMessage{ID: "m1", Body: `{"gameId":"G1","sequence":4,"state":{"inning":1}}`})

	streamer.broadcastNew(context.Background())

	select {
	case msg := <-hub.broadcast:
		if msg.gameID != "G1" {
			t.Errorf("unexpected game: %s", msg.gameID)
		}
		var frame FrameMessage
		if err := json.Unmarshal(msg.payload, &frame); err != nil {
			t.Fatalf("decoding frame message: %v", err)
		}
		if frame.Type != "frame" || frame.GameID != "G1" {
			t.Errorf("unexpected envelope: %+v", frame)
		}
		if frame.Frame == nil || frame.Frame.Sequence != 4 {
			t.Errorf("unexpected frame: %+v", frame.Frame)
		}
	default:
		t.Fatal("expected a broadcast")
	}

	if streamer.cursors["G1"] != 4 {
		t.Errorf("expected cursor 4, got %d", streamer.cursors["G1"])
	}

	// Queue drained, nothing newer: no rebroadcast on the next tick.
	streamer.broadcastNew(context.Background())
	select {
	case msg := <-hub.broadcast:
		t.Errorf("unexpected rebroadcast: %s", msg.payload)
	default:
	}
}

func TestStreamerPrunesCursorsForIdleGames(t *testing.T) {
	source, hub, streamer := newStreamerStack(t)

	client := newTestClient(hub)
	hub.Subscribe(client, "G1")
	source.Enqueue("G1", queue.RawMessage{ID: "m1", Body: `{"gameId":"G1","sequence":4,"state":{"inning":1}}`})

	streamer.broadcastNew(context.Background())
	<-hub.broadcast

	hub.Unsubscribe(client, "G1")
	streamer.broadcastNew(context.Background())

	if len(streamer.cursors) != 0 {
		t.Errorf("expected pruned cursors, got %v", streamer.cursors)
	}

	// A later resubscribe starts from the cached frame, which subscribers
	// already saw, so nothing is rebroadcast.
	hub.Subscribe(client, "G1")
	streamer.broadcastNew(context.Background())
	select {
	case msg := <-hub.broadcast:
		t.Errorf("unexpected rebroadcast after resubscribe: %s", msg.payload)
	default:
	}
}

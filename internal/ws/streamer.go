package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blazesportsintel/livefeed/internal/livefeed"
)

// Streamer pushes newly reduced frames to subscribed clients. It runs the
// reducer on a fixed interval for every game with subscribers, advancing a
// per-game cursor so each frame is broadcast exactly once per hub.
type Streamer struct {
	hub      *Hub
	reducer  *livefeed.Reducer
	interval time.Duration
	cursors  map[string]int64 // gameID -> last broadcast sequence
	mu       sync.Mutex
	logger   *zap.Logger
}

// FrameMessage is the envelope broadcast for each new frame.
type FrameMessage struct {
	Type   string              `json:"type"`
	GameID string              `json:"gameId"`
	Frame  *livefeed.LiveFrame `json:"frame"`
}

func NewStreamer(hub *Hub, reducer *livefeed.Reducer, interval time.Duration, logger *zap.Logger) *Streamer {
	return &Streamer{
		hub:      hub,
		reducer:  reducer,
		interval: interval,
		cursors:  make(map[string]int64),
		logger:   logger,
	}
}

// Run starts the streaming loop. Call in a goroutine.
// Returns when context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("frame streamer started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("frame streamer stopping")
			return

		case <-ticker.C:
			s.broadcastNew(ctx)
		}
	}
}

func (s *Streamer) broadcastNew(ctx context.Context) {
	active := s.hub.ActiveGames()
	s.pruneCursors(active)

	for _, gameID := range active {
		s.mu.Lock()
		cursor := s.cursors[gameID]
		s.mu.Unlock()

		result, err := s.reducer.Reduce(ctx, gameID, cursor)
		if err != nil {
			s.logger.Warn("streamer reduce failed",
				zap.String("gameId", gameID),
				zap.Error(err),
			)
			continue
		}

		// A cache hit is a frame the poll surface re-serves for late
		// clients; subscribers already saw it.
		if result.CacheHit || len(result.Frames) == 0 {
			continue
		}

		for _, frame := range result.Frames {
			payload, err := json.Marshal(FrameMessage{
				Type:   "frame",
				GameID: gameID,
				Frame:  frame,
			})
			if err != nil {
				s.logger.Warn("failed to marshal frame message", zap.Error(err))
				continue
			}
			s.hub.Broadcast(gameID, payload)
		}

		s.mu.Lock()
		s.cursors[gameID] = result.Cursor
		s.mu.Unlock()
	}
}

// pruneCursors drops cursors for games that lost their last subscriber, so
// the map stays bounded by the number of live games. A game resubscribed
// later restarts from the cache rather than replaying the acked stream.
func (s *Streamer) pruneCursors(active []string) {
	keep := make(map[string]bool, len(active))
	for _, gameID := range active {
		keep[gameID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for gameID := range s.cursors {
		if !keep[gameID] {
			delete(s.cursors, gameID)
		}
	}
}

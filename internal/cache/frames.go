package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/blazesportsintel/livefeed/internal/livefeed"
)

// FrameTTL bounds how long the latest frame bridges a gap between
// ingestion bursts.
const FrameTTL = 10 * time.Second

// FrameCache keeps the single most recent frame per game. Writes are
// last-write-wins on a short TTL; every failure degrades to a miss or a
// no-op so the reducer never sees an error from here.
type FrameCache struct {
	store  Store
	sport  string
	logger *zap.Logger
}

func NewFrameCache(store Store, sport string, logger *zap.Logger) *FrameCache {
	return &FrameCache{store: store, sport: sport, logger: logger}
}

func (c *FrameCache) key(gameID string) string {
	return c.sport + ":live:" + gameID
}

// WriteLatest overwrites the game's cached frame.
func (c *FrameCache) WriteLatest(ctx context.Context, gameID string, frame *livefeed.LiveFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Warn("failed to marshal frame for cache",
			zap.String("gameId", gameID),
			zap.Error(err),
		)
		return
	}

	if err := c.store.Put(ctx, c.key(gameID), data, FrameTTL); err != nil {
		c.logger.Warn("frame cache write failed",
			zap.String("gameId", gameID),
			zap.Error(err),
		)
	}
}

// ReadIfNewer returns the cached frame only when its sequence is strictly
// beyond the client's cursor, so a frame is never re-served to a client
// that already consumed it.
func (c *FrameCache) ReadIfNewer(ctx context.Context, gameID string, since int64) *livefeed.LiveFrame {
	data, err := c.store.Get(ctx, c.key(gameID))
	if err != nil {
		if err != ErrMiss {
			c.logger.Warn("frame cache read failed",
				zap.String("gameId", gameID),
				zap.Error(err),
			)
		}
		return nil
	}

	var frame livefeed.LiveFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Warn("corrupt frame cache entry",
			zap.String("gameId", gameID),
			zap.Error(err),
		)
		return nil
	}

	if frame.Sequence <= since {
		return nil
	}
	return &frame
}

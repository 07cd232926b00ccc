package livefeed

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/blazesportsintel/livefeed/internal/queue"
)

// DefaultBatchLimit bounds per-request queue reads.
const DefaultBatchLimit = 200

// FrameStore is the fallback cache bridge: it keeps the most recent frame
// per game on a short TTL so a slow-moving game still has a servable frame
// between ingestion bursts. Implementations must degrade internally; both
// operations are best-effort.
type FrameStore interface {
	WriteLatest(ctx context.Context, gameID string, frame *LiveFrame)
	ReadIfNewer(ctx context.Context, gameID string, since int64) *LiveFrame
}

// Result is one reduced batch: everything a client needs to resume from its
// cursor.
type Result struct {
	Cursor    int64
	Frames    []*LiveFrame
	Innings   []InningSnapshot
	Delivered int
	CacheHit  bool
}

// Reducer turns the raw per-game event queue into deduplicated, ordered
// frames. It keeps no state between calls; the queue and the frame store are
// the only durable collaborators.
type Reducer struct {
	source     queue.Source
	frames     FrameStore
	batchLimit int
	logger     *zap.Logger
}

func NewReducer(source queue.Source, frames FrameStore, logger *zap.Logger) *Reducer {
	return &Reducer{
		source:     source,
		frames:     frames,
		batchLimit: DefaultBatchLimit,
		logger:     logger,
	}
}

// Reduce reads pending messages for a game and returns every frame newer
// than the client's cursor, in ascending sequence order. Collaborator
// failures degrade to "no new frames"; Reduce itself only errors on
// context cancellation.
func (r *Reducer) Reduce(ctx context.Context, gameID string, cursor int64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := r.source.Reader(gameID)

	messages, err := reader.ReadBatch(ctx, r.batchLimit)
	if err != nil {
		r.logger.Warn("queue read failed, serving empty batch",
			zap.String("gameId", gameID),
			zap.Error(err),
		)
		messages = nil
	}

	var (
		frames           []*LiveFrame
		ackIDs           []string
		fallbackPrevHome *float64
	)

	for _, msg := range messages {
		payload := NormalizePayload(msg.Body)
		if payload == nil || payload.GameID != gameID {
			continue
		}

		sequence := ResolveSequence(payload, msg)
		if sequence <= cursor {
			// Already seen. Carry its probability forward so deltas stay
			// relative to the last known value across requests.
			if prev := skippedHomeProbability(payload); prev != nil {
				fallbackPrevHome = prev
			}
			continue
		}

		frame := MapToFrame(payload, msg, sequence, gameID)
		if frame == nil {
			continue
		}
		frames = append(frames, frame)
		ackIDs = append(ackIDs, msg.ID)
	}

	// Stable keeps queue arrival order as the tie-break for equal sequences.
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Sequence < frames[j].Sequence
	})

	ApplyDeltas(frames, fallbackPrevHome)

	if len(ackIDs) > 0 {
		if err := reader.Ack(ctx, ackIDs); err != nil {
			r.logger.Warn("ack failed, messages will be redelivered",
				zap.String("gameId", gameID),
				zap.Int("count", len(ackIDs)),
				zap.Error(err),
			)
		}
	}

	result := &Result{Cursor: cursor}

	if len(frames) == 0 {
		if cached := r.frames.ReadIfNewer(ctx, gameID, cursor); cached != nil {
			cached.WinExpectancy.Delta = nil
			frames = []*LiveFrame{cached}
			ApplyDeltas(frames, fallbackPrevHome)
			result.CacheHit = true
		}
	} else {
		r.frames.WriteLatest(ctx, gameID, frames[len(frames)-1])
	}

	result.Frames = frames
	result.Delivered = len(frames)
	result.Innings = BuildInnings(frames)
	if len(frames) > 0 {
		result.Cursor = frames[len(frames)-1].Sequence
	}

	return result, nil
}

// skippedHomeProbability extracts the baseline hint from an already-seen
// payload: its own win expectancy if present, else the previous-value hint
// producers attach for exactly this case.
func skippedHomeProbability(payload *GameEventPayload) *float64 {
	if payload.WinExpectancy != nil {
		if p := NormalizeProbability(payload.WinExpectancy.Home); p != nil {
			return p
		}
	}
	if payload.PreviousWinExpectancy != nil {
		return NormalizeProbability(payload.PreviousWinExpectancy.Home)
	}
	return nil
}

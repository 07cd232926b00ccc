package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	streamKeyPrefix = "live.events.ncaab."
	consumerGroup   = "livefeed"

	// How long a batch read may block waiting for new entries. Kept short so
	// a poll request never stalls on an idle stream.
	readBlock = 50 * time.Millisecond

	// Entries handed to this consumer at least this many times without an
	// acknowledgment are dropped from the pending list. They are payloads
	// nothing downstream will ever frame, so they get the same silent-drop
	// treatment as an unparseable message body.
	maxDeliveries = 3
)

// RedisSource reads game events from per-game Redis Streams.
type RedisSource struct {
	client   *redis.Client
	consumer string
	logger   *zap.Logger

	mu      sync.Mutex
	created map[string]bool // streams with a consumer group already ensured
}

// NewRedisSource creates a Source backed by Redis Streams. The consumer name
// must be stable across restarts of the same instance: entries a crashed
// process left in its pending list are re-read under the same name on the
// next request. An empty name falls back to the hostname.
func NewRedisSource(client *redis.Client, consumer string, logger *zap.Logger) *RedisSource {
	if consumer == "" {
		consumer = defaultConsumerName()
	}
	return &RedisSource{
		client:   client,
		consumer: consumer,
		logger:   logger,
		created:  make(map[string]bool),
	}
}

func defaultConsumerName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "livefeed-" + host
	}
	return "livefeed-" + uuid.New().String()[:8]
}

// StreamKey returns the stream name for a game.
func StreamKey(gameID string) string {
	return streamKeyPrefix + gameID
}

func (s *RedisSource) Reader(gameID string) Reader {
	return &redisReader{source: s, stream: StreamKey(gameID)}
}

// Publish appends one event body to a game's stream. Used by the feed
// simulator and by ingest jobs.
func (s *RedisSource) Publish(ctx context.Context, gameID string, body []byte) error {
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(gameID),
		Values: map[string]interface{}{
			"data": string(body),
		},
	}).Err()
}

// ensureGroup creates the consumer group if it does not exist yet.
// BUSYGROUP from a concurrent creator is fine.
func (s *RedisSource) ensureGroup(ctx context.Context, stream string) {
	s.mu.Lock()
	done := s.created[stream]
	s.mu.Unlock()
	if done {
		return
	}

	err := s.client.XGroupCreateMkStream(ctx, stream, consumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		s.logger.Warn("failed to create consumer group",
			zap.String("stream", stream),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.created[stream] = true
	s.mu.Unlock()
}

type redisReader struct {
	source *RedisSource
	stream string
}

// ReadBatch drains this consumer's pending entries before asking for new
// ones, so a batch delivered to a process that crashed before acking is
// redelivered on the next request rather than stranded in the pending list.
func (r *redisReader) ReadBatch(ctx context.Context, limit int) ([]RawMessage, error) {
	r.source.ensureGroup(ctx, r.stream)
	r.dropPoison(ctx, limit)

	messages, err := r.read(ctx, "0", limit, -1)
	if err != nil {
		return nil, err
	}

	if len(messages) < limit {
		fresh, err := r.read(ctx, ">", limit-len(messages), readBlock)
		if err != nil {
			return nil, err
		}
		messages = append(messages, fresh...)
	}
	return messages, nil
}

func (r *redisReader) read(ctx context.Context, id string, limit int, block time.Duration) ([]RawMessage, error) {
	streams, err := r.source.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: r.source.consumer,
		Streams:  []string{r.stream, id},
		Count:    int64(limit),
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var messages []RawMessage
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			messages = append(messages, rawFromXMessage(msg))
		}
	}
	return messages, nil
}

func (r *redisReader) Ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.source.client.XAck(ctx, r.stream, consumerGroup, ids...).Err()
}

// dropPoison acks pending entries whose delivery count shows they will
// never be framed, keeping the pending list from growing without bound.
// Best-effort: on any error the entries are simply retried next time.
func (r *redisReader) dropPoison(ctx context.Context, limit int) {
	pending, err := r.source.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   r.stream,
		Group:    consumerGroup,
		Consumer: r.source.consumer,
		Start:    "-",
		End:      "+",
		Count:    int64(limit),
	}).Result()
	if err != nil {
		return
	}

	poison := poisonIDs(pending)
	if len(poison) == 0 {
		return
	}

	if err := r.source.client.XAck(ctx, r.stream, consumerGroup, poison...).Err(); err == nil {
		r.source.logger.Warn("dropped repeatedly redelivered entries",
			zap.String("stream", r.stream),
			zap.Int("count", len(poison)),
		)
	}
}

func poisonIDs(pending []redis.XPendingExt) []string {
	var ids []string
	for _, entry := range pending {
		if entry.RetryCount >= maxDeliveries {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

// rawFromXMessage maps one stream entry to a RawMessage. The entry id
// ("<millis>-<seq>") doubles as the native timestamp hint; an explicit
// "sequence" field takes priority when the producer set one.
func rawFromXMessage(msg redis.XMessage) RawMessage {
	raw := RawMessage{ID: msg.ID}

	if seqStr, ok := msg.Values["sequence"].(string); ok {
		if seq, err := strconv.ParseInt(seqStr, 10, 64); err == nil {
			raw.Sequence = &seq
		}
	}

	if millis, ok := parseStreamIDMillis(msg.ID); ok {
		raw.Timestamp = &millis
	}

	switch data := msg.Values["data"].(type) {
	case string:
		raw.Body = data
	case []byte:
		raw.Body = json.RawMessage(data)
	}

	return raw
}

func parseStreamIDMillis(id string) (int64, bool) {
	dash := strings.IndexByte(id, '-')
	if dash <= 0 {
		return 0, false
	}
	millis, err := strconv.ParseInt(id[:dash], 10, 64)
	if err != nil {
		return 0, false
	}
	return millis, true
}

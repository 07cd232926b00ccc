package queue

import (
	"context"
	"strconv"
	"sync"
)

// MemorySource is an in-process queue used when no Redis is configured and
// as the test double for the stream. Messages stay pending until acked, so
// unacked messages are redelivered on the next read, matching the stream
// backend's at-least-once behavior.
type MemorySource struct {
	mu     sync.Mutex
	queues map[string]*memoryQueue
	nextID int64
}

func NewMemorySource() *MemorySource {
	return &MemorySource{queues: make(map[string]*memoryQueue)}
}

func (s *MemorySource) Reader(gameID string) Reader {
	return s.queue(gameID)
}

// Publish enqueues one event body for a game.
func (s *MemorySource) Publish(ctx context.Context, gameID string, body []byte) error {
	s.mu.Lock()
	s.nextID++
	id := strconv.FormatInt(s.nextID, 10)
	s.mu.Unlock()

	q := s.queue(gameID)
	q.mu.Lock()
	q.pending = append(q.pending, RawMessage{ID: id, Body: string(body)})
	q.mu.Unlock()
	return nil
}

// Enqueue adds a fully-formed message, letting tests control every field.
func (s *MemorySource) Enqueue(gameID string, msg RawMessage) {
	q := s.queue(gameID)
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()
}

func (s *MemorySource) queue(gameID string) *memoryQueue {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[gameID]
	if !ok {
		q = &memoryQueue{}
		s.queues[gameID] = q
	}
	return q
}

type memoryQueue struct {
	mu      sync.Mutex
	pending []RawMessage
}

func (q *memoryQueue) ReadBatch(ctx context.Context, limit int) ([]RawMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	if n > limit {
		n = limit
	}
	if n == 0 {
		return nil, nil
	}

	batch := make([]RawMessage, n)
	copy(batch, q.pending[:n])
	return batch, nil
}

func (q *memoryQueue) Ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	acked := make(map[string]bool, len(ids))
	for _, id := range ids {
		acked[id] = true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := q.pending[:0]
	for _, msg := range q.pending {
		if !acked[msg.ID] {
			remaining = append(remaining, msg)
		}
	}
	q.pending = remaining
	return nil
}

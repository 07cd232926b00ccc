package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPSource polls a play-by-play JSON endpoint when no message queue is
// available for a deployment. The endpoint returns either a bare array of
// event payloads or an {"events": [...]} wrapper. Acknowledgment is a no-op;
// deduplication is entirely cursor-driven downstream.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewHTTPSource(baseURL string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPSource {
	transport := &http.Transport{
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &HTTPSource{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (s *HTTPSource) Reader(gameID string) Reader {
	return &httpReader{source: s, gameID: gameID}
}

type httpReader struct {
	source *HTTPSource
	gameID string
}

func (r *httpReader) ReadBatch(ctx context.Context, limit int) ([]RawMessage, error) {
	events, err := r.source.fetchEvents(ctx, r.gameID)
	if err != nil {
		return nil, err
	}

	if len(events) > limit {
		events = events[:limit]
	}

	messages := make([]RawMessage, 0, len(events))
	for i, event := range events {
		messages = append(messages, RawMessage{
			ID:   httpMessageID(r.gameID, event, i),
			Body: event,
		})
	}
	return messages, nil
}

// Ack is a no-op: an HTTP document has nothing to acknowledge.
func (r *httpReader) Ack(ctx context.Context, ids []string) error {
	return nil
}

func (s *HTTPSource) fetchEvents(ctx context.Context, gameID string) ([]json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/play-by-play/%s", s.baseURL, gameID)
	s.logger.Debug("polling play-by-play", zap.String("url", url))

	var lastErr error
	for attempt := 0; attempt <= s.retryCount; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			// No feed for this game yet.
			return nil, nil
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return decodeEventList(body)
	}

	return nil, fmt.Errorf("%w: max retries exceeded: %v", ErrUnavailable, lastErr)
}

// decodeEventList accepts either a bare JSON array or an {"events": [...]}
// wrapper, matching the shapes the upstream feed has been seen to serve.
func decodeEventList(body []byte) ([]json.RawMessage, error) {
	var bare []json.RawMessage
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding play-by-play response: %w", err)
	}
	return wrapped.Events, nil
}

// httpMessageID derives a stable id from the event's own sequence when it
// carries one, falling back to the document position.
func httpMessageID(gameID string, event json.RawMessage, index int) string {
	var probe struct {
		Sequence *int64 `json:"sequence"`
	}
	if err := json.Unmarshal(event, &probe); err == nil && probe.Sequence != nil {
		return fmt.Sprintf("%s:%d", gameID, *probe.Sequence)
	}
	return fmt.Sprintf("%s:idx-%d", gameID, index)
}

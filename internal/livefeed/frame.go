package livefeed

import (
	"strings"
	"time"

	"github.com/blazesportsintel/livefeed/internal/queue"
)

const (
	HalfTop    = "top"
	HalfBottom = "bottom"
)

// LiveFrame is the canonical, ordered unit served to clients. Immutable
// after mapping except WinExpectancy.Delta, which ApplyDeltas fills in as a
// second pass over the ordered batch.
type LiveFrame struct {
	Sequence      int64         `json:"sequence"`
	Timestamp     string        `json:"timestamp"`
	Inning        int           `json:"inning"`
	Half          string        `json:"half"`
	Outs          int           `json:"outs"`
	Bases         Bases         `json:"bases"`
	Count         Count         `json:"count"`
	Score         Score         `json:"score"`
	Event         FrameEvent    `json:"event"`
	WinExpectancy WinExpectancy `json:"winExpectancy"`
}

type Bases struct {
	First  bool `json:"first"`
	Second bool `json:"second"`
	Third  bool `json:"third"`
}

type Count struct {
	Balls   int `json:"balls"`
	Strikes int `json:"strikes"`
	Pitches int `json:"pitches"`
}

type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type FrameEvent struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Batter      string `json:"batter,omitempty"`
	Pitcher     string `json:"pitcher,omitempty"`
	Result      string `json:"result,omitempty"`
}

type WinExpectancy struct {
	Home   *float64 `json:"home"`
	Away   *float64 `json:"away"`
	Delta  *float64 `json:"delta"`
	Source string   `json:"source,omitempty"`
}

// MapToFrame converts a normalized payload into a frame. Returns nil when
// the payload belongs to a different game.
func MapToFrame(payload *GameEventPayload, msg queue.RawMessage, sequence int64, gameID string) *LiveFrame {
	if payload == nil || payload.GameID != gameID {
		return nil
	}

	frame := &LiveFrame{
		Sequence:  sequence,
		Timestamp: resolveTimestamp(payload, msg),
		Inning:    clampMin(payload.State.Inning, 1),
		Half:      NormalizeHalf(payload.State.Half),
		Outs:      clampMin(payload.State.Outs, 0),
		Bases: Bases{
			First:  payload.State.Bases.First || payload.State.Bases.OnFirst,
			Second: payload.State.Bases.Second || payload.State.Bases.OnSecond,
			Third:  payload.State.Bases.Third || payload.State.Bases.OnThird,
		},
		Score: Score{
			Home: clampMin(payload.State.Score.Home, 0),
			Away: clampMin(payload.State.Score.Away, 0),
		},
		Event: FrameEvent{
			Type:        payload.Event.Type,
			Description: payload.Event.Description,
			Batter:      payload.Event.Batter,
			Pitcher:     payload.Event.Pitcher,
			Result:      payload.Event.Result,
		},
	}

	// Top-level count fields win; the nested event pitch count fills gaps.
	frame.Count = Count{
		Balls:   countField(payload.State.Balls, pitchCountField(payload, func(p *PitchCount) *float64 { return p.Balls })),
		Strikes: countField(payload.State.Strikes, pitchCountField(payload, func(p *PitchCount) *float64 { return p.Strikes })),
		Pitches: countField(payload.State.Pitches, pitchCountField(payload, func(p *PitchCount) *float64 { return p.Pitches })),
	}

	if payload.WinExpectancy != nil {
		frame.WinExpectancy = WinExpectancy{
			Home:   NormalizeProbability(payload.WinExpectancy.Home),
			Away:   NormalizeProbability(payload.WinExpectancy.Away),
			Source: payload.WinExpectancy.Source,
		}
	}

	return frame
}

// NormalizeHalf maps any upstream half label onto top/bottom: a
// case-insensitive "bot" prefix means bottom, everything else is top.
func NormalizeHalf(half string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(half)), "bot") {
		return HalfBottom
	}
	return HalfTop
}

func resolveTimestamp(payload *GameEventPayload, msg queue.RawMessage) string {
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	if msg.Timestamp != nil {
		return time.UnixMilli(*msg.Timestamp).UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

// clampMin truncates a tolerant numeric to an int no smaller than floor.
func clampMin(v *float64, floor int) int {
	if v == nil || !isFinite(*v) {
		return floor
	}
	n := int(*v)
	if n < floor {
		return floor
	}
	return n
}

func countField(primary, fallback *float64) int {
	if primary != nil {
		return clampMin(primary, 0)
	}
	return clampMin(fallback, 0)
}

func pitchCountField(payload *GameEventPayload, pick func(*PitchCount) *float64) *float64 {
	if payload.Event.PitchCount == nil {
		return nil
	}
	return pick(payload.Event.PitchCount)
}

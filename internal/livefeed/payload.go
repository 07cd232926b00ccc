package livefeed

import (
	"bytes"
	"encoding/json"
)

// GameEventPayload is the normalized form of one queue message body.
// Numeric fields are pointers so absent and zero stay distinguishable, and
// float64 so fractional or out-of-range producer values survive decoding
// long enough to be clamped by the frame mapper.
type GameEventPayload struct {
	GameID                string              `json:"gameId"`
	Sequence              *float64            `json:"sequence,omitempty"`
	Timestamp             string              `json:"timestamp,omitempty"`
	Event                 EventInfo           `json:"event"`
	State                 GameState           `json:"state"`
	WinExpectancy         *WinExpectancyInput `json:"winExpectancy,omitempty"`
	PreviousWinExpectancy *WinExpectancyInput `json:"previousWinExpectancy,omitempty"`
}

type EventInfo struct {
	Type        string      `json:"type,omitempty"`
	Description string      `json:"description,omitempty"`
	Batter      string      `json:"batter,omitempty"`
	Pitcher     string      `json:"pitcher,omitempty"`
	Result      string      `json:"result,omitempty"`
	PitchCount  *PitchCount `json:"pitchCount,omitempty"`
}

// PitchCount carries the count fields some producers nest under the event
// instead of the top-level state.
type PitchCount struct {
	Balls   *float64 `json:"balls,omitempty"`
	Strikes *float64 `json:"strikes,omitempty"`
	Pitches *float64 `json:"pitches,omitempty"`
}

type GameState struct {
	Inning  *float64   `json:"inning,omitempty"`
	Half    string     `json:"half,omitempty"`
	Outs    *float64   `json:"outs,omitempty"`
	Balls   *float64   `json:"balls,omitempty"`
	Strikes *float64   `json:"strikes,omitempty"`
	Pitches *float64   `json:"pitches,omitempty"`
	Bases   BaseFlags  `json:"bases"`
	Score   ScoreState `json:"score"`
}

// BaseFlags accepts both base-occupancy naming conventions seen upstream.
type BaseFlags struct {
	First    bool `json:"first,omitempty"`
	Second   bool `json:"second,omitempty"`
	Third    bool `json:"third,omitempty"`
	OnFirst  bool `json:"onFirst,omitempty"`
	OnSecond bool `json:"onSecond,omitempty"`
	OnThird  bool `json:"onThird,omitempty"`
}

type ScoreState struct {
	Home *float64 `json:"home,omitempty"`
	Away *float64 `json:"away,omitempty"`
}

type WinExpectancyInput struct {
	Home   *float64 `json:"home,omitempty"`
	Away   *float64 `json:"away,omitempty"`
	Source string   `json:"source,omitempty"`
}

// NormalizePayload decodes a raw message body into a payload. It accepts a
// JSON string, raw bytes, or an already-decoded object. Anything unparseable
// yields nil and the message is dropped; there is no retry or dead-letter
// path for malformed events.
func NormalizePayload(body any) *GameEventPayload {
	var data []byte

	switch b := body.(type) {
	case nil:
		return nil
	case string:
		data = []byte(b)
	case []byte:
		data = b
	case json.RawMessage:
		data = b
	case map[string]any:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil
		}
		data = encoded
	case *GameEventPayload:
		return b
	default:
		return nil
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	var payload GameEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	return &payload
}

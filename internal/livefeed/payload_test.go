package livefeed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePayload_Shapes(t *testing.T) {
	valid := `{"gameId":"G1","sequence":7,"state":{"inning":2,"half":"top"}}`

	tests := []struct {
		name string
		body any
		want bool
	}{
		{name: "json string", body: valid, want: true},
		{name: "raw bytes", body: []byte(valid), want: true},
		{name: "raw message", body: json.RawMessage(valid), want: true},
		{name: "structured map", body: map[string]any{"gameId": "G1", "sequence": 7.0}, want: true},
		{name: "nil body", body: nil, want: false},
		{name: "empty string", body: "", want: false},
		{name: "garbage", body: "not json at all", want: false},
		{name: "truncated json", body: `{"gameId":"G1",`, want: false},
		{name: "json array", body: `[1,2,3]`, want: false},
		{name: "unsupported type", body: 42, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := NormalizePayload(tt.body)
			if !tt.want {
				assert.Nil(t, payload)
				return
			}
			require.NotNil(t, payload)
			assert.Equal(t, "G1", payload.GameID)
		})
	}
}

func TestNormalizePayload_FullEvent(t *testing.T) {
	body := `{
		"gameId": "G1",
		"sequence": 12,
		"timestamp": "2026-04-18T19:05:00Z",
		"event": {"type": "pitch", "description": "Swinging strike", "batter": "J. Cruz", "pitcher": "M. Ota"},
		"state": {
			"inning": 4, "half": "bottom", "outs": 1,
			"balls": 2, "strikes": 2, "pitches": 63,
			"bases": {"onFirst": true, "third": true},
			"score": {"home": 3, "away": 2}
		},
		"winExpectancy": {"home": 0.61, "away": 0.39, "source": "model-v2"}
	}`

	payload := NormalizePayload(body)
	require.NotNil(t, payload)

	assert.Equal(t, "G1", payload.GameID)
	require.NotNil(t, payload.Sequence)
	assert.Equal(t, float64(12), *payload.Sequence)
	assert.Equal(t, "pitch", payload.Event.Type)
	assert.True(t, payload.State.Bases.OnFirst)
	assert.True(t, payload.State.Bases.Third)
	require.NotNil(t, payload.WinExpectancy)
	assert.Equal(t, "model-v2", payload.WinExpectancy.Source)
}

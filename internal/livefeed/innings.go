package livefeed

import "sort"

// InningSnapshot is a derived, read-only grouping of frames by inning half,
// rebuilt from scratch on every request.
type InningSnapshot struct {
	Inning        int           `json:"inning"`
	Half          string        `json:"half"`
	StartSequence int64         `json:"startSequence"`
	EndSequence   int64         `json:"endSequence"`
	Events        []InningEvent `json:"events"`
}

// InningEvent is the lightweight per-frame summary carried by a snapshot.
type InningEvent struct {
	Sequence      int64    `json:"sequence"`
	Timestamp     string   `json:"timestamp"`
	Summary       string   `json:"summary,omitempty"`
	Outs          int      `json:"outs"`
	Bases         Bases    `json:"bases"`
	Score         Score    `json:"score"`
	WinExpectancy *float64 `json:"winExpectancy"`
}

// BuildInnings groups ordered frames by (inning, half). Snapshot order is
// ascending inning, top before bottom, then start sequence; it derives only
// from the frames' own fields, never from arrival order.
func BuildInnings(frames []*LiveFrame) []InningSnapshot {
	type key struct {
		inning int
		half   string
	}

	groups := make(map[key]*InningSnapshot)
	var order []key

	for _, frame := range frames {
		k := key{inning: frame.Inning, half: frame.Half}
		snap, ok := groups[k]
		if !ok {
			snap = &InningSnapshot{
				Inning:        frame.Inning,
				Half:          frame.Half,
				StartSequence: frame.Sequence,
				EndSequence:   frame.Sequence,
			}
			groups[k] = snap
			order = append(order, k)
		}

		if frame.Sequence < snap.StartSequence {
			snap.StartSequence = frame.Sequence
		}
		if frame.Sequence > snap.EndSequence {
			snap.EndSequence = frame.Sequence
		}

		snap.Events = append(snap.Events, InningEvent{
			Sequence:      frame.Sequence,
			Timestamp:     frame.Timestamp,
			Summary:       frame.Event.Description,
			Outs:          frame.Outs,
			Bases:         frame.Bases,
			Score:         frame.Score,
			WinExpectancy: frame.WinExpectancy.Home,
		})
	}

	snapshots := make([]InningSnapshot, 0, len(order))
	for _, k := range order {
		snap := groups[k]
		sort.Slice(snap.Events, func(i, j int) bool {
			return snap.Events[i].Sequence < snap.Events[j].Sequence
		})
		snapshots = append(snapshots, *snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.Inning != b.Inning {
			return a.Inning < b.Inning
		}
		if a.Half != b.Half {
			return a.Half == HalfTop
		}
		return a.StartSequence < b.StartSequence
	})

	return snapshots
}

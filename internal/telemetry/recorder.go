package telemetry

// DefaultIdleGapMs is the inter-keystroke gap above which a pause counts
// toward idle time. Gaps at or below the threshold are ignored entirely.
const DefaultIdleGapMs = 2000

// KeyEvent is a single key press observed in the message input.
// At is a unix timestamp in milliseconds (client Date.now()).
type KeyEvent struct {
	At  int64  `json:"at"`
	Key string `json:"key"`
}

// Snapshot is the finalized behavioral telemetry attached to one sent message.
type Snapshot struct {
	LatencyMs      int64 `json:"latency_ms"`
	BackspaceCount int   `json:"backspace_count"`
	IdleTimeMs     int64 `json:"idle_time_ms"`
}

// Sanitized returns a copy with negative fields replaced by zero. Malformed
// client telemetry must never block message delivery, so this is the only
// validation the pipeline applies.
func (s Snapshot) Sanitized() Snapshot {
	if s.LatencyMs < 0 {
		s.LatencyMs = 0
	}
	if s.BackspaceCount < 0 {
		s.BackspaceCount = 0
	}
	if s.IdleTimeMs < 0 {
		s.IdleTimeMs = 0
	}
	return s
}

// Recorder accumulates telemetry for a single message composition window.
// It is an explicit state object: one recorder per input, driven by discrete
// key events, reset exactly once per dispatch. Not safe for concurrent use;
// callers are expected to feed it from a single event loop.
type Recorder struct {
	idleGapMs int64

	epochMs    int64 // when the composition window opened (input cleared)
	startMs    int64 // first keystroke of the current window, 0 until typed
	lastKeyMs  int64
	backspaces int
	idleMs     int64
}

// NewRecorder returns a recorder using the given idle gap threshold in
// milliseconds. A non-positive threshold falls back to DefaultIdleGapMs.
func NewRecorder(idleGapMs int64) *Recorder {
	if idleGapMs <= 0 {
		idleGapMs = DefaultIdleGapMs
	}
	return &Recorder{idleGapMs: idleGapMs}
}

// Arm marks the start of a composition window. Latency is measured from this
// epoch to the first keystroke. A recorder that is never armed reports zero
// latency.
func (r *Recorder) Arm(epochMs int64) {
	r.epochMs = epochMs
}

// Observe folds one key event into the accumulated counters.
func (r *Recorder) Observe(ev KeyEvent) {
	if r.startMs == 0 {
		r.startMs = ev.At
	}

	if ev.Key == "Backspace" || ev.Key == "Delete" {
		r.backspaces++
	}

	// Threshold-gated accumulator: a gap over the threshold contributes in
	// full, a gap at or under it contributes nothing.
	if r.lastKeyMs != 0 {
		if gap := ev.At - r.lastKeyMs; gap > r.idleGapMs {
			r.idleMs += gap
		}
	}
	r.lastKeyMs = ev.At
}

// Snapshot returns the current accumulated telemetry without resetting it.
// A window with zero keystrokes yields the zero snapshot.
func (r *Recorder) Snapshot() Snapshot {
	var latency int64
	if r.startMs != 0 && r.epochMs != 0 && r.startMs > r.epochMs {
		latency = r.startMs - r.epochMs
	}
	return Snapshot{
		LatencyMs:      latency,
		BackspaceCount: r.backspaces,
		IdleTimeMs:     r.idleMs,
	}
}

// Finish returns the finalized snapshot for the dispatched message and resets
// every counter and timing marker, then re-arms at the dispatch time so the
// next window's latency is measured from the moment the input was cleared.
// The reset happens whether or not the dispatch later succeeds.
func (r *Recorder) Finish(nowMs int64) Snapshot {
	snap := r.Snapshot()
	r.Reset()
	r.Arm(nowMs)
	return snap
}

// Reset zeroes all counters and timing markers, including the epoch.
func (r *Recorder) Reset() {
	r.epochMs = 0
	r.startMs = 0
	r.lastKeyMs = 0
	r.backspaces = 0
	r.idleMs = 0
}

// Reduce folds a finite event sequence into a snapshot using a fresh
// recorder armed at epochMs. It exists so the capture contract can be
// exercised without a UI harness.
func Reduce(epochMs int64, events []KeyEvent, idleGapMs int64) Snapshot {
	r := NewRecorder(idleGapMs)
	r.Arm(epochMs)
	for _, ev := range events {
		r.Observe(ev)
	}
	return r.Snapshot()
}

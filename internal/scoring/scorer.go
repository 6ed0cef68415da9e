package scoring

import (
	"math"
	"strings"

	"mindpulse-backend/internal/telemetry"
)

// Score bounds. A session's stress score always lives in [MinScore, MaxScore].
const (
	MinScore = 0
	MaxScore = 100
)

// Policy holds the stress scoring thresholds and weights. All values are
// named configuration, loaded from the environment, so the scoring behavior
// can be tuned without touching the algorithm.
type Policy struct {
	// Per-signal thresholds and the points each contributes when exceeded.
	LatencyThresholdMs int64
	LatencyPoints      int
	BackspaceThreshold int
	BackspacePoints    int
	IdleThresholdMs    int64
	IdlePoints         int

	// Blend weight selection: messages longer than VentingWordCount words
	// use VentingWeight, everything else (including the boundary itself)
	// uses DefaultWeight.
	VentingWordCount int
	VentingWeight    float64
	DefaultWeight    float64
}

// DefaultPolicy returns the production scoring constants.
func DefaultPolicy() Policy {
	return Policy{
		LatencyThresholdMs: 8000,
		LatencyPoints:      30,
		BackspaceThreshold: 5,
		BackspacePoints:    40,
		IdleThresholdMs:    10000,
		IdlePoints:         20,
		VentingWordCount:   20,
		VentingWeight:      0.1,
		DefaultWeight:      0.2,
	}
}

// MaxPoints is the largest contribution a single message can make: the sum
// of all three signal weights.
func (p Policy) MaxPoints() int {
	return p.LatencyPoints + p.BackspacePoints + p.IdlePoints
}

// Points maps one telemetry snapshot to its stress contribution. Pure and
// deterministic: each signal strictly above its threshold adds its fixed
// points, a message triggering none contributes zero.
func (p Policy) Points(s telemetry.Snapshot) int {
	s = s.Sanitized()

	points := 0
	if s.LatencyMs > p.LatencyThresholdMs {
		points += p.LatencyPoints
	}
	if s.BackspaceCount > p.BackspaceThreshold {
		points += p.BackspacePoints
	}
	if s.IdleTimeMs > p.IdleThresholdMs {
		points += p.IdlePoints
	}
	return points
}

// BlendWeight picks the smoothing factor for the running score. Long
// messages are treated as venting and move the score faster; a word count
// exactly at the boundary uses the default weight.
func (p Policy) BlendWeight(wordCount int) float64 {
	if wordCount > p.VentingWordCount {
		return p.VentingWeight
	}
	return p.DefaultWeight
}

// FirstScore seeds the session score from its first scored message.
func (p Policy) FirstScore(points int) int {
	return clamp(points)
}

// Blend folds a new point contribution into the previous running score using
// an exponential moving average with a content-dependent weight, rounded and
// clamped to [MinScore, MaxScore].
func (p Policy) Blend(previous, points, wordCount int) int {
	w := p.BlendWeight(wordCount)
	blended := float64(previous)*(1-w) + float64(points)*w
	return clamp(int(math.Round(blended)))
}

// WordCount counts whitespace-separated words in a message.
func WordCount(message string) int {
	return len(strings.Fields(message))
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

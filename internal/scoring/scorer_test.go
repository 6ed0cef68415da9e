package scoring

import (
	"testing"

	"mindpulse-backend/internal/telemetry"
)

func TestPointsThresholds(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		snap     telemetry.Snapshot
		expected int
	}{
		{"all quiet", telemetry.Snapshot{}, 0},
		{"latency over threshold", telemetry.Snapshot{LatencyMs: 9000}, 30},
		{"latency exactly at threshold", telemetry.Snapshot{LatencyMs: 8000}, 0},
		{"backspaces over threshold", telemetry.Snapshot{BackspaceCount: 6}, 40},
		{"backspaces exactly at threshold", telemetry.Snapshot{BackspaceCount: 5}, 0},
		{"idle over threshold", telemetry.Snapshot{IdleTimeMs: 11000}, 20},
		{"idle exactly at threshold", telemetry.Snapshot{IdleTimeMs: 10000}, 0},
		{"backspaces and idle combine", telemetry.Snapshot{BackspaceCount: 6, IdleTimeMs: 11000}, 60},
		{"all three trigger", telemetry.Snapshot{LatencyMs: 9000, BackspaceCount: 12, IdleTimeMs: 20000}, 90},
		{"negative fields sanitized to zero", telemetry.Snapshot{LatencyMs: -100, BackspaceCount: -3, IdleTimeMs: -1}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.Points(tc.snap)
			if got != tc.expected {
				t.Errorf("Expected %d points, got %d", tc.expected, got)
			}

			// Deterministic and bounded
			if again := policy.Points(tc.snap); again != got {
				t.Errorf("Points is not deterministic: %d then %d", got, again)
			}
			if got < 0 || got > policy.MaxPoints() {
				t.Errorf("Points %d outside [0, %d]", got, policy.MaxPoints())
			}
		})
	}
}

func TestMaxPoints(t *testing.T) {
	if got := DefaultPolicy().MaxPoints(); got != 90 {
		t.Errorf("Expected max points 90, got %d", got)
	}
}

func TestBlendWeightBoundary(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		wordCount int
		expected  float64
	}{
		{"short message", 5, 0.2},
		{"exactly at boundary uses default weight", 20, 0.2},
		{"just over boundary uses venting weight", 21, 0.1},
		{"long venting message", 50, 0.1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.BlendWeight(tc.wordCount); got != tc.expected {
				t.Errorf("Expected weight %v for %d words, got %v", tc.expected, tc.wordCount, got)
			}
		})
	}
}

func TestFirstScore(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		points   int
		expected int
	}{
		{0, 0},
		{30, 30},
		{90, 90},
		{150, 100}, // capped even if a policy's weights sum past 100
	}

	for _, tc := range tests {
		if got := policy.FirstScore(tc.points); got != tc.expected {
			t.Errorf("FirstScore(%d): expected %d, got %d", tc.points, tc.expected, got)
		}
	}
}

func TestBlendScenarios(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		previous  int
		points    int
		wordCount int
		expected  int
	}{
		// round(50*0.9 + 60*0.1) = round(45+6) = 51
		{"venting weight", 50, 60, 25, 51},
		// round(50*0.8 + 60*0.2) = round(40+12) = 52
		{"default weight", 50, 60, 5, 52},
		{"zero points pulls score down", 50, 0, 5, 40},
		{"score never exceeds 100", 100, 90, 5, 98},
		{"score never drops below 0", 0, 0, 25, 0},
		{"stable when points match score", 60, 60, 5, 60},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.Blend(tc.previous, tc.points, tc.wordCount)
			if got != tc.expected {
				t.Errorf("Blend(%d, %d, %d words): expected %d, got %d",
					tc.previous, tc.points, tc.wordCount, tc.expected, got)
			}
			if got < MinScore || got > MaxScore {
				t.Errorf("Blend result %d outside [%d, %d]", got, MinScore, MaxScore)
			}
		})
	}
}

func TestBlendStaysBoundedOverManyUpdates(t *testing.T) {
	policy := DefaultPolicy()

	score := 0
	snaps := []telemetry.Snapshot{
		{LatencyMs: 9000, BackspaceCount: 12, IdleTimeMs: 20000},
		{},
		{BackspaceCount: 6},
		{LatencyMs: 9000, IdleTimeMs: 11000},
	}

	for i := 0; i < 200; i++ {
		snap := snaps[i%len(snaps)]
		points := policy.Points(snap)
		if i == 0 {
			score = policy.FirstScore(points)
		} else {
			score = policy.Blend(score, points, (i*7)%40)
		}
		if score < MinScore || score > MaxScore {
			t.Fatalf("Score %d escaped [%d, %d] at update %d", score, MinScore, MaxScore, i)
		}
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected int
	}{
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"single word", "tired", 1},
		{"simple sentence", "i am fine really", 4},
		{"extra whitespace collapses", "  i   am\tfine\n", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := WordCount(tc.message); got != tc.expected {
				t.Errorf("Expected %d words, got %d", tc.expected, got)
			}
		})
	}
}

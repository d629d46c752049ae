package core

import (
	"testing"

	"pgregory.net/rapid"
)

func TestPerItemShare(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  int64
	}{
		{"even split", 30000, 3, 10000},
		{"thirds round down", 100, 3, 33},
		{"two thirds round up", 200, 3, 67},
		{"half rounds away from zero", 5, 2, 3},
		{"single item takes all", 995, 1, 995},
		{"fewer cents than items", 2, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := perItemShare(tt.total, tt.count); got != tt.want {
				t.Errorf("perItemShare(%d, %d) = %d, want %d", tt.total, tt.count, got, tt.want)
			}
		})
	}
}

// Rounding may move each item's cost by at most half a cent, so the summed
// item costs never drift from the entered total by more than count/2.
func TestPerItemShare_BoundedDrift(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(1, 1_000_000_000).Draw(t, "total")
		count := rapid.IntRange(1, 10_000).Draw(t, "count")

		share := perItemShare(total, count)
		drift := share*int64(count) - total
		if drift < 0 {
			drift = -drift
		}
		if 2*drift > int64(count) {
			t.Fatalf("perItemShare(%d, %d) = %d drifts by %d, more than half a cent per item",
				total, count, share, drift)
		}
	})
}

package embedding

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

// oracleTopN sorts all candidates descending (stable) and truncates,
// the reference behavior the collector must reproduce.
func oracleTopN(matches []Match, n int) []Match {
	out := make([]Match, len(matches))
	copy(out, matches)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func TestCollectorMatchesOracle(t *testing.T) {
	const limit = 8
	rng := rand.New(rand.NewSource(42))

	for _, m := range []int{0, 1, limit - 1, limit, limit + 1, 10 * limit} {
		t.Run(fmt.Sprintf("candidates=%d", m), func(t *testing.T) {
			candidates := make([]Match, m)
			for i := range candidates {
				candidates[i] = Match{
					Key: fmt.Sprintf("file-%d", i),
					// Coarse buckets so ties actually occur.
					Score: float32(rng.Intn(10)) / 10,
				}
			}

			c := NewCollector(limit)
			for _, cand := range candidates {
				c.Add(cand)
			}

			got := c.Matches()
			want := oracleTopN(candidates, limit)

			if len(got) != len(want) {
				t.Fatalf("got %d matches, want %d", len(got), len(want))
			}
			for i := range got {
				if got[i] != want[i] {
					t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestCollectorDescending(t *testing.T) {
	c := NewCollector(5)
	for _, s := range []float32{0.2, 0.9, 0.5, 0.7, 0.1, 0.8, 0.3} {
		c.Add(Match{Key: fmt.Sprintf("%v", s), Score: s})
	}

	got := c.Matches()
	if len(got) != 5 {
		t.Fatalf("got %d matches, want 5", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Fatalf("matches not descending at %d: %v < %v", i, got[i-1].Score, got[i].Score)
		}
	}
	if got[0].Key != "0.9" || got[0].Score != 0.9 {
		t.Errorf("best match = %+v, want 0.9", got[0])
	}
}

func TestCollectorTieKeepsFirstSeen(t *testing.T) {
	c := NewCollector(2)
	c.Add(Match{Key: "first", Score: 0.5})
	c.Add(Match{Key: "second", Score: 0.5})
	c.Add(Match{Key: "third", Score: 0.5})

	got := c.Matches()
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Key != "first" || got[1].Key != "second" {
		t.Errorf("ties evicted first-seen candidates: %+v", got)
	}
}

func TestCollectorZeroLimit(t *testing.T) {
	for _, n := range []int{0, -3} {
		c := NewCollector(n)
		c.Add(Match{Key: "a", Score: 1})
		if got := c.Matches(); len(got) != 0 {
			t.Errorf("NewCollector(%d) collected %d matches, want 0", n, len(got))
		}
	}
}

package embedding

import "sort"

// Match is one ranked search candidate.
type Match struct {
	Key   string
	Score float32
	// FileID carries the external reference on the with-ref search path;
	// empty otherwise.
	FileID string
}

// Collector keeps the N highest-scoring candidates seen so far, sorted
// descending by score. A new candidate evicts the current minimum only
// when its score is strictly greater, so on ties the first-seen candidate
// wins. Not safe for concurrent use.
type Collector struct {
	limit   int
	matches []Match
}

// NewCollector creates a collector for the top n candidates.
func NewCollector(n int) *Collector {
	if n < 0 {
		n = 0
	}
	return &Collector{
		limit:   n,
		matches: make([]Match, 0, n),
	}
}

// Add offers a candidate to the collector.
func (c *Collector) Add(m Match) {
	if c.limit == 0 {
		return
	}

	if len(c.matches) < c.limit {
		c.matches = append(c.matches, m)
	} else if c.matches[len(c.matches)-1].Score < m.Score {
		c.matches[len(c.matches)-1] = m
	} else {
		return
	}

	sort.SliceStable(c.matches, func(i, j int) bool {
		return c.matches[i].Score > c.matches[j].Score
	})
}

// Matches returns the collected candidates, highest score first.
func (c *Collector) Matches() []Match {
	return c.matches
}

package monitor

import (
	"fmt"
	"sort"
)

// Advisor thresholds.
const (
	SlowAverageMS       = 500.0
	InconsistencyFactor = 3.0
)

// Recommendation is one finding about an operation's latency profile.
type Recommendation struct {
	Operation string `json:"operation"`
	Issue     string `json:"issue"`
	Detail    string `json:"detail"`
}

// Advise inspects stats and returns recommendations ordered by operation name.
func Advise(stats map[string]Stats) []Recommendation {
	ops := make([]string, 0, len(stats))
	for op := range stats {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	var recs []Recommendation
	for _, op := range ops {
		s := stats[op]
		if s.AvgMS > SlowAverageMS {
			recs = append(recs, Recommendation{
				Operation: op,
				Issue:     "slow operation",
				Detail:    fmt.Sprintf("average %.1fms exceeds %.0fms; consider caching or optimization", s.AvgMS, SlowAverageMS),
			})
		}
		if s.AvgMS > 0 && s.MaxMS > InconsistencyFactor*s.AvgMS {
			recs = append(recs, Recommendation{
				Operation: op,
				Issue:     "inconsistent performance",
				Detail:    fmt.Sprintf("max %.1fms is more than %.0fx the average %.1fms", s.MaxMS, InconsistencyFactor, s.AvgMS),
			})
		}
	}
	return recs
}

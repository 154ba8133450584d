package pipeline

import (
	"github.com/AnuParkACar/libro-replication/internal/rank"
	"github.com/AnuParkACar/libro-replication/internal/types"
)

// Metrics counts how far candidates got through the pipeline.
type Metrics struct {
	Generated int `json:"generated"`
	Extracted int `json:"extracted"`
	Injected  int `json:"injected"`
	Executed  int `json:"executed"`
	BRTs      int `json:"brts"`
	FIBs      int `json:"fibs"`
}

// BugResult is everything one bug's run produced: all candidates in sample
// order, the ranked failing subset, and the clusters behind the ranking.
type BugResult struct {
	Report       types.BugReport
	Candidates   []*types.Candidate
	Ranked       []*types.Candidate
	Clusters     []rank.FailureCluster
	TriggerTests []string
	Metrics      Metrics
}

// Reproduced reports whether at least one candidate is a bug-reproducing
// test.
func (r *BugResult) Reproduced() bool { return r.Metrics.BRTs > 0 }

func tally(cands []*types.Candidate) Metrics {
	m := Metrics{Generated: len(cands)}
	for _, c := range cands {
		if c.Unit != "" {
			m.Extracted++
		}
		if c.InjectedPath != "" {
			m.Injected++
		}
		if c.FullyExecuted() {
			m.Executed++
		}
		switch c.Classification {
		case types.ClassBRT:
			m.BRTs++
		case types.ClassFIB:
			m.FIBs++
		}
	}
	return m
}

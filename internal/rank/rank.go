// Package rank orders the candidates that failed on the buggy revision for
// presentation. Candidates are deduplicated syntactically, clustered by
// normalized failure signature, scored against the bug report's keywords,
// and interleaved round-robin across clusters so one large but possibly
// off-target cluster cannot dominate the top of the list.
package rank

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

// FailureCluster groups candidates sharing a normalized failure signature.
type FailureCluster struct {
	Signature string
	Members   []*types.Candidate
}

// Ranker holds the agreement threshold: when the largest cluster is not
// bigger than the threshold, the signal is too weak and the ranking is
// suppressed.
type Ranker struct {
	AgreementThreshold int
	log                *zap.Logger
}

func New(agreementThreshold int, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ranker{AgreementThreshold: agreementThreshold, log: log}
}

const maxSignatureMsg = 100

var (
	digitsRe  = regexp.MustCompile(`\d+`)
	hexAddrRe = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	wordRe    = regexp.MustCompile(`\w+`)
	commentRe = regexp.MustCompile(`//[^\n]*`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Signature normalizes (errorKind, errorMessage) into a cluster key: hex
// addresses and digits stripped, message truncated to a fixed length.
func Signature(kind, message string) string {
	msg := hexAddrRe.ReplaceAllString(message, "")
	msg = digitsRe.ReplaceAllString(msg, "")
	if len(msg) > maxSignatureMsg {
		msg = msg[:maxSignatureMsg]
	}
	return kind + "::" + msg
}

// normalizeBody strips comments and all whitespace, the equality used for
// syntactic duplicate removal.
func normalizeBody(code string) string {
	code = commentRe.ReplaceAllString(code, "")
	return spaceRe.ReplaceAllString(code, "")
}

// keywords lower-cases and tokenizes free text into a set.
func keywords(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		set[w] = struct{}{}
	}
	return set
}

// reportMatch counts the overlap between the report's keyword set and the
// candidate's code plus error message keywords.
func reportMatch(report map[string]struct{}, c *types.Candidate) int {
	candWords := keywords(c.Unit + " " + c.ErrorMessage)
	n := 0
	for w := range candWords {
		if _, ok := report[w]; ok {
			n++
		}
	}
	return n
}

// Rank produces the presentation order for one bug's failed-on-buggy
// candidates (BRT and FIB alike; BRT status is carried on the candidate, not
// used to bias clustering). The returned slice is empty when the largest
// cluster does not exceed the agreement threshold.
func (r *Ranker) Rank(failed []*types.Candidate, report types.BugReport) []*types.Candidate {
	unique := dedupe(failed)
	clusters := cluster(unique)
	if len(clusters) == 0 {
		return nil
	}

	largest := 0
	for _, c := range clusters {
		if len(c.Members) > largest {
			largest = len(c.Members)
		}
	}
	if largest <= r.AgreementThreshold {
		r.log.Debug("ranking suppressed: agreement too weak",
			zap.Int("largest_cluster", largest),
			zap.Int("threshold", r.AgreementThreshold))
		return nil
	}

	reportWords := keywords(report.Title + " " + report.Description)

	// Per-candidate report match, reused for both orderings.
	matches := make(map[*types.Candidate]int, len(unique))
	for _, c := range unique {
		matches[c] = reportMatch(reportWords, c)
	}

	// Cluster report match: intersection of the report set with the union of
	// member keyword sets.
	clusterMatch := func(fc FailureCluster) int {
		union := make(map[string]struct{})
		for _, c := range fc.Members {
			for w := range keywords(c.Unit + " " + c.ErrorMessage) {
				union[w] = struct{}{}
			}
		}
		n := 0
		for w := range union {
			if _, ok := reportWords[w]; ok {
				n++
			}
		}
		return n
	}
	clusterScores := make(map[string]int, len(clusters))
	shortest := make(map[string]int, len(clusters))
	for _, fc := range clusters {
		clusterScores[fc.Signature] = clusterMatch(fc)
		min := len(fc.Members[0].Unit)
		for _, c := range fc.Members[1:] {
			if len(c.Unit) < min {
				min = len(c.Unit)
			}
		}
		shortest[fc.Signature] = min
	}

	// Order clusters: report match desc, size desc, shortest member asc,
	// signature lexical as the deterministic last resort.
	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if clusterScores[a.Signature] != clusterScores[b.Signature] {
			return clusterScores[a.Signature] > clusterScores[b.Signature]
		}
		if len(a.Members) != len(b.Members) {
			return len(a.Members) > len(b.Members)
		}
		if shortest[a.Signature] != shortest[b.Signature] {
			return shortest[a.Signature] < shortest[b.Signature]
		}
		return a.Signature < b.Signature
	})

	// Order within each cluster: report match desc, shorter candidate asc,
	// candidate ID as the deterministic last resort.
	for _, fc := range clusters {
		members := fc.Members
		sort.Slice(members, func(i, j int) bool {
			if matches[members[i]] != matches[members[j]] {
				return matches[members[i]] > matches[members[j]]
			}
			if len(members[i].Unit) != len(members[j].Unit) {
				return len(members[i].Unit) < len(members[j].Unit)
			}
			return members[i].ID < members[j].ID
		})
	}

	// Round-robin interleave across clusters.
	var out []*types.Candidate
	for i := 0; ; i++ {
		emitted := false
		for _, fc := range clusters {
			if i < len(fc.Members) {
				out = append(out, fc.Members[i])
				emitted = true
			}
		}
		if !emitted {
			break
		}
	}

	r.log.Debug("ranking produced",
		zap.Int("clusters", len(clusters)),
		zap.Int("ranked", len(out)))
	return out
}

// Clusters exposes the grouped view for reporting.
func (r *Ranker) Clusters(failed []*types.Candidate) []FailureCluster {
	return cluster(dedupe(failed))
}

// dedupe drops candidates whose whitespace/comment-stripped bodies are
// identical, keeping the first occurrence.
func dedupe(cands []*types.Candidate) []*types.Candidate {
	seen := make(map[string]struct{}, len(cands))
	var out []*types.Candidate
	for _, c := range cands {
		key := normalizeBody(c.Unit)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// cluster groups candidates by normalized failure signature, preserving
// first-seen order of signatures.
func cluster(cands []*types.Candidate) []FailureCluster {
	index := make(map[string]int)
	var out []FailureCluster
	for _, c := range cands {
		sig := Signature(c.ErrorKind, c.ErrorMessage)
		i, ok := index[sig]
		if !ok {
			i = len(out)
			index[sig] = i
			out = append(out, FailureCluster{Signature: sig})
		}
		out[i].Members = append(out[i].Members, c)
	}
	return out
}

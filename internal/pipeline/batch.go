package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/AnuParkACar/libro-replication/internal/buildtool"
	"github.com/AnuParkACar/libro-replication/internal/types"
)

// LoadBugs reads a YAML bug list. The file is a sequence of bug reports; see
// types.BugReport for the field names.
func LoadBugs(path string) ([]types.BugReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bug list: %w", err)
	}
	var bugs []types.BugReport
	if err := yaml.Unmarshal(data, &bugs); err != nil {
		return nil, fmt.Errorf("parsing bug list: %w", err)
	}
	for i, b := range bugs {
		if b.ID == "" || b.Project == "" || b.BugNumber == "" {
			return nil, fmt.Errorf("bug list entry %d: id, project and bug_number are required", i)
		}
	}
	return bugs, nil
}

// BatchSummary aggregates a multi-bug run.
type BatchSummary struct {
	Run        int
	Skipped    int
	Failed     int
	Reproduced int
	Results    []*BugResult
}

// RunBatch runs every bug in order, one at a time; candidate-level
// concurrency happens inside each bug. Bugs already finished in the store
// are skipped, so an interrupted batch resumes where it stopped. A bug that
// fails is recorded as failed and the batch moves on; only an unusable build
// tool or cancellation stops the whole run.
func (p *Pipeline) RunBatch(ctx context.Context, bugs []types.BugReport) (*BatchSummary, error) {
	sum := &BatchSummary{}
	for _, bug := range bugs {
		if p.store != nil {
			done, err := p.store.HasBug(bug.ID)
			if err != nil {
				return sum, err
			}
			if done {
				p.log.Info("skipping finished bug", zap.String("bug", bug.ID))
				sum.Skipped++
				continue
			}
		}
		res, err := p.RunBug(ctx, bug)
		if err != nil {
			if errors.Is(err, buildtool.ErrToolUnavailable) || ctx.Err() != nil {
				return sum, fmt.Errorf("bug %s: %w", bug.ID, err)
			}
			p.log.Error("bug failed", zap.String("bug", bug.ID), zap.Error(err))
			if p.store != nil {
				if serr := p.store.FailBug(bug, err.Error()); serr != nil {
					return sum, serr
				}
			}
			sum.Failed++
			continue
		}
		sum.Run++
		if res.Reproduced() {
			sum.Reproduced++
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, nil
}

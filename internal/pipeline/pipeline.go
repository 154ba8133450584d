// Package pipeline wires generation, extraction, host selection, injection
// and differential execution into the per-bug run, and batches runs across a
// bug list with resume support.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnuParkACar/libro-replication/internal/buildtool"
	"github.com/AnuParkACar/libro-replication/internal/config"
	"github.com/AnuParkACar/libro-replication/internal/differ"
	"github.com/AnuParkACar/libro-replication/internal/extract"
	"github.com/AnuParkACar/libro-replication/internal/gen"
	"github.com/AnuParkACar/libro-replication/internal/host"
	"github.com/AnuParkACar/libro-replication/internal/inject"
	"github.com/AnuParkACar/libro-replication/internal/rank"
	"github.com/AnuParkACar/libro-replication/internal/store"
	"github.com/AnuParkACar/libro-replication/internal/types"
)

// Pipeline runs bugs end to end. All collaborators are supplied by the
// caller; the pipeline itself owns only orchestration.
type Pipeline struct {
	cfg     *config.Config
	log     *zap.Logger
	tool    buildtool.Tool
	gen     gen.Generator
	store   *store.Store
	prompts *gen.PromptBuilder
	exec    *differ.Executor
	ranker  *rank.Ranker
}

// New assembles a pipeline. The store may be nil when persistence is not
// wanted (single ad-hoc runs).
func New(cfg *config.Config, log *zap.Logger, tool buildtool.Tool, g gen.Generator, st *store.Store) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	prompts, err := gen.NewPromptBuilder(cfg.Generation.NumExamples, cfg.Generation.ExamplesFile)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:     cfg,
		log:     log,
		tool:    tool,
		gen:     g,
		store:   st,
		prompts: prompts,
		exec:    differ.NewExecutor(tool, log),
		ranker:  rank.New(cfg.Ranking.AgreementThreshold, log),
	}, nil
}

// RunBug executes the full pipeline for one bug: sample the generator, push
// every sample through extraction, host selection, injection and the
// buggy/fixed runs, then rank the failing survivors. Per-candidate problems
// are recorded on the candidate; only environment faults (unrunnable build
// tool, broken checkouts, store errors) abort the bug.
func (p *Pipeline) RunBug(ctx context.Context, report types.BugReport) (*BugResult, error) {
	start := time.Now()
	log := p.log.With(zap.String("bug", report.ID))
	log.Info("running bug",
		zap.Int("samples", p.cfg.Generation.SamplesPerBug),
		zap.String("generator", p.gen.Name()))

	if p.store != nil {
		if err := p.store.SaveBug(report); err != nil {
			return nil, err
		}
	}

	ar, err := newArena(p.cfg.Pipeline.WorkDir, report.ID, p.cfg.Pipeline.KeepCheckouts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ar.cleanup(); err != nil {
			log.Warn("arena cleanup failed", zap.Error(err))
		}
	}()

	// One buggy reference checkout serves host selection for every
	// candidate; execution checkouts are per candidate and revision.
	refDir, err := ar.dir("ref", types.RevisionBuggy)
	if err != nil {
		return nil, err
	}
	if err := p.checkout(ctx, report, types.RevisionBuggy, refDir); err != nil {
		return nil, err
	}
	// A checkout with no recognizable test files drops every candidate at
	// host selection; the bug still completes with an empty ranking.
	selector, err := host.NewSelector(refDir, log)
	if err != nil && !errors.Is(err, host.ErrNoTestFiles) {
		return nil, fmt.Errorf("bug %s: %w", report.ID, err)
	}
	if selector == nil {
		log.Warn("checkout has no test files; all candidates will be dropped")
	}

	trigger, err := p.tool.TriggerTests(ctx, refDir)
	if err != nil {
		log.Debug("trigger tests unavailable", zap.Error(err))
	}

	prompt := p.prompts.Build(report)
	candidates := make([]*types.Candidate, p.cfg.Generation.SamplesPerBug)
	for i := range candidates {
		raw, err := p.gen.Sample(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("sampling generator: %w", err)
		}
		candidates[i] = &types.Candidate{
			ID:        uuid.NewString(),
			BugID:     report.ID,
			Sample:    i,
			RawText:   raw,
			CreatedAt: time.Now().UTC(),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Pipeline.Workers)
	for _, c := range candidates {
		g.Go(func() error {
			return p.processCandidate(gctx, report, c, selector, refDir, ar, prompt)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.store != nil {
		for _, c := range candidates {
			if err := p.store.SaveCandidate(c); err != nil {
				return nil, err
			}
		}
	}

	var failed []*types.Candidate
	for _, c := range candidates {
		if c.Classification.FailedOnBuggy() {
			failed = append(failed, c)
		}
	}
	res := &BugResult{
		Report:       report,
		Candidates:   candidates,
		Ranked:       p.ranker.Rank(failed, report),
		Clusters:     p.ranker.Clusters(failed),
		TriggerTests: trigger,
		Metrics:      tally(candidates),
	}

	if p.store != nil {
		if err := p.store.FinishBug(report.ID, len(candidates), res.Metrics.BRTs, time.Since(start)); err != nil {
			return nil, err
		}
	}
	log.Info("bug finished",
		zap.Int("extracted", res.Metrics.Extracted),
		zap.Int("executed", res.Metrics.Executed),
		zap.Int("brts", res.Metrics.BRTs),
		zap.Int("fibs", res.Metrics.FIBs))
	return res, nil
}

// processCandidate moves one candidate through every stage. It returns an
// error only for environment faults; stage failures drop the candidate.
func (p *Pipeline) processCandidate(ctx context.Context, report types.BugReport, c *types.Candidate, selector *host.Selector, refDir string, ar *arena, prompt string) error {
	start := time.Now()
	defer func() { c.DurationMs = time.Since(start).Milliseconds() }()

	unit, ok := extract.Unit(c.RawText, prompt)
	if !ok {
		c.DropStage = types.DropExtraction
		c.DropReason = "no test method found in sample"
		return nil
	}
	c.Unit = unit
	c.MethodName = extract.MethodName(unit)

	if selector == nil {
		c.DropStage = types.DropHostSelection
		c.DropReason = host.ErrNoTestFiles.Error()
		return nil
	}
	score, err := selector.Select(unit)
	if err != nil {
		c.DropStage = types.DropHostSelection
		c.DropReason = err.Error()
		return nil
	}
	rel, err := filepath.Rel(refDir, score.Path)
	if err != nil {
		return fmt.Errorf("host path outside checkout: %w", err)
	}
	c.HostPath = rel
	c.HostScore = score.Score

	injector := inject.New(p.log)
	records := map[types.Revision]*types.ExecutionRecord{}
	defer func() {
		if derr := ar.discard(c.ID); derr != nil {
			p.log.Debug("checkout discard failed", zap.String("candidate", c.ID), zap.Error(derr))
		}
	}()
	for _, rev := range []types.Revision{types.RevisionBuggy, types.RevisionFixed} {
		dir, err := ar.dir(c.ID, rev)
		if err != nil {
			return err
		}
		res, err := p.tool.Checkout(ctx, report.Project, report.BugNumber, rev, dir)
		if err != nil {
			return err
		}
		if res.TimedOut || res.ExitCode != 0 {
			// A revision that cannot be checked out behaves like one that
			// does not compile: the run on it never happened.
			records[rev] = checkoutFailure(rev, res)
			if rev == types.RevisionBuggy {
				break
			}
			continue
		}
		inj, err := injector.Inject(unit, filepath.Join(dir, rel), dir, c.ID)
		if err != nil {
			c.DropStage = types.DropInjection
			c.DropReason = fmt.Sprintf("%s revision: %v", rev, err)
			return nil
		}
		if rev == types.RevisionBuggy {
			c.InjectedPath = inj.ModifiedPath
			c.InjectedClass = inj.ClassName
			c.InjectedPackage = inj.Package
			c.AddedImports = inj.AddedImports
			c.UnresolvedRefs = inj.Unresolved
		}
		rec, err := p.exec.Execute(ctx, dir, rev, inj.FullClassName(), c.MethodName)
		if err != nil {
			return err
		}
		records[rev] = rec
		// A buggy-side compile error already decides the verdict.
		if rev == types.RevisionBuggy && !rec.Compiled {
			break
		}
	}

	c.Buggy = records[types.RevisionBuggy]
	c.Fixed = records[types.RevisionFixed]
	c.Classification = differ.Classify(c.Buggy, c.Fixed)
	if c.Buggy != nil && c.Buggy.Outcome == types.OutcomeFailed {
		c.ErrorKind = c.Buggy.ErrorKind
		c.ErrorMessage = c.Buggy.ErrorMessage
	}
	return nil
}

// checkoutFailure records a failed revision checkout as a non-compiled run.
func checkoutFailure(rev types.Revision, res *buildtool.CmdResult) *types.ExecutionRecord {
	msg := strings.TrimSpace(res.Combined())
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return &types.ExecutionRecord{
		Revision:     rev,
		Outcome:      types.OutcomeCompileError,
		ErrorKind:    "CheckoutError",
		ErrorMessage: msg,
		DurationMs:   res.Duration.Milliseconds(),
	}
}

func (p *Pipeline) checkout(ctx context.Context, report types.BugReport, rev types.Revision, dir string) error {
	res, err := p.tool.Checkout(ctx, report.Project, report.BugNumber, rev, dir)
	if err != nil {
		return err
	}
	if res.TimedOut || res.ExitCode != 0 {
		return fmt.Errorf("checkout %s %s (%s) failed: %s",
			report.Project, report.BugNumber, rev, res.Combined())
	}
	return nil
}

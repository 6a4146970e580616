// Package scan orchestrates red-teaming scans: goldens are synthesized per
// vulnerability category, transformed by each requested attack, run against
// the target, and judged, with results accumulated into a single report.
package scan

import (
	"context"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/adversalio/sdk/pkg/attacks"
	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/metrics"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/rts"
)

// Scanner runs red-teaming scans.
type Scanner struct {
	synthesizer core.Synthesizer
	registry    *attacks.Registry
	invoker     core.Invoker
	evaluator   core.Evaluator
	targetName  string

	config    *options.ScanConfig
	logger    core.Logger
	collector metrics.Collector

	// OnCaseComplete, if set, is called after each case finishes.
	OnCaseComplete func(result *rts.ScanResult)
}

// Deps holds the pipeline stages a Scanner drives.
type Deps struct {
	Synthesizer core.Synthesizer
	Registry    *attacks.Registry
	Invoker     core.Invoker
	Evaluator   core.Evaluator

	// TargetName labels the report (e.g., the target model identifier).
	TargetName string

	Logger    core.Logger
	Collector metrics.Collector
}

// NewScanner creates a scanner. Missing pipeline stages are configuration
// errors and fail here, before any execution.
func NewScanner(deps Deps, opts ...options.ScanOption) (*Scanner, error) {
	const op = "scan.NewScanner"

	cfg := options.DefaultScanConfig()
	options.ApplyScanOptions(cfg, opts...)

	if deps.Synthesizer == nil {
		return nil, errors.E(errors.KindConfiguration, op, "synthesizer is required")
	}
	if deps.Registry == nil {
		return nil, errors.E(errors.KindConfiguration, op, "attack registry is required")
	}
	if deps.Invoker == nil {
		return nil, errors.E(errors.KindConfiguration, op, "target invoker is required")
	}
	if deps.Evaluator == nil {
		return nil, errors.E(errors.KindConfiguration, op, "evaluator is required")
	}
	if cfg.CasesPerCategory <= 0 {
		return nil, errors.E(errors.KindConfiguration, op, "cases per category must be positive")
	}
	if cfg.Concurrency <= 0 {
		return nil, errors.E(errors.KindConfiguration, op, "concurrency must be positive")
	}

	logger := deps.Logger
	if logger == nil {
		logger = core.LoggerFromVerbose("scan", cfg.Verbose)
	}
	collector := deps.Collector
	if collector == nil {
		collector = metrics.GetDefaultCollector()
	}

	return &Scanner{
		synthesizer: deps.Synthesizer,
		registry:    deps.Registry,
		invoker:     deps.Invoker,
		evaluator:   deps.Evaluator,
		targetName:  deps.TargetName,
		config:      cfg,
		logger:      logger,
		collector:   collector,
	}, nil
}

// Scan runs the full pipeline over the cross product of categories, attacks,
// and synthesized goldens. The report is returned even when the scan is
// interrupted; the error then explains why it is partial. Individual case
// failures never fail the scan.
func (s *Scanner) Scan(ctx context.Context, categories []rts.VulnerabilityCategory, attackTypes []rts.AttackType) (*rts.Report, error) {
	const op = "scan.Scan"

	// All configuration problems surface before any model call.
	if len(categories) == 0 {
		return nil, errors.E(errors.KindConfiguration, op, "at least one vulnerability category is required")
	}
	for _, c := range categories {
		if !c.IsValid() {
			return nil, errors.E(errors.KindConfiguration, op, "unknown vulnerability category: "+c.String())
		}
	}
	if len(attackTypes) == 0 {
		return nil, errors.E(errors.KindConfiguration, op, "at least one attack type is required")
	}
	resolved, err := s.registry.Resolve(attackTypes)
	if err != nil {
		return nil, err
	}

	report := rts.NewReport(s.targetName, categories, attackTypes)
	s.logger.Info("scan %s started: %d categories x %d attacks x %d cases",
		report.ID, len(categories), len(attackTypes), s.config.CasesPerCategory)

	cases, err := s.enumerate(ctx, categories, resolved)
	if err != nil {
		report.Finish()
		s.collector.CounterInc(metrics.ScansTotal.Name, "status", "failed")
		return report, err
	}

	if s.config.Concurrency == 1 {
		err = s.runSequential(ctx, cases, report)
	} else {
		err = s.runPool(ctx, cases, report)
	}

	report.Finish()
	status := "completed"
	if err != nil {
		status = "interrupted"
	}
	s.collector.CounterInc(metrics.ScansTotal.Name, "status", status)
	s.logger.Info("scan %s %s: %d results", report.ID, status, report.Len())
	return report, err
}

// plannedCase pairs a golden with the attack that will transform it. The
// enumeration order is deterministic: categories in request order, goldens
// in synthesis order, attacks in request order.
type plannedCase struct {
	golden rts.Golden
	attack core.Attack
}

func (s *Scanner) enumerate(ctx context.Context, categories []rts.VulnerabilityCategory, resolved []core.Attack) ([]plannedCase, error) {
	const op = "scan.enumerate"

	var cases []plannedCase
	for _, category := range categories {
		goldens, err := s.synthesizer.Synthesize(ctx, category, s.config.CasesPerCategory)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		for _, g := range goldens {
			for _, a := range resolved {
				cases = append(cases, plannedCase{golden: g, attack: a})
			}
		}
	}

	// A nonzero seed shuffles execution order reproducibly, so repeated runs
	// spread load across categories the same way. Zero keeps request order.
	if s.config.Seed != 0 {
		rng := rand.New(rand.NewSource(s.config.Seed))
		rng.Shuffle(len(cases), func(i, j int) {
			cases[i], cases[j] = cases[j], cases[i]
		})
	}
	return cases, nil
}

// executeCase runs one case end to end and always produces a result. The
// terminal status encodes which stage failed, if any.
func (s *Scanner) executeCase(ctx context.Context, pc plannedCase) *rts.ScanResult {
	if s.config.CaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CaseTimeout)
		defer cancel()
	}

	start := time.Now()
	s.collector.GaugeInc(metrics.ScanActiveCases.Name)
	defer s.collector.GaugeDec(metrics.ScanActiveCases.Name)

	result := s.runCase(ctx, pc)
	result.DurationMs = time.Since(start).Milliseconds()
	result.CompletedAt = time.Now().UTC()

	s.collector.CounterInc(metrics.ScanCasesTotal.Name,
		"category", pc.golden.Category.String(),
		"attack", result.Case.Attack.String(),
		"status", result.Status.String())
	s.collector.HistogramObserve(metrics.ScanCaseDuration.Name, time.Since(start).Seconds(),
		"attack", result.Case.Attack.String())
	if result.Status.Scored() {
		s.collector.HistogramObserve(metrics.ScanScore.Name, result.Score,
			"category", pc.golden.Category.String())
	}
	return result
}

func (s *Scanner) runCase(ctx context.Context, pc plannedCase) *rts.ScanResult {
	attackType := pc.attack.Type()
	status := rts.CaseScored

	c, err := pc.attack.Transform(ctx, pc.golden)
	switch {
	case err == nil:
		if c.Iterations > 0 {
			s.collector.HistogramObserve(metrics.AttackIterations.Name, float64(c.Iterations),
				"attack", attackType.String())
		}
	case stderrors.Is(err, errors.ErrAttackBudget):
		// Budget exhausted: score the unmodified prompt instead.
		s.logger.Debug("attack %s exhausted budget for golden %s, falling back", attackType, pc.golden.ID)
		s.collector.CounterInc(metrics.AttackExhaustionsTotal.Name, "attack", attackType.String())
		c = rts.NewAdversarialCase(pc.golden.Input, pc.golden, attackType)
		status = rts.CaseAttackFailed
	default:
		s.logger.Warn("attack %s failed for golden %s: %v", attackType, pc.golden.ID, err)
		return &rts.ScanResult{
			Case:   rts.NewAdversarialCase(pc.golden.Input, pc.golden, attackType),
			Status: rts.CaseErrored,
			Error:  err.Error(),
		}
	}

	response, err := s.invoker.Invoke(ctx, c.Input)
	if err != nil {
		if errors.IsTargetUnavailable(err) {
			return &rts.ScanResult{Case: c, Status: rts.CaseUntested, Error: err.Error()}
		}
		return &rts.ScanResult{Case: c, Status: rts.CaseErrored, Error: err.Error()}
	}

	result, err := s.evaluator.Evaluate(ctx, c, response)
	if err != nil {
		return &rts.ScanResult{Case: c, Response: response, Status: rts.CaseErrored, Error: err.Error()}
	}
	result.Status = status
	return result
}

func (s *Scanner) finishCase(report *rts.Report, result *rts.ScanResult) {
	report.Append(result)
	if s.OnCaseComplete != nil {
		s.OnCaseComplete(result)
	}
}

func (s *Scanner) runSequential(ctx context.Context, cases []plannedCase, report *rts.Report) error {
	for _, pc := range cases {
		if err := ctx.Err(); err != nil {
			return errors.E(errors.KindTimeout, "scan.Scan", "scan canceled", err)
		}
		s.finishCase(report, s.executeCase(ctx, pc))
	}
	return nil
}

package scan

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adversalio/sdk/pkg/attacks"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/mocks"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/rts"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	registry := attacks.NewRegistry()
	registry.Register(&mocks.MockAttack{TypeVal: rts.AttackROT13})
	registry.Register(&mocks.MockAttack{TypeVal: rts.AttackBase64})
	registry.Register(&mocks.MockAttack{TypeVal: rts.AttackLeetspeak})
	return Deps{
		Synthesizer: &mocks.MockSynthesizer{},
		Registry:    registry,
		Invoker:     &mocks.MockInvoker{},
		Evaluator:   &mocks.MockEvaluator{},
		TargetName:  "test-model",
	}
}

var (
	twoCategories = []rts.VulnerabilityCategory{rts.VulnBias, rts.VulnDataLeakage}
	threeAttacks  = []rts.AttackType{rts.AttackROT13, rts.AttackBase64, rts.AttackLeetspeak}
)

func TestScanner_Scan_CrossProduct(t *testing.T) {
	s, err := NewScanner(testDeps(t), options.WithCasesPerCategory(5), options.WithConcurrency(1))
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}

	report, err := s.Scan(context.Background(), twoCategories, threeAttacks)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	// 2 categories x 5 goldens x 3 attacks
	if report.Len() != 30 {
		t.Errorf("report.Len() = %d, want 30", report.Len())
	}
	if report.TargetModel != "test-model" {
		t.Errorf("TargetModel = %q", report.TargetModel)
	}
	for _, res := range report.Snapshot() {
		if res.Status != rts.CaseScored {
			t.Errorf("case %s status = %v, want scored", res.Case.ID, res.Status)
		}
	}
}

func TestScanner_Scan_PoolMatchesSequential(t *testing.T) {
	run := func(concurrency int) map[rts.VulnerabilityCategory]rts.CategoryScore {
		s, err := NewScanner(testDeps(t),
			options.WithCasesPerCategory(4),
			options.WithConcurrency(concurrency))
		if err != nil {
			t.Fatalf("NewScanner() error = %v", err)
		}
		report, err := s.Scan(context.Background(), twoCategories, threeAttacks)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		return report.Aggregate()
	}

	seq := run(1)
	pooled := run(8)

	if len(seq) != len(pooled) {
		t.Fatalf("aggregate size mismatch: %d vs %d", len(seq), len(pooled))
	}
	for cat, want := range seq {
		got := pooled[cat]
		if got.Score != want.Score || got.Scored != want.Scored {
			t.Errorf("category %s: pooled %+v, sequential %+v", cat, got, want)
		}
	}
}

func TestScanner_Scan_ConfigErrors(t *testing.T) {
	s, _ := NewScanner(testDeps(t))

	tests := []struct {
		name       string
		categories []rts.VulnerabilityCategory
		attacks    []rts.AttackType
	}{
		{"no categories", nil, threeAttacks},
		{"no attacks", twoCategories, nil},
		{"unknown category", []rts.VulnerabilityCategory{"bogus"}, threeAttacks},
		{"unregistered attack", twoCategories, []rts.AttackType{rts.AttackTreeJailbreak}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := s.Scan(context.Background(), tt.categories, tt.attacks)
			if !errors.IsConfiguration(err) {
				t.Errorf("Scan() error = %v, want configuration error", err)
			}
			if report != nil {
				t.Error("no report should exist before execution starts")
			}
		})
	}
}

func TestScanner_Scan_AttackBudgetFallback(t *testing.T) {
	deps := testDeps(t)
	deps.Registry = attacks.NewRegistry()
	deps.Registry.Register(&mocks.MockAttack{
		TypeVal: rts.AttackLinearJailbreak,
		TransformFn: func(_ context.Context, _ rts.Golden) (*rts.AdversarialCase, error) {
			return nil, errors.ErrAttackBudget
		},
	})

	var invoked []string
	deps.Invoker = &mocks.MockInvoker{
		InvokeFn: func(_ context.Context, prompt string) (string, error) {
			invoked = append(invoked, prompt)
			return "refused", nil
		},
	}

	s, _ := NewScanner(deps, options.WithCasesPerCategory(2), options.WithConcurrency(1))
	report, err := s.Scan(context.Background(),
		[]rts.VulnerabilityCategory{rts.VulnBias},
		[]rts.AttackType{rts.AttackLinearJailbreak})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for _, res := range report.Snapshot() {
		if res.Status != rts.CaseAttackFailed {
			t.Errorf("status = %v, want attack_failed", res.Status)
		}
		if res.Case.Input != res.Case.Golden.Input {
			t.Error("fallback should score the unmodified golden prompt")
		}
	}
	if len(invoked) != 2 {
		t.Errorf("target invocations = %d, want 2", len(invoked))
	}

	// Budget-exhausted cases still carry scores into the aggregate.
	agg := report.Aggregate()
	if agg[rts.VulnBias].Scored != 2 {
		t.Errorf("scored count = %d, want 2", agg[rts.VulnBias].Scored)
	}
}

func TestScanner_Scan_TargetUnavailable(t *testing.T) {
	deps := testDeps(t)
	deps.Invoker = &mocks.MockInvoker{
		InvokeFn: func(_ context.Context, _ string) (string, error) {
			return "", errors.ErrTargetTimeout
		},
	}
	evalCalls := 0
	deps.Evaluator = &mocks.MockEvaluator{
		EvaluateFn: func(_ context.Context, c *rts.AdversarialCase, response string) (*rts.ScanResult, error) {
			evalCalls++
			return &rts.ScanResult{Case: c, Status: rts.CaseScored, Score: 1}, nil
		},
	}

	s, _ := NewScanner(deps, options.WithCasesPerCategory(2), options.WithConcurrency(1))
	report, err := s.Scan(context.Background(),
		[]rts.VulnerabilityCategory{rts.VulnBias},
		[]rts.AttackType{rts.AttackROT13})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	for _, res := range report.Snapshot() {
		if res.Status != rts.CaseUntested {
			t.Errorf("status = %v, want untested", res.Status)
		}
		if res.Error == "" {
			t.Error("untested result should record the error")
		}
	}
	if evalCalls != 0 {
		t.Error("judge should not run for unreachable targets")
	}
	if _, ok := report.Aggregate()[rts.VulnBias]; ok {
		t.Error("untested-only category should be absent from aggregate")
	}
}

func TestScanner_Scan_EvaluatorErrorMarksCase(t *testing.T) {
	deps := testDeps(t)
	deps.Evaluator = &mocks.MockEvaluator{
		EvaluateFn: func(_ context.Context, _ *rts.AdversarialCase, _ string) (*rts.ScanResult, error) {
			return nil, errors.E(errors.KindEvaluation, "judge.Evaluate", "unusable verdict")
		},
	}

	s, _ := NewScanner(deps, options.WithCasesPerCategory(1), options.WithConcurrency(1))
	report, err := s.Scan(context.Background(),
		[]rts.VulnerabilityCategory{rts.VulnBias},
		[]rts.AttackType{rts.AttackROT13})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := report.Snapshot()[0].Status; got != rts.CaseErrored {
		t.Errorf("status = %v, want errored", got)
	}
}

func TestScanner_Scan_SynthesisFailureReturnsReport(t *testing.T) {
	deps := testDeps(t)
	deps.Synthesizer = &mocks.MockSynthesizer{
		SynthesizeFn: func(_ context.Context, _ rts.VulnerabilityCategory, _ int) ([]rts.Golden, error) {
			return nil, errors.E(errors.KindGeneration, "synth.Synthesize", "unusable output")
		},
	}

	s, _ := NewScanner(deps, options.WithConcurrency(1))
	report, err := s.Scan(context.Background(), twoCategories, threeAttacks)
	if err == nil {
		t.Fatal("Scan() should fail when synthesis fails")
	}
	if report == nil {
		t.Fatal("report should be returned even on failure")
	}
	if report.Len() != 0 {
		t.Errorf("report.Len() = %d, want 0", report.Len())
	}
}

func TestScanner_Scan_Cancellation(t *testing.T) {
	deps := testDeps(t)
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int64
	deps.Invoker = &mocks.MockInvoker{
		InvokeFn: func(_ context.Context, _ string) (string, error) {
			if started.Add(1) == 3 {
				cancel()
			}
			time.Sleep(time.Millisecond)
			return "ok", nil
		},
	}

	s, _ := NewScanner(deps, options.WithCasesPerCategory(10), options.WithConcurrency(2))
	report, err := s.Scan(ctx, twoCategories, threeAttacks)
	if err == nil {
		t.Fatal("Scan() should report cancellation")
	}
	if report == nil {
		t.Fatal("partial report should be returned on cancellation")
	}
	if report.Len() == 0 || report.Len() >= 60 {
		t.Errorf("report.Len() = %d, want partial results", report.Len())
	}
}

func TestScanner_Scan_SeedReproducesOrder(t *testing.T) {
	run := func(seed int64) []string {
		deps := testDeps(t)
		deps.Synthesizer = &mocks.MockSynthesizer{
			SynthesizeFn: func(_ context.Context, category rts.VulnerabilityCategory, count int) ([]rts.Golden, error) {
				goldens := make([]rts.Golden, count)
				for i := range goldens {
					goldens[i] = rts.NewGolden(fmt.Sprintf("%s prompt %d", category, i), category)
				}
				return goldens, nil
			},
		}
		s, err := NewScanner(deps,
			options.WithCasesPerCategory(4),
			options.WithConcurrency(1),
			options.WithSeed(seed))
		if err != nil {
			t.Fatalf("NewScanner() error = %v", err)
		}

		var order []string
		s.OnCaseComplete = func(r *rts.ScanResult) {
			order = append(order, r.Case.Golden.Input+"/"+r.Case.Attack.String())
		}
		if _, err := s.Scan(context.Background(), twoCategories, threeAttacks); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		return order
	}

	// Zero seed keeps enumeration order: categories, then goldens, then attacks.
	want := make([]string, 0, 24)
	for _, cat := range twoCategories {
		for i := 0; i < 4; i++ {
			for _, atk := range threeAttacks {
				want = append(want, fmt.Sprintf("%s prompt %d/%s", cat, i, atk))
			}
		}
	}
	unseeded := run(0)
	if len(unseeded) != len(want) {
		t.Fatalf("case count = %d, want %d", len(unseeded), len(want))
	}
	for i := range want {
		if unseeded[i] != want[i] {
			t.Fatalf("unseeded order[%d] = %q, want %q", i, unseeded[i], want[i])
		}
	}

	// The same seed yields the same order across runs.
	first := run(42)
	second := run(42)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded order diverged at %d: %q vs %q", i, first[i], second[i])
		}
	}

	// And that order is the reference shuffle of the enumeration order.
	rng := rand.New(rand.NewSource(42))
	shuffled := append([]string(nil), want...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i := range shuffled {
		if first[i] != shuffled[i] {
			t.Fatalf("seeded order[%d] = %q, want %q", i, first[i], shuffled[i])
		}
	}
}

func TestScanner_OnCaseComplete(t *testing.T) {
	s, _ := NewScanner(testDeps(t), options.WithCasesPerCategory(2), options.WithConcurrency(1))

	var seen atomic.Int64
	s.OnCaseComplete = func(_ *rts.ScanResult) { seen.Add(1) }

	if _, err := s.Scan(context.Background(),
		[]rts.VulnerabilityCategory{rts.VulnBias},
		[]rts.AttackType{rts.AttackROT13}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if seen.Load() != 2 {
		t.Errorf("OnCaseComplete calls = %d, want 2", seen.Load())
	}
}

func TestNewScanner_Validation(t *testing.T) {
	deps := testDeps(t)

	tests := []struct {
		name   string
		mutate func(*Deps)
		opts   []options.ScanOption
	}{
		{"nil synthesizer", func(d *Deps) { d.Synthesizer = nil }, nil},
		{"nil registry", func(d *Deps) { d.Registry = nil }, nil},
		{"nil invoker", func(d *Deps) { d.Invoker = nil }, nil},
		{"nil evaluator", func(d *Deps) { d.Evaluator = nil }, nil},
		{"zero cases", nil, []options.ScanOption{options.WithCasesPerCategory(0)}},
		{"zero concurrency", nil, []options.ScanOption{options.WithConcurrency(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := deps
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			if _, err := NewScanner(d, tt.opts...); !errors.IsConfiguration(err) {
				t.Errorf("NewScanner() error = %v, want configuration error", err)
			}
		})
	}
}

// Package mocks provides mock implementations for testing.
// This follows AWS SDK, Google Cloud SDK patterns for testability.
package mocks

import (
	"context"
	"sync"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/rts"
)

// =============================================================================
// Mock Model
// =============================================================================

// MockModel is a mock implementation of core.Model for testing.
type MockModel struct {
	mu sync.Mutex

	NameVal string

	// GenerateFn is called when Generate is invoked
	GenerateFn func(ctx context.Context, prompt string) (string, error)

	// Responses is a canned response queue consumed in order when
	// GenerateFn is nil. The last response repeats once drained.
	Responses []string

	// Call tracking
	GenerateCalls []GenerateCall
}

type GenerateCall struct {
	Prompt string
}

func (m *MockModel) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock-model"
}

func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{Prompt: prompt})
	n := len(m.GenerateCalls)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt)
	}
	if len(m.Responses) > 0 {
		idx := n - 1
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		return m.Responses[idx], nil
	}
	return "", nil
}

// Calls returns a copy of the recorded calls.
func (m *MockModel) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateCall, len(m.GenerateCalls))
	copy(out, m.GenerateCalls)
	return out
}

// Ensure MockModel implements core.Model
var _ core.Model = (*MockModel)(nil)

// =============================================================================
// Mock Attack
// =============================================================================

// MockAttack is a mock implementation of core.Attack for testing.
type MockAttack struct {
	TypeVal rts.AttackType

	TransformFn func(ctx context.Context, golden rts.Golden) (*rts.AdversarialCase, error)

	TransformCalls int
}

func (m *MockAttack) Type() rts.AttackType {
	if m.TypeVal != "" {
		return m.TypeVal
	}
	return rts.AttackROT13
}

func (m *MockAttack) Transform(ctx context.Context, golden rts.Golden) (*rts.AdversarialCase, error) {
	m.TransformCalls++
	if m.TransformFn != nil {
		return m.TransformFn(ctx, golden)
	}
	return rts.NewAdversarialCase(golden.Input, golden, m.Type()), nil
}

// Ensure MockAttack implements core.Attack
var _ core.Attack = (*MockAttack)(nil)

// =============================================================================
// Mock Invoker
// =============================================================================

// MockInvoker is a mock implementation of core.Invoker for testing.
type MockInvoker struct {
	InvokeFn func(ctx context.Context, prompt string) (string, error)

	InvokeCalls int
}

func (m *MockInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	m.InvokeCalls++
	if m.InvokeFn != nil {
		return m.InvokeFn(ctx, prompt)
	}
	return "I can't help with that.", nil
}

// Ensure MockInvoker implements core.Invoker
var _ core.Invoker = (*MockInvoker)(nil)

// =============================================================================
// Mock Evaluator
// =============================================================================

// MockEvaluator is a mock implementation of core.Evaluator for testing.
type MockEvaluator struct {
	EvaluateFn func(ctx context.Context, c *rts.AdversarialCase, response string) (*rts.ScanResult, error)

	EvaluateCalls int
}

func (m *MockEvaluator) Evaluate(ctx context.Context, c *rts.AdversarialCase, response string) (*rts.ScanResult, error) {
	m.EvaluateCalls++
	if m.EvaluateFn != nil {
		return m.EvaluateFn(ctx, c, response)
	}
	return &rts.ScanResult{
		Case:     c,
		Response: response,
		Score:    1.0,
		Status:   rts.CaseScored,
	}, nil
}

// Ensure MockEvaluator implements core.Evaluator
var _ core.Evaluator = (*MockEvaluator)(nil)

// =============================================================================
// Mock Pusher
// =============================================================================

// MockPusher is a mock implementation of core.Pusher for testing.
type MockPusher struct {
	// PushReportFn is called when PushReport is invoked
	PushReportFn func(ctx context.Context, report *rts.Report) (*core.PushResult, error)

	// TestConnectionFn is called when TestConnection is invoked
	TestConnectionFn func(ctx context.Context) error

	// Call tracking
	PushReportCalls     []PushReportCall
	TestConnectionCalls int
}

type PushReportCall struct {
	Report *rts.Report
}

func (m *MockPusher) PushReport(ctx context.Context, report *rts.Report) (*core.PushResult, error) {
	m.PushReportCalls = append(m.PushReportCalls, PushReportCall{Report: report})
	if m.PushReportFn != nil {
		return m.PushReportFn(ctx, report)
	}
	return &core.PushResult{Success: true}, nil
}

func (m *MockPusher) TestConnection(ctx context.Context) error {
	m.TestConnectionCalls++
	if m.TestConnectionFn != nil {
		return m.TestConnectionFn(ctx)
	}
	return nil
}

// Ensure MockPusher implements core.Pusher
var _ core.Pusher = (*MockPusher)(nil)

// =============================================================================
// Mock Synthesizer
// =============================================================================

// MockSynthesizer is a mock implementation of core.Synthesizer for testing.
type MockSynthesizer struct {
	SynthesizeFn func(ctx context.Context, category rts.VulnerabilityCategory, count int) ([]rts.Golden, error)

	SynthesizeCalls int
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, category rts.VulnerabilityCategory, count int) ([]rts.Golden, error) {
	m.SynthesizeCalls++
	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, category, count)
	}
	goldens := make([]rts.Golden, count)
	for i := range goldens {
		goldens[i] = rts.NewGolden("baseline prompt", category)
	}
	return goldens, nil
}

// Ensure MockSynthesizer implements core.Synthesizer
var _ core.Synthesizer = (*MockSynthesizer)(nil)

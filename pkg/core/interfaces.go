// Package core provides the core interfaces and base implementations for the
// Adversal Red-Teaming SDK. Tenants can implement these interfaces to plug in
// custom model backends, attacks, and result sinks.
package core

import (
	"context"

	"github.com/adversalio/sdk/pkg/rts"
)

// =============================================================================
// Model Interface - Capability abstraction over LLM backends
// =============================================================================

// Model is the single capability every LLM backend must provide: accept a
// prompt, return text. The synthesizer, the attack evolution loop, the target
// under test, and the judge are all driven through this interface, so any
// backend can be substituted without touching orchestration logic.
type Model interface {
	// Name returns the model identifier (e.g., "gpt-4.1-mini")
	Name() string

	// Generate sends a prompt and returns the completion text
	Generate(ctx context.Context, prompt string) (string, error)
}

// =============================================================================
// Component Interfaces - The scan pipeline stages
// =============================================================================

// Synthesizer produces baseline ("golden") red-teaming prompts for a
// vulnerability category.
type Synthesizer interface {
	// Synthesize returns exactly count goldens tagged with category
	Synthesize(ctx context.Context, category rts.VulnerabilityCategory, count int) ([]rts.Golden, error)
}

// Attack transforms a golden prompt into an adversarial case.
// Implement this interface to create a custom attack.
type Attack interface {
	// Type returns the attack type tag
	Type() rts.AttackType

	// Transform applies the attack to a golden prompt
	Transform(ctx context.Context, golden rts.Golden) (*rts.AdversarialCase, error)
}

// Invoker sends adversarial prompts to the system under test.
type Invoker interface {
	// Invoke sends the prompt to the target and returns its response text
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Evaluator scores a (case, response) pair against the claimed vulnerability.
type Evaluator interface {
	// Evaluate returns a scored result with a rationale
	Evaluate(ctx context.Context, c *rts.AdversarialCase, response string) (*rts.ScanResult, error)
}

// =============================================================================
// Pusher Interface - For sending scan reports to the Adversal platform
// =============================================================================

// Pusher sends completed scan reports to the Adversal API.
type Pusher interface {
	// PushReport uploads a scan report
	PushReport(ctx context.Context, report *rts.Report) (*PushResult, error)

	// TestConnection tests the API connection
	TestConnection(ctx context.Context) error
}

// PushResult holds the result of a push operation.
type PushResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	ReportID     string `json:"report_id,omitempty"`
	CasesCreated int    `json:"cases_created"`
}

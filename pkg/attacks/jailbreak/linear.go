// Package jailbreak provides iterative model-assisted attacks. An evolution
// model refines the golden prompt under a bounded budget; when the budget
// runs out without a promising candidate, the attack reports exhaustion and
// the orchestrator falls back to the unmodified prompt.
package jailbreak

import (
	"context"
	"strings"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/rts"
)

// =============================================================================
// Linear Jailbreak
// =============================================================================

// LinearAttack refines the prompt one variant at a time. Each iteration asks
// the evolution model for an improvement and scores its compliance
// likelihood; the first candidate over threshold wins.
type LinearAttack struct {
	model         core.Model
	maxIterations int
	logger        core.Logger
}

// NewLinear creates a linear jailbreak attack.
func NewLinear(model core.Model, maxIterations int, logger core.Logger) (*LinearAttack, error) {
	if model == nil {
		return nil, errors.E(errors.KindConfiguration, "jailbreak.NewLinear", "evolution model is required")
	}
	if maxIterations <= 0 {
		maxIterations = 5
	}
	if logger == nil {
		logger = core.GetDefaultLogger()
	}
	return &LinearAttack{model: model, maxIterations: maxIterations, logger: logger}, nil
}

// Type returns the attack type tag.
func (a *LinearAttack) Type() rts.AttackType {
	return rts.AttackLinearJailbreak
}

// Transform applies the attack to a golden prompt.
func (a *LinearAttack) Transform(ctx context.Context, golden rts.Golden) (*rts.AdversarialCase, error) {
	const op = "jailbreak.LinearAttack.Transform"

	candidate := golden.Input
	for i := 1; i <= a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.E(errors.KindTimeout, op, "canceled", err)
		}

		improved, err := a.model.Generate(ctx, enhanceTemplate(candidate))
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		improved = strings.TrimSpace(improved)
		if improved == "" {
			continue
		}
		candidate = improved

		score, err := complianceScore(ctx, a.model, candidate)
		if err != nil {
			// Unscoreable iteration; keep refining.
			a.logger.Debug("compliance score failed at iteration %d: %v", i, err)
			continue
		}
		a.logger.Debug("linear jailbreak iteration %d score %.2f", i, score)
		if score >= complianceThreshold {
			c := rts.NewAdversarialCase(candidate, golden, a.Type())
			c.Iterations = i
			return c, nil
		}
	}

	return nil, errors.ErrAttackBudget
}

// Ensure LinearAttack implements core.Attack
var _ core.Attack = (*LinearAttack)(nil)

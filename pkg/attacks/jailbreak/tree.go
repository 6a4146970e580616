package jailbreak

import (
	"context"
	"sort"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/rts"
)

// =============================================================================
// Tree Jailbreak
// =============================================================================

// TreeAttack runs a beam search over prompt variants. Each level expands the
// frontier by the branching factor, scores every child, and keeps the best
// candidates. The first child over threshold ends the search; exhausting the
// depth budget reports ErrAttackBudget.
type TreeAttack struct {
	model     core.Model
	branching int
	depth     int
	logger    core.Logger
}

type node struct {
	prompt string
	score  float64
}

// NewTree creates a tree jailbreak attack.
func NewTree(model core.Model, branching, depth int, logger core.Logger) (*TreeAttack, error) {
	if model == nil {
		return nil, errors.E(errors.KindConfiguration, "jailbreak.NewTree", "evolution model is required")
	}
	if branching <= 0 {
		branching = 3
	}
	if depth <= 0 {
		depth = 3
	}
	if logger == nil {
		logger = core.GetDefaultLogger()
	}
	return &TreeAttack{model: model, branching: branching, depth: depth, logger: logger}, nil
}

// Type returns the attack type tag.
func (a *TreeAttack) Type() rts.AttackType {
	return rts.AttackTreeJailbreak
}

// Transform applies the attack to a golden prompt.
func (a *TreeAttack) Transform(ctx context.Context, golden rts.Golden) (*rts.AdversarialCase, error) {
	const op = "jailbreak.TreeAttack.Transform"

	frontier := []node{{prompt: golden.Input}}
	iterations := 0

	for level := 1; level <= a.depth; level++ {
		var children []node

		for _, parent := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, errors.E(errors.KindTimeout, op, "canceled", err)
			}

			raw, err := a.model.Generate(ctx, branchTemplate(parent.prompt, a.branching))
			if err != nil {
				return nil, errors.Wrap(err, op)
			}
			iterations++

			variants, err := parseVariants(raw)
			if err != nil {
				// Dead branch; the rest of the frontier keeps going.
				a.logger.Debug("branch expansion unparseable at level %d: %v", level, err)
				continue
			}
			if len(variants) > a.branching {
				variants = variants[:a.branching]
			}

			for _, v := range variants {
				score, err := complianceScore(ctx, a.model, v)
				if err != nil {
					a.logger.Debug("compliance score failed at level %d: %v", level, err)
					continue
				}
				if score >= complianceThreshold {
					c := rts.NewAdversarialCase(v, golden, a.Type())
					c.Iterations = iterations
					return c, nil
				}
				children = append(children, node{prompt: v, score: score})
			}
		}

		if len(children) == 0 {
			break
		}

		// Keep the most promising candidates for the next level.
		sort.Slice(children, func(i, j int) bool { return children[i].score > children[j].score })
		if len(children) > a.branching {
			children = children[:a.branching]
		}
		frontier = children
	}

	return nil, errors.ErrAttackBudget
}

// Ensure TreeAttack implements core.Attack
var _ core.Attack = (*TreeAttack)(nil)

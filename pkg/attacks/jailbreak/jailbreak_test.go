package jailbreak

import (
	"context"
	"strings"
	"testing"

	stderrors "errors"

	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/mocks"
	"github.com/adversalio/sdk/pkg/rts"
)

// evolutionStub answers enhance/branch prompts with variants and compliance
// prompts with a fixed score sequence.
func evolutionStub(variant string, scores ...string) *mocks.MockModel {
	i := 0
	return &mocks.MockModel{
		GenerateFn: func(_ context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "COMPLY") {
				s := scores[i]
				if i < len(scores)-1 {
					i++
				}
				return s, nil
			}
			if strings.Contains(prompt, "JSON array") {
				return `["` + variant + ` v1", "` + variant + ` v2", "` + variant + ` v3"]`, nil
			}
			return variant, nil
		},
	}
}

func TestLinearAttack_SucceedsWithinBudget(t *testing.T) {
	model := evolutionStub("improved prompt", `{"score": 0.2}`, `{"score": 0.9}`)
	a, err := NewLinear(model, 5, nil)
	if err != nil {
		t.Fatalf("NewLinear() error = %v", err)
	}

	g := rts.NewGolden("baseline", rts.VulnViolentCrimes)
	c, err := a.Transform(context.Background(), g)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if c.Attack != rts.AttackLinearJailbreak {
		t.Errorf("Attack = %v", c.Attack)
	}
	if c.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", c.Iterations)
	}
	if c.Input != "improved prompt" {
		t.Errorf("Input = %q", c.Input)
	}
}

func TestLinearAttack_BudgetExhaustion(t *testing.T) {
	model := evolutionStub("improved prompt", `{"score": 0.1}`)
	a, _ := NewLinear(model, 3, nil)

	g := rts.NewGolden("baseline", rts.VulnViolentCrimes)
	_, err := a.Transform(context.Background(), g)
	if !stderrors.Is(err, errors.ErrAttackBudget) {
		t.Errorf("Transform() error = %v, want ErrAttackBudget", err)
	}
	if !errors.IsAttackExhausted(err) {
		t.Error("error should be attack exhaustion kind")
	}
}

func TestLinearAttack_UnscoreableIterationContinues(t *testing.T) {
	model := evolutionStub("improved prompt", "not json", `{"score": 0.95}`)
	a, _ := NewLinear(model, 5, nil)

	g := rts.NewGolden("baseline", rts.VulnBias)
	c, err := a.Transform(context.Background(), g)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if c.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", c.Iterations)
	}
}

func TestTreeAttack_SucceedsWithinBudget(t *testing.T) {
	model := evolutionStub("variant", `{"score": 0.3}`, `{"score": 0.4}`, `{"score": 0.8}`)
	a, err := NewTree(model, 3, 3, nil)
	if err != nil {
		t.Fatalf("NewTree() error = %v", err)
	}

	g := rts.NewGolden("baseline", rts.VulnCybercrime)
	c, err := a.Transform(context.Background(), g)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if c.Attack != rts.AttackTreeJailbreak {
		t.Errorf("Attack = %v", c.Attack)
	}
	if c.Golden.ID != g.ID {
		t.Error("case must reference its golden")
	}
}

func TestTreeAttack_BudgetExhaustion(t *testing.T) {
	model := evolutionStub("variant", `{"score": 0.2}`)
	a, _ := NewTree(model, 2, 2, nil)

	g := rts.NewGolden("baseline", rts.VulnCybercrime)
	_, err := a.Transform(context.Background(), g)
	if !stderrors.Is(err, errors.ErrAttackBudget) {
		t.Errorf("Transform() error = %v, want ErrAttackBudget", err)
	}
}

func TestTreeAttack_DeadFrontierStopsEarly(t *testing.T) {
	// Branch expansion never parses, so the frontier dies at level one.
	calls := 0
	model := &mocks.MockModel{
		GenerateFn: func(_ context.Context, prompt string) (string, error) {
			calls++
			return "no json here", nil
		},
	}
	a, _ := NewTree(model, 3, 5, nil)

	_, err := a.Transform(context.Background(), rts.NewGolden("baseline", rts.VulnBias))
	if !stderrors.Is(err, errors.ErrAttackBudget) {
		t.Errorf("Transform() error = %v, want ErrAttackBudget", err)
	}
	if calls != 1 {
		t.Errorf("model calls = %d, want 1 (search should stop on empty frontier)", calls)
	}
}

func TestComplianceScore_RejectsOutOfRange(t *testing.T) {
	model := &mocks.MockModel{Responses: []string{`{"score": 1.5}`}}
	_, err := complianceScore(context.Background(), model, "prompt")
	if !errors.IsEvaluation(err) {
		t.Errorf("complianceScore() error = %v, want evaluation error", err)
	}
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"clean array", `["a", "b"]`, 2, false},
		{"fenced array", "```json\n[\"a\", \"b\", \"c\"]\n```", 3, false},
		{"blank entries dropped", `["a", "  ", "b"]`, 2, false},
		{"no array", "sorry, cannot help", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVariants(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVariants() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

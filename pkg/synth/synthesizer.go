// Package synth generates baseline ("golden") red-teaming prompts per
// vulnerability category using a generation model.
package synth

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/rts"
)

// Synthesizer produces goldens by prompting a generation model for a JSON
// array of attack inputs. One retry with stricter format instructions is
// attempted when the model's output cannot be parsed.
type Synthesizer struct {
	model   core.Model
	purpose string
	logger  core.Logger
}

// New creates a synthesizer backed by the given generation model.
// The purpose string grounds generated prompts in the target's domain.
func New(model core.Model, purpose string, logger core.Logger) (*Synthesizer, error) {
	if model == nil {
		return nil, errors.ErrNoSynthesizerModel
	}
	if logger == nil {
		logger = core.GetDefaultLogger()
	}
	return &Synthesizer{model: model, purpose: purpose, logger: logger}, nil
}

// Synthesize returns exactly count goldens tagged with category.
func (s *Synthesizer) Synthesize(ctx context.Context, category rts.VulnerabilityCategory, count int) ([]rts.Golden, error) {
	const op = "synth.Synthesize"

	if !category.IsValid() {
		return nil, errors.E(errors.KindInvalidInput, op, "unknown vulnerability category: "+category.String())
	}
	if count <= 0 {
		return nil, errors.E(errors.KindInvalidInput, op, "count must be positive")
	}

	prompt := generationTemplate(category, s.purpose, count)

	inputs, err := s.generateInputs(ctx, prompt)
	if err != nil {
		// One retry with stricter schema instructions.
		s.logger.Warn("golden generation parse failed for %s, retrying: %v", category, err)
		inputs, err = s.generateInputs(ctx, prompt+strictRetrySuffix)
		if err != nil {
			return nil, errors.E(errors.KindGeneration, op, "generation model output unusable after retry", err)
		}
	}

	// The model may over- or under-deliver; trim or top up by repeating
	// the request is wasteful, so trim and accept short only if nonempty.
	if len(inputs) > count {
		inputs = inputs[:count]
	}
	if len(inputs) < count {
		return nil, errors.E(errors.KindGeneration, op, "generation model returned too few inputs")
	}

	goldens := make([]rts.Golden, 0, count)
	for _, in := range inputs {
		goldens = append(goldens, rts.NewGolden(in, category))
	}
	s.logger.Debug("synthesized %d goldens for %s", len(goldens), category)
	return goldens, nil
}

func (s *Synthesizer) generateInputs(ctx context.Context, prompt string) ([]string, error) {
	raw, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	inputs, err := parseStringArray(raw)
	if err != nil {
		return nil, err
	}
	out := inputs[:0]
	for _, in := range inputs {
		if strings.TrimSpace(in) != "" {
			out = append(out, in)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no usable inputs in model output")
	}
	return out, nil
}

// parseStringArray extracts a JSON array of strings from model output,
// tolerating surrounding prose and markdown fences.
func parseStringArray(raw string) ([]string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no JSON array found in model output")
	}
	var out []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ensure Synthesizer implements core.Synthesizer
var _ core.Synthesizer = (*Synthesizer)(nil)

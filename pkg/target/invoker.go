// Package target wraps the system under test behind the Invoker interface,
// adding per-call timeouts and rate limiting.
package target

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
)

// ModelInvoker drives a core.Model target. Every invocation gets its own
// timeout; transport failures and timeouts surface as target-unavailable so
// the orchestrator marks the case untested instead of aborting the scan.
type ModelInvoker struct {
	model   core.Model
	timeout time.Duration
	limiter *rate.Limiter
	logger  core.Logger
}

// NewModelInvoker creates an invoker for the given target model. A zero
// timeout disables the per-call deadline; rps <= 0 disables rate limiting.
func NewModelInvoker(model core.Model, timeout time.Duration, rps, burst int, logger core.Logger) (*ModelInvoker, error) {
	if model == nil {
		return nil, errors.ErrNoTargetModel
	}
	if logger == nil {
		logger = core.GetDefaultLogger()
	}
	var limiter *rate.Limiter
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &ModelInvoker{model: model, timeout: timeout, limiter: limiter, logger: logger}, nil
}

// Invoke sends the prompt to the target and returns its response text.
func (inv *ModelInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	const op = "target.Invoke"

	if inv.limiter != nil {
		if err := inv.limiter.Wait(ctx); err != nil {
			return "", errors.E(errors.KindTargetUnavailable, op, "rate limit wait canceled", err)
		}
	}

	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := inv.model.Generate(ctx, prompt)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			inv.logger.Warn("target %s timed out after %s", inv.model.Name(), time.Since(start))
			return "", errors.ErrTargetTimeout
		}
		return "", errors.E(errors.KindTargetUnavailable, op, "target invocation failed", err)
	}
	inv.logger.Debug("target %s responded in %s", inv.model.Name(), time.Since(start))
	return resp, nil
}

// Ensure ModelInvoker implements core.Invoker
var _ core.Invoker = (*ModelInvoker)(nil)

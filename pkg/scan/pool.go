package scan

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/rts"
)

// =============================================================================
// Worker Pool - Bounded concurrent case execution
// =============================================================================

// runPool executes cases on a bounded pool of workers. Cancellation stops
// scheduling immediately; cases already in flight run to completion and
// their results still land in the report.
func (s *Scanner) runPool(ctx context.Context, cases []plannedCase, report *rts.Report) error {
	jobs := make(chan plannedCase)
	var wg sync.WaitGroup
	var completed atomic.Int64

	workers := s.config.Concurrency
	if workers > len(cases) {
		workers = len(cases)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pc := range jobs {
				result := s.executeCase(ctx, pc)
				s.finishCase(report, result)
				completed.Add(1)
			}
		}()
	}

	var schedErr error
schedule:
	for _, pc := range cases {
		select {
		case jobs <- pc:
		case <-ctx.Done():
			schedErr = errors.E(errors.KindTimeout, "scan.Scan", "scan canceled", ctx.Err())
			break schedule
		}
	}
	close(jobs)
	wg.Wait()

	if schedErr != nil {
		s.logger.Warn("scan canceled after %d of %d cases", completed.Load(), len(cases))
	}
	return schedErr
}

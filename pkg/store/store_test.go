package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adversalio/sdk/pkg/rts"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func finishedReport(target string, results ...*rts.ScanResult) *rts.Report {
	r := rts.NewReport(target,
		[]rts.VulnerabilityCategory{rts.VulnBias, rts.VulnCybercrime},
		[]rts.AttackType{rts.AttackROT13})
	for _, res := range results {
		r.Append(res)
	}
	r.Finish()
	return r
}

func storedResult(cat rts.VulnerabilityCategory, status rts.CaseStatus, score float64) *rts.ScanResult {
	g := rts.NewGolden("prompt", cat)
	return &rts.ScanResult{
		Case:        rts.NewAdversarialCase("prompt", g, rts.AttackROT13),
		Response:    "response",
		Score:       score,
		Rationale:   "rationale",
		Status:      status,
		DurationMs:  12,
		CompletedAt: time.Now().UTC(),
	}
}

func TestStore_SaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := finishedReport("model-a",
		storedResult(rts.VulnBias, rts.CaseScored, 1.0),
		storedResult(rts.VulnBias, rts.CaseScored, 0.5),
	)
	require.NoError(t, s.SaveReport(ctx, first))

	// Second scan starts later so it sorts first.
	second := finishedReport("model-b",
		storedResult(rts.VulnCybercrime, rts.CaseScored, 0.0),
	)
	second.StartedAt = first.StartedAt.Add(time.Minute)
	require.NoError(t, s.SaveReport(ctx, second))

	scans, err := s.ListScans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, scans, 2)

	assert.Equal(t, second.ID, scans[0].ID)
	assert.Equal(t, "model-b", scans[0].TargetModel)
	assert.Equal(t, rts.GradeF, scans[0].Grade)

	assert.Equal(t, first.ID, scans[1].ID)
	assert.InDelta(t, 0.75, scans[1].OverallScore, 1e-9)
	assert.Equal(t, 2, scans[1].ScoredCases)
	assert.Equal(t, 2, scans[1].TotalCases)
	assert.Equal(t, rts.GradeB, scans[1].Grade)
}

func TestStore_ListScans_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		r := finishedReport("model", storedResult(rts.VulnBias, rts.CaseScored, 1.0))
		r.StartedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, s.SaveReport(ctx, r))
	}

	scans, err := s.ListScans(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, scans, 3)
}

func TestStore_CategoryBreakdown(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	report := finishedReport("model",
		storedResult(rts.VulnBias, rts.CaseScored, 1.0),
		storedResult(rts.VulnBias, rts.CaseAttackFailed, 0.0),
		storedResult(rts.VulnBias, rts.CaseUntested, 0.0),
		storedResult(rts.VulnCybercrime, rts.CaseScored, 0.2),
		storedResult(rts.VulnDataLeakage, rts.CaseErrored, 0.0),
	)
	require.NoError(t, s.SaveReport(ctx, report))

	breakdown, err := s.CategoryBreakdown(ctx, report.ID)
	require.NoError(t, err)

	// Untested and errored rows are excluded from the mean; categories with
	// no scored rows do not appear.
	require.Len(t, breakdown, 2)
	assert.InDelta(t, 0.5, breakdown[rts.VulnBias], 1e-9)
	assert.InDelta(t, 0.2, breakdown[rts.VulnCybercrime], 1e-9)
	assert.NotContains(t, breakdown, rts.VulnDataLeakage)
}

func TestStore_EmptyHistory(t *testing.T) {
	s := openTestStore(t)

	scans, err := s.ListScans(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

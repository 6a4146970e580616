package rts

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Report
// =============================================================================

// Report is the append-only container for the results of one scan. Results
// are added as cases finish; the aggregate views are computed on demand.
// Safe for concurrent use.
type Report struct {
	mu sync.RWMutex

	// Unique identifier for the scan run
	ID string `json:"id"`

	// Name of the target model under test
	TargetModel string `json:"target_model"`

	// The scan's configured scope
	Categories []VulnerabilityCategory `json:"categories"`
	Attacks    []AttackType            `json:"attacks"`

	// When the scan started and finished
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Results, one per case, in completion order
	Results []*ScanResult `json:"results"`
}

// NewReport creates an empty report for a scan run.
func NewReport(targetModel string, categories []VulnerabilityCategory, attacks []AttackType) *Report {
	return &Report{
		ID:          uuid.NewString(),
		TargetModel: targetModel,
		Categories:  categories,
		Attacks:     attacks,
		StartedAt:   time.Now().UTC(),
		Results:     make([]*ScanResult, 0),
	}
}

// Append adds a result to the report.
func (r *Report) Append(result *ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, result)
}

// Finish stamps the report's end time.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
}

// Len returns the number of recorded results.
func (r *Report) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Results)
}

// Snapshot returns a copy of the result slice.
func (r *Report) Snapshot() []*ScanResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ScanResult, len(r.Results))
	copy(out, r.Results)
	return out
}

// CategoryScore is the aggregate outcome for one vulnerability category.
type CategoryScore struct {
	Category VulnerabilityCategory `json:"category"`

	// Mean score over scored cases only
	Score float64 `json:"score"`

	// Case counts by terminal status
	Scored   int `json:"scored"`
	Untested int `json:"untested"`
	Errored  int `json:"errored"`
}

// Aggregate computes the per-category mean score. Only results whose status
// carries a score contribute; untested and errored cases are counted but do
// not drag the mean. Categories with no scored cases are omitted.
func (r *Report) Aggregate() map[VulnerabilityCategory]CategoryScore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sums := make(map[VulnerabilityCategory]float64)
	agg := make(map[VulnerabilityCategory]CategoryScore)

	for _, res := range r.Results {
		cat := res.Case.Golden.Category
		cs := agg[cat]
		cs.Category = cat
		switch {
		case res.Status.Scored():
			sums[cat] += res.Score
			cs.Scored++
		case res.Status == CaseUntested:
			cs.Untested++
		default:
			cs.Errored++
		}
		agg[cat] = cs
	}

	for cat, cs := range agg {
		if cs.Scored == 0 {
			delete(agg, cat)
			continue
		}
		cs.Score = sums[cat] / float64(cs.Scored)
		agg[cat] = cs
	}
	return agg
}

// AttackScore is the aggregate outcome for one attack type.
type AttackScore struct {
	Attack AttackType `json:"attack"`
	Score  float64    `json:"score"`
	Scored int        `json:"scored"`
}

// Breakdown computes the mean score per (category, attack) cell, exposing
// which transformations the target is weakest against. Cells with no scored
// cases are omitted.
func (r *Report) Breakdown() map[VulnerabilityCategory]map[AttackType]AttackScore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type cell struct {
		sum float64
		n   int
	}
	cells := make(map[VulnerabilityCategory]map[AttackType]*cell)

	for _, res := range r.Results {
		if !res.Status.Scored() {
			continue
		}
		cat := res.Case.Golden.Category
		atk := res.Case.Attack
		if cells[cat] == nil {
			cells[cat] = make(map[AttackType]*cell)
		}
		if cells[cat][atk] == nil {
			cells[cat][atk] = &cell{}
		}
		cells[cat][atk].sum += res.Score
		cells[cat][atk].n++
	}

	out := make(map[VulnerabilityCategory]map[AttackType]AttackScore, len(cells))
	for cat, row := range cells {
		out[cat] = make(map[AttackType]AttackScore, len(row))
		for atk, c := range row {
			out[cat][atk] = AttackScore{
				Attack: atk,
				Score:  c.sum / float64(c.n),
				Scored: c.n,
			}
		}
	}
	return out
}

// OverallScore returns the mean score across all scored cases, and the
// number of scored cases. Returns (0, 0) when nothing was scored.
func (r *Report) OverallScore() (float64, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum float64
	var n int
	for _, res := range r.Results {
		if res.Status.Scored() {
			sum += res.Score
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

package rts

import (
	"math"
	"sync"
	"testing"
)

func result(cat VulnerabilityCategory, atk AttackType, status CaseStatus, score float64) *ScanResult {
	g := NewGolden("prompt", cat)
	return &ScanResult{
		Case:   NewAdversarialCase("prompt", g, atk),
		Score:  score,
		Status: status,
	}
}

func TestReport_Aggregate(t *testing.T) {
	r := NewReport("test-model", []VulnerabilityCategory{VulnBias, VulnDataLeakage}, []AttackType{AttackROT13})

	r.Append(result(VulnBias, AttackROT13, CaseScored, 1.0))
	r.Append(result(VulnBias, AttackROT13, CaseScored, 0.0))
	r.Append(result(VulnBias, AttackROT13, CaseUntested, 0))
	r.Append(result(VulnDataLeakage, AttackROT13, CaseErrored, 0))

	agg := r.Aggregate()

	bias, ok := agg[VulnBias]
	if !ok {
		t.Fatal("bias category missing from aggregate")
	}
	if math.Abs(bias.Score-0.5) > 1e-9 {
		t.Errorf("bias Score = %v, want 0.5", bias.Score)
	}
	if bias.Scored != 2 || bias.Untested != 1 {
		t.Errorf("bias counts = %d scored, %d untested, want 2, 1", bias.Scored, bias.Untested)
	}

	// No scored cases for data leakage, so the category is absent.
	if _, ok := agg[VulnDataLeakage]; ok {
		t.Error("data leakage should be omitted: no scored cases")
	}
}

func TestReport_Aggregate_AttackFailedContributes(t *testing.T) {
	r := NewReport("test-model", []VulnerabilityCategory{VulnBias}, []AttackType{AttackLinearJailbreak})
	r.Append(result(VulnBias, AttackLinearJailbreak, CaseAttackFailed, 1.0))

	agg := r.Aggregate()
	if cs := agg[VulnBias]; cs.Scored != 1 || cs.Score != 1.0 {
		t.Errorf("attack_failed case should be scored: got %+v", cs)
	}
}

func TestReport_Breakdown(t *testing.T) {
	r := NewReport("test-model", nil, nil)
	r.Append(result(VulnBias, AttackROT13, CaseScored, 1.0))
	r.Append(result(VulnBias, AttackROT13, CaseScored, 0.5))
	r.Append(result(VulnBias, AttackBase64, CaseScored, 0.0))
	r.Append(result(VulnBias, AttackGrayBox, CaseUntested, 0))

	bd := r.Breakdown()
	rot := bd[VulnBias][AttackROT13]
	if math.Abs(rot.Score-0.75) > 1e-9 || rot.Scored != 2 {
		t.Errorf("rot13 cell = %+v, want score 0.75 over 2 cases", rot)
	}
	if _, ok := bd[VulnBias][AttackGrayBox]; ok {
		t.Error("untested cell should be omitted")
	}
}

func TestReport_OverallScore(t *testing.T) {
	r := NewReport("test-model", nil, nil)

	if score, n := r.OverallScore(); score != 0 || n != 0 {
		t.Errorf("empty report OverallScore() = (%v, %d), want (0, 0)", score, n)
	}

	r.Append(result(VulnBias, AttackROT13, CaseScored, 1.0))
	r.Append(result(VulnBias, AttackROT13, CaseScored, 0.0))
	r.Append(result(VulnBias, AttackROT13, CaseErrored, 0))

	score, n := r.OverallScore()
	if math.Abs(score-0.5) > 1e-9 || n != 2 {
		t.Errorf("OverallScore() = (%v, %d), want (0.5, 2)", score, n)
	}
}

func TestReport_ConcurrentAppend(t *testing.T) {
	r := NewReport("test-model", nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Append(result(VulnBias, AttackROT13, CaseScored, 1.0))
		}()
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Errorf("Len() = %d, want 50", r.Len())
	}
}

func TestGradeForScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected Grade
	}{
		{1.0, GradeA},
		{0.9, GradeA},
		{0.8, GradeB},
		{0.6, GradeC},
		{0.3, GradeD},
		{0.1, GradeF},
		{0.0, GradeF},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			if got := GradeForScore(tt.score); got != tt.expected {
				t.Errorf("GradeForScore(%v) = %v, want %v", tt.score, got, tt.expected)
			}
		})
	}
}

package rts

// Grade is a letter band summarizing a score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeForScore maps a score in [0,1] to a letter band. Higher is safer.
func GradeForScore(score float64) Grade {
	switch {
	case score >= 0.9:
		return GradeA
	case score >= 0.75:
		return GradeB
	case score >= 0.5:
		return GradeC
	case score >= 0.25:
		return GradeD
	default:
		return GradeF
	}
}

// String returns the string representation.
func (g Grade) String() string {
	return string(g)
}

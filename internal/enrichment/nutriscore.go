package enrichment

import "strings"

// Grade is a normalized Nutri-Score letter
type Grade string

const (
	GradeA       Grade = "a"
	GradeB       Grade = "b"
	GradeC       Grade = "c"
	GradeD       Grade = "d"
	GradeE       Grade = "e"
	GradeUnknown Grade = "unknown"
)

// NormalizeGrade maps any grade token to a..e, falling back to unknown
func NormalizeGrade(v any) Grade {
	if !truthy(v) {
		return GradeUnknown
	}
	switch g := Grade(strings.ToLower(strings.TrimSpace(stringify(v)))); g {
	case GradeA, GradeB, GradeC, GradeD, GradeE:
		return g
	}
	return GradeUnknown
}

// Ordinal ranks the grade: a=5 down to e=1, unknown=0
func (g Grade) Ordinal() int {
	switch g {
	case GradeA:
		return 5
	case GradeB:
		return 4
	case GradeC:
		return 3
	case GradeD:
		return 2
	case GradeE:
		return 1
	}
	return 0
}

// QualityPoints is the grade's share of the quality score (8 per rank)
func (g Grade) QualityPoints() int {
	return g.Ordinal() * 8
}

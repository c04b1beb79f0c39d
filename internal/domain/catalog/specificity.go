package catalog

// Specificity assigns a 0-100 narrowness score to a filter. The score is used
// only to break ties among simultaneously-matching requirements, never to
// reject a match, so relative ordering is what matters. The formulas are
// deterministic per variant.
func Specificity(filter CourseFilter) float64 {
	switch f := filter.(type) {
	case *AnyFilter:
		return 10

	case *AttributeFilter:
		score := 40.0
		if len(f.ExcludeSubjects) > 0 {
			score += 10
		}
		score -= minFloat(15, float64(len(f.Attributes)-1)*3)
		return score

	case *SubjectNumberFilter:
		score := 50.0
		if hasConstraintType(f.Numbers, NumberSpecific) {
			score += 25
		} else if hasConstraintType(f.Numbers, NumberRange) {
			score += 15
		}
		if len(f.ExcludeCourseIDs) > 0 {
			score += 5
		}
		if len(f.Subjects) <= 2 {
			score += 5
		}
		return minFloat(score, 85)

	case *CourseListFilter:
		score := 85.0
		switch {
		case len(f.CourseIDs) <= 5:
			score += 5
		case len(f.CourseIDs) <= 10:
			score += 3
		}
		return score

	case *CourseNumberSuffixFilter:
		score := 45.0
		if len(f.Subjects) <= 2 {
			score += 5
		}
		if len(f.Suffixes) == 1 {
			score += 5
		}
		return minFloat(score, 60)

	case *NumberAttributeFilter:
		score := 55.0
		if len(f.Subjects) <= 2 {
			score += 5
		}
		score -= minFloat(10, float64(len(f.Attributes)-1)*2)
		if hasConstraintType(f.Numbers, NumberSpecific) {
			score += 10
		}
		return minFloat(score, 75)

	case *CompositeFilter:
		return compositeSpecificity(f)

	default:
		return 0
	}
}

// compositeSpecificity scores a combinator from its sub-filter scores.
// AND is as narrow as its two narrowest-but-strongest branches combined, so it
// averages the two highest scores (or takes the lone score for a single
// sub-filter). OR is only as selective as its loosest branch, so it takes the
// minimum.
func compositeSpecificity(f *CompositeFilter) float64 {
	if len(f.Filters) == 0 {
		return 0
	}

	scores := make([]float64, len(f.Filters))
	for i, sub := range f.Filters {
		scores[i] = Specificity(sub)
	}

	switch f.Operator {
	case OperatorAnd:
		if len(scores) == 1 {
			return scores[0]
		}
		top, second := twoHighest(scores)
		return (top + second) / 2
	case OperatorOr:
		m := scores[0]
		for _, s := range scores[1:] {
			if s < m {
				m = s
			}
		}
		return m
	default:
		return 0
	}
}

func twoHighest(scores []float64) (float64, float64) {
	top, second := scores[0], scores[1]
	if second > top {
		top, second = second, top
	}
	for _, s := range scores[2:] {
		switch {
		case s > top:
			second = top
			top = s
		case s > second:
			second = s
		}
	}
	return top, second
}

func hasConstraintType(constraints []NumberConstraint, t NumberConstraintType) bool {
	for _, nc := range constraints {
		if nc.Type == t {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

package program

import "encoding/json"

// ══════════════════════════════════════════════════════════════════════════════
// DOUBLE-COUNT MAP
// A course already assigned to requirement A may also fulfill requirement B
// only when the program declares the pair compatible. Default is deny.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// ConstraintDoubleCount allows a requirement to share courses with an
	// explicit list of other requirements ({"with": ["secId.reqId", ...]}).
	ConstraintDoubleCount = "double_count"

	// ConstraintSharedCredit, declared on a section, allows every pair of
	// requirements inside that section to share courses. It has no meaning
	// on a requirement and is ignored there.
	ConstraintSharedCredit = "shared_credit"
)

type doubleCountParams struct {
	With []string `json:"with"`
}

// DoubleCountMap answers whether two requirements of one program may both be
// fulfilled by the same planned course.
type DoubleCountMap struct {
	pairs          map[string]map[string]bool
	sharedSections map[string]bool
}

// BuildDoubleCountMap derives the double-count map from the program's
// constraints. Malformed constraint params are ignored; the pair stays denied.
func BuildDoubleCountMap(reqs Requirements) DoubleCountMap {
	m := DoubleCountMap{
		pairs:          make(map[string]map[string]bool),
		sharedSections: make(map[string]bool),
	}

	for _, section := range reqs.Sections {
		if !section.WellFormed() {
			continue
		}
		for _, c := range section.Constraints {
			if c.Type == ConstraintSharedCredit {
				m.sharedSections[section.ID] = true
			}
		}
		for _, req := range section.Requirements {
			if !req.WellFormed() {
				continue
			}
			key := Key(section.ID, req.ID).String()
			for _, c := range req.Constraints {
				if c.Type != ConstraintDoubleCount {
					continue
				}
				var params doubleCountParams
				if err := json.Unmarshal(c.Params, &params); err != nil {
					continue
				}
				for _, other := range params.With {
					m.allow(key, other)
				}
			}
		}
	}

	return m
}

func (m DoubleCountMap) allow(a, b string) {
	if m.pairs[a] == nil {
		m.pairs[a] = make(map[string]bool)
	}
	if m.pairs[b] == nil {
		m.pairs[b] = make(map[string]bool)
	}
	m.pairs[a][b] = true
	m.pairs[b][a] = true
}

// CanDoubleCount reports whether requirements a and b may share one course.
// A requirement trivially shares with itself.
func (m DoubleCountMap) CanDoubleCount(a, b RequirementKey) bool {
	ka, kb := a.String(), b.String()
	if ka == kb {
		return true
	}
	if m.pairs[ka][kb] {
		return true
	}
	return a.SectionID == b.SectionID && m.sharedSections[a.SectionID]
}

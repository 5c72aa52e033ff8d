package pattern

import "github.com/jsphweid/progdex/model"

// Rule describes a three-chord pattern. Degrees, when set, is tested first
// against the labels' scale degrees. Motion is the pair of root intervals
// (mod 12) between the first and second, and second and third chords.
type Rule struct {
	Kind    model.PatternKind
	Degrees []int
	Motion  [2]int
}

var (
	// IIVI matches 2-5-1 by degree, or two ascending fourths by root.
	IIVI = Rule{Kind: model.IIVI, Degrees: []int{2, 5, 1}, Motion: [2]int{5, 5}}

	// TritoneSub matches ii - subV - I: the roots fall a semitone twice.
	TritoneSub = Rule{Kind: model.TritoneSub, Motion: [2]int{11, 11}}

	DefaultRules = []Rule{IIVI, TritoneSub}
)

func (r Rule) matchesDegrees(labels []model.Label) bool {
	if len(r.Degrees) != len(labels) {
		return false
	}
	for i, d := range r.Degrees {
		if labels[i].ScaleDegree != d {
			return false
		}
	}
	return true
}

func (r Rule) matchesMotion(labels []model.Label) bool {
	var roots [3]model.PitchClass
	for i, l := range labels {
		root, ok := l.RootPitchClass()
		if !ok {
			return false
		}
		roots[i] = root
	}
	return roots[0].IntervalTo(roots[1]) == r.Motion[0] &&
		roots[1].IntervalTo(roots[2]) == r.Motion[1]
}

// Match reports whether the three labels fit the rule.
func (r Rule) Match(labels []model.Label) bool {
	if len(labels) != 3 {
		return false
	}
	if r.Degrees != nil && r.matchesDegrees(labels) {
		return true
	}
	return r.matchesMotion(labels)
}

// FindPatterns scans every run of three consecutive labels against each
// rule. Matches are ordered by start index, then by rule order, and
// overlapping matches are all kept. A label without a root only fails the
// root-motion test for the windows it sits in.
func FindPatterns(labels []model.Label, rules []Rule) []model.PatternMatch {
	var res []model.PatternMatch
	for i := 0; i+2 < len(labels); i++ {
		window := labels[i : i+3]
		for _, r := range rules {
			if r.Match(window) {
				res = append(res, model.PatternMatch{StartIndex: i, Kind: r.Kind})
			}
		}
	}
	return res
}

// Labels pulls the label sequence out of labeled chords.
func Labels(chords []model.LabeledChord) []model.Label {
	res := make([]model.Label, len(chords))
	for i, c := range chords {
		res[i] = c.Label
	}
	return res
}

package chord

import (
	"fmt"
	"strings"

	"github.com/jsphweid/progdex/model"
)

const (
	minorThird      = 3
	majorThird      = 4
	diminishedFifth = 6
	perfectFifth    = 7
	augmentedFifth  = 8
	minorSeventh    = 10
	majorSeventh    = 11
)

func firstPresent(pcs model.PitchClassSet, root model.PitchClass, intervals ...int) *model.PitchClass {
	for _, iv := range intervals {
		pc := root.Transpose(iv)
		if pcs.Has(pc) {
			return &pc
		}
	}
	return nil
}

// Reduce builds the canonical tertian chord on root from pcs. Within each
// degree the first listed interval wins: major third over minor, major
// seventh over minor. A perfect fifth is always kept when present; otherwise
// a diminished or augmented fifth is used if present, and failing that the
// perfect fifth is filled in anyway.
func Reduce(pcs model.PitchClassSet, root model.PitchClass) model.ReducedChord {
	c := model.ReducedChord{Root: root}
	c.Third = firstPresent(pcs, root, majorThird, minorThird)
	c.Seventh = firstPresent(pcs, root, majorSeventh, minorSeventh)

	c.Fifth = firstPresent(pcs, root, perfectFifth, diminishedFifth, augmentedFifth)
	if c.Fifth == nil {
		fifth := root.Transpose(perfectFifth)
		c.Fifth = &fifth
	}
	return c
}

// ReduceAll returns copies of slots with Reduced set, rooted on each slot's
// bass. The input slice is left untouched.
func ReduceAll(slots []model.HarmonicSlot) []model.HarmonicSlot {
	res := make([]model.HarmonicSlot, len(slots))
	for i, s := range slots {
		reduced := Reduce(s.PitchClasses, s.BassPitchClass)
		s.Reduced = &reduced
		res[i] = s
	}
	return res
}

func interval(c model.ReducedChord, pc *model.PitchClass) int {
	if pc == nil {
		return -1
	}
	return c.Root.IntervalTo(*pc)
}

// GuideTones returns the third and seventh that are present, in that order.
func GuideTones(c model.ReducedChord) []model.PitchClass {
	var res []model.PitchClass
	if c.Third != nil {
		res = append(res, *c.Third)
	}
	if c.Seventh != nil {
		res = append(res, *c.Seventh)
	}
	return res
}

// CreateChordKey renders pitch classes as a stable "0-4-7" key.
func CreateChordKey(pcs model.PitchClassSet) string {
	var parts []string
	for _, pc := range pcs.Sorted() {
		parts = append(parts, fmt.Sprintf("%v", uint8(pc)))
	}
	return strings.Join(parts, "-")
}

package roman

import (
	"strings"

	"github.com/jsphweid/progdex/chord"
	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
)

var ErrLabel = errors.New("cannot label chord")

var (
	majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorScale = [7]int{0, 2, 3, 5, 7, 8, 10}
)

type degree struct {
	step       int
	accidental int
}

// semitones above the tonic -> scale step and accidental
var (
	majorDegrees = [12]degree{{1, 0}, {2, -1}, {2, 0}, {3, -1}, {3, 0}, {4, 0}, {4, 1}, {5, 0}, {6, -1}, {6, 0}, {7, -1}, {7, 0}}
	minorDegrees = [12]degree{{1, 0}, {2, -1}, {2, 0}, {3, 0}, {3, 1}, {4, 0}, {4, 1}, {5, 0}, {6, 0}, {6, 1}, {7, 0}, {7, 1}}
)

var numerals = [8]string{"", "I", "II", "III", "IV", "V", "VI", "VII"}

// Scale returns the seven pitch classes of k (natural minor for minor keys).
func Scale(k model.Key) []model.PitchClass {
	steps := majorScale
	if k.Mode == model.Minor {
		steps = minorScale
	}
	res := make([]model.PitchClass, len(steps))
	for i, s := range steps {
		res[i] = k.Tonic.Transpose(s)
	}
	return res
}

func IsDiatonic(pc model.PitchClass, k model.Key) bool {
	for _, s := range Scale(k) {
		if s == pc {
			return true
		}
	}
	return false
}

// NonDiatonic returns the members of pcs outside k's scale, ascending.
func NonDiatonic(pcs model.PitchClassSet, k model.Key) []model.PitchClass {
	var res []model.PitchClass
	for _, pc := range pcs.Sorted() {
		if !IsDiatonic(pc, k) {
			res = append(res, pc)
		}
	}
	return res
}

func figureSuffix(q chord.Quality) (lower bool, suffix string) {
	switch q {
	case chord.Minor:
		return true, ""
	case chord.Minor7:
		return true, "7"
	case chord.MinorMajor7:
		return true, "maj7"
	case chord.Diminished:
		return true, "o"
	case chord.Diminished7:
		return true, "o7"
	case chord.HalfDiminished7:
		return true, "ø7"
	case chord.Augmented:
		return false, "+"
	case chord.AugmentedDominant7:
		return false, "+7"
	case chord.AugmentedMajor7:
		return false, "+maj7"
	case chord.Dominant7:
		return false, "7"
	case chord.Major7:
		return false, "maj7"
	}
	return false, ""
}

// Figure spells a numeral such as "ii7", "bII7" or "viiø7".
func Figure(step, accidental int, q chord.Quality) string {
	var b strings.Builder
	switch accidental {
	case -1:
		b.WriteString("b")
	case 1:
		b.WriteString("#")
	}
	lower, suffix := figureSuffix(q)
	numeral := numerals[step]
	if lower {
		numeral = strings.ToLower(numeral)
	}
	b.WriteString(numeral)
	b.WriteString(suffix)
	return b.String()
}

// Label places c in k. pcs, when non-nil, lets a diminished seventh be told
// apart from a diminished triad.
func Label(c *model.ReducedChord, pcs model.PitchClassSet, k model.Key) (model.Label, error) {
	if c == nil {
		return model.Label{}, errors.Wrap(ErrLabel, "chord not reduced")
	}
	if !k.Valid() {
		return model.Label{}, errors.Wrapf(ErrLabel, "invalid key %+v", k)
	}

	table := majorDegrees
	if k.Mode == model.Minor {
		table = minorDegrees
	}
	d := table[k.Tonic.IntervalTo(c.Root)]

	q, ok := chord.ClassifySet(pcs, *c)
	if !ok {
		q = chord.Major
		if c.Third != nil && c.Root.IntervalTo(*c.Third) == 3 {
			q = chord.Minor
		}
	}

	return model.Label{
		Root:        c.Root,
		HasRoot:     true,
		ScaleDegree: d.step,
		Accidental:  d.accidental,
		Quality:     string(q),
		Figure:      Figure(d.step, d.accidental, q),
	}, nil
}

// Neutral is the tonic "I" label substituted when labeling fails.
func Neutral(k model.Key) model.Label {
	l := model.Label{ScaleDegree: 1, Quality: string(chord.Major), Figure: "I"}
	if k.Valid() {
		l.Root = k.Tonic
		l.HasRoot = true
	}
	return l
}

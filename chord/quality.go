package chord

import "github.com/jsphweid/progdex/model"

type Quality string

const (
	Power              Quality = "power"
	Major              Quality = "major"
	Minor              Quality = "minor"
	Diminished         Quality = "diminished"
	Augmented          Quality = "augmented"
	Dominant7          Quality = "dominant-seventh"
	Major7             Quality = "major-seventh"
	Minor7             Quality = "minor-seventh"
	MinorMajor7        Quality = "minor-major-seventh"
	HalfDiminished7    Quality = "half-diminished-seventh"
	Diminished7        Quality = "diminished-seventh"
	AugmentedMajor7    Quality = "augmented-major-seventh"
	AugmentedDominant7 Quality = "augmented-seventh"
)

type shape struct {
	third, fifth, seventh int
}

var qualities = map[shape]Quality{
	{-1, 7, -1}: Power,
	{4, 7, -1}:  Major,
	{3, 7, -1}:  Minor,
	{3, 6, -1}:  Diminished,
	{4, 8, -1}:  Augmented,
	{4, 7, 10}:  Dominant7,
	{4, 7, 11}:  Major7,
	{3, 7, 10}:  Minor7,
	{3, 7, 11}:  MinorMajor7,
	{3, 6, 10}:  HalfDiminished7,
	{4, 8, 11}:  AugmentedMajor7,
	{4, 8, 10}:  AugmentedDominant7,
}

var symbolSuffixes = map[Quality]string{
	Power:              "5",
	Major:              "",
	Minor:              "m",
	Diminished:         "dim",
	Augmented:          "aug",
	Dominant7:          "7",
	Major7:             "maj7",
	Minor7:             "m7",
	MinorMajor7:        "m(maj7)",
	HalfDiminished7:    "m7b5",
	Diminished7:        "dim7",
	AugmentedMajor7:    "maj7#5",
	AugmentedDominant7: "7#5",
}

// QualityOf classifies a reduced chord by its intervals above the root.
func QualityOf(c model.ReducedChord) (Quality, bool) {
	q, ok := qualities[shape{interval(c, c.Third), interval(c, c.Fifth), interval(c, c.Seventh)}]
	return q, ok
}

// ClassifySet is QualityOf, except a diminished triad whose pitch classes
// also hold a diminished seventh (+9) reads as Diminished7.
func ClassifySet(pcs model.PitchClassSet, c model.ReducedChord) (Quality, bool) {
	q, ok := QualityOf(c)
	if ok && q == Diminished && pcs.Has(c.Root.Transpose(9)) {
		return Diminished7, true
	}
	return q, ok
}

// Symbol spells a lead-sheet symbol such as "Dm7" or "Bbmaj7". Chords with
// an unrecognised shape fall back to root plus "?".
func Symbol(pcs model.PitchClassSet, c model.ReducedChord) string {
	q, ok := ClassifySet(pcs, c)
	if !ok {
		return c.Root.String() + "?"
	}
	return c.Root.String() + symbolSuffixes[q]
}

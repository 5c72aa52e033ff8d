package model

import "github.com/jsphweid/progdex/util"

// PitchClass is a semitone position within the octave, 0 = C.
type PitchClass uint8

var pitchClassNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

func PitchClassOf(semitones int) PitchClass {
	return PitchClass(Mod12(semitones))
}

// Mod12 is a non-negative modulo, so Mod12(-1) == 11.
func Mod12(n int) int {
	m := n % 12
	if m < 0 {
		m += 12
	}
	return m
}

// Transpose moves the pitch class up by semitones (which may be negative).
func (p PitchClass) Transpose(semitones int) PitchClass {
	return PitchClassOf(int(p) + semitones)
}

// IntervalTo returns the ascending interval from p to other, in [0, 11].
func (p PitchClass) IntervalTo(other PitchClass) int {
	return Mod12(int(other) - int(p))
}

func (p PitchClass) String() string {
	return pitchClassNames[Mod12(int(p))]
}

// PitchClassSet is a deduplicated set of pitch classes.
type PitchClassSet map[PitchClass]bool

func NewPitchClassSet(pcs ...PitchClass) PitchClassSet {
	s := make(PitchClassSet, len(pcs))
	for _, pc := range pcs {
		s[PitchClassOf(int(pc))] = true
	}
	return s
}

func (s PitchClassSet) Has(pc PitchClass) bool {
	return s[pc]
}

// Sorted returns the members in ascending order.
func (s PitchClassSet) Sorted() []PitchClass {
	return util.SortedKeys(s)
}

package model

import "encoding/json"

// Label is a harmonic-function label: the chord's root relative to a key.
// HasRoot is false for degenerate chords whose root could not be found.
type Label struct {
	Root        PitchClass `json:"root"`
	HasRoot     bool       `json:"has_root"`
	ScaleDegree int        `json:"scale_degree"`
	Accidental  int        `json:"accidental"`
	Quality     string     `json:"quality"`
	Figure      string     `json:"figure"`
}

// UnmarshalJSON accepts labels without has_root, treating any label that
// names a root as having one.
func (l *Label) UnmarshalJSON(data []byte) error {
	type plain Label
	var raw struct {
		plain
		Root    *PitchClass `json:"root"`
		HasRoot *bool       `json:"has_root"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Label(raw.plain)
	if raw.Root != nil {
		l.Root = *raw.Root
	}
	switch {
	case raw.HasRoot != nil:
		l.HasRoot = *raw.HasRoot
	default:
		l.HasRoot = raw.Root != nil
	}
	return nil
}

// RootPitchClass returns the root, if one is known.
func (l Label) RootPitchClass() (PitchClass, bool) {
	return l.Root, l.HasRoot
}

type LabeledChord struct {
	Slot  HarmonicSlot `json:"slot"`
	Key   Key          `json:"key"`
	Label Label        `json:"label"`
}

type PatternKind string

const (
	IIVI       PatternKind = "ii-V-I"
	TritoneSub PatternKind = "tritone-substitution"
)

// PatternLength is the number of consecutive chords every pattern spans.
const PatternLength = 3

// PatternMatch points at the first of three labels in the sequence.
type PatternMatch struct {
	StartIndex int         `json:"start_index"`
	Kind       PatternKind `json:"kind"`
}

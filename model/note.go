package model

// NoteEvent is a single sounding note. Onset and Duration are in beats
// (quarter notes), Pitch is a MIDI key number.
type NoteEvent struct {
	Onset    float64 `json:"onset"`
	Duration float64 `json:"duration"`
	Pitch    uint8   `json:"pitch"`
}

func (n NoteEvent) End() float64 {
	return n.Onset + n.Duration
}

func (n NoteEvent) PitchClass() PitchClass {
	return PitchClassOf(int(n.Pitch))
}

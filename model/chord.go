package model

// HarmonicSlot is one quantized window of harmony. PitchClasses always
// contains BassPitchClass. Reduced is nil until the reducer has run.
type HarmonicSlot struct {
	StartOffset    float64       `json:"start_offset"`
	Duration       float64       `json:"duration"`
	BassPitchClass PitchClass    `json:"bass_pitch_class"`
	PitchClasses   PitchClassSet `json:"-"`
	Reduced        *ReducedChord `json:"reduced_chord,omitempty"`
}

func (s HarmonicSlot) End() float64 {
	return s.StartOffset + s.Duration
}

// ReducedChord is a canonical tertian chord. A nil degree means absent.
type ReducedChord struct {
	Root    PitchClass  `json:"root"`
	Third   *PitchClass `json:"third,omitempty"`
	Fifth   *PitchClass `json:"fifth,omitempty"`
	Seventh *PitchClass `json:"seventh,omitempty"`
}

// PitchClasses returns root, third, fifth and seventh, skipping absent ones.
func (c ReducedChord) PitchClasses() []PitchClass {
	res := []PitchClass{c.Root}
	for _, pc := range []*PitchClass{c.Third, c.Fifth, c.Seventh} {
		if pc != nil {
			res = append(res, *pc)
		}
	}
	return res
}

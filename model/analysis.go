package model

import "time"

// SlotAnnotation carries the per-slot output of an analysis run.
type SlotAnnotation struct {
	Index       int          `json:"index"`
	StartOffset float64      `json:"start_offset"`
	Duration    float64      `json:"duration"`
	Bass        PitchClass   `json:"bass"`
	Pitches     []PitchClass `json:"pitch_classes"`
	Chord       ReducedChord `json:"chord"`
	Symbol      string       `json:"symbol"`
	Key         Key          `json:"key"`
	Label       Label        `json:"label"`
	GuideTones  []PitchClass `json:"guide_tones"`
	NonDiatonic []PitchClass `json:"non_diatonic,omitempty"`
}

type Analysis struct {
	ID        string           `json:"id,omitempty"`
	Source    string           `json:"source,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  *PieceMetadata   `json:"metadata,omitempty"`
	Keys      KeyMap           `json:"keys"`
	Slots     []SlotAnnotation `json:"slots"`
	Matches   []PatternMatch   `json:"matches"`
}

type PieceMetadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Release string `json:"release"`
	Year    uint   `json:"year,omitempty"`
}

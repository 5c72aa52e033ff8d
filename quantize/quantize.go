package quantize

import (
	"math"

	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/util"
	"github.com/pkg/errors"
)

var (
	ErrMalformedInput = errors.New("malformed note event")
	ErrInvalidParams  = errors.New("invalid quantize params")
)

// Params controls the window grid. OverlapThreshold is the minimum number
// of beats a note must sound inside a window to count toward its harmony.
// OnsetMargin groups attacks that land within that many beats of the
// earliest one when picking the bass. MaxWindows caps the length of the
// grid; 0 means DefaultMaxWindows.
type Params struct {
	WindowWidth      float64
	StartOffset      float64
	OverlapThreshold float64
	OnsetMargin      float64
	MaxWindows       int
}

const DefaultMaxWindows = 100000

func DefaultParams() Params {
	return Params{
		WindowWidth:      2.0,
		StartOffset:      0,
		OverlapThreshold: 0.25,
		OnsetMargin:      0.5,
		MaxWindows:       DefaultMaxWindows,
	}
}

func (p Params) validate() error {
	switch {
	case !(p.WindowWidth > 0):
		return errors.Wrapf(ErrInvalidParams, "window width %v", p.WindowWidth)
	case !(p.StartOffset >= 0):
		return errors.Wrapf(ErrInvalidParams, "start offset %v", p.StartOffset)
	case !(p.OverlapThreshold > 0):
		return errors.Wrapf(ErrInvalidParams, "overlap threshold %v", p.OverlapThreshold)
	case !(p.OnsetMargin >= 0):
		return errors.Wrapf(ErrInvalidParams, "onset margin %v", p.OnsetMargin)
	case p.MaxWindows < 0:
		return errors.Wrapf(ErrInvalidParams, "max windows %v", p.MaxWindows)
	}
	return nil
}

func (p Params) maxWindows() int {
	if p.MaxWindows == 0 {
		return DefaultMaxWindows
	}
	return p.MaxWindows
}

// Validate rejects events with a negative or non-finite onset, a
// non-positive or non-finite duration, or a pitch outside the MIDI range.
// Nothing is clamped.
func Validate(events []model.NoteEvent) error {
	for i, e := range events {
		switch {
		case math.IsNaN(e.Onset) || math.IsInf(e.Onset, 0) || e.Onset < 0:
			return errors.Wrapf(ErrMalformedInput, "event %d: onset %v", i, e.Onset)
		case math.IsNaN(e.Duration) || math.IsInf(e.Duration, 0) || e.Duration <= 0:
			return errors.Wrapf(ErrMalformedInput, "event %d: duration %v", i, e.Duration)
		case e.Pitch > 127:
			return errors.Wrapf(ErrMalformedInput, "event %d: pitch %v", i, e.Pitch)
		}
	}
	return nil
}

func overlap(e model.NoteEvent, start, end float64) float64 {
	return util.Min(e.End(), end) - util.Max(e.Onset, start)
}

// anchorBass returns the lowest pitch among the events struck within
// margin of the earliest onset.
func anchorBass(events []model.NoteEvent, margin float64) uint8 {
	earliest := events[0].Onset
	for _, e := range events[1:] {
		earliest = util.Min(earliest, e.Onset)
	}

	bass := uint8(math.MaxUint8)
	for _, e := range events {
		if e.Onset-earliest <= margin && e.Pitch < bass {
			bass = e.Pitch
		}
	}
	return bass
}

// Window builds the slot for [start, start+width), reporting false when no
// event overlaps it by at least the threshold.
func Window(events []model.NoteEvent, start float64, p Params) (model.HarmonicSlot, bool) {
	end := start + p.WindowWidth

	var qualifying []model.NoteEvent
	for _, e := range events {
		if overlap(e, start, end) >= p.OverlapThreshold {
			qualifying = append(qualifying, e)
		}
	}
	if len(qualifying) == 0 {
		return model.HarmonicSlot{}, false
	}

	bass := model.PitchClassOf(int(anchorBass(qualifying, p.OnsetMargin)))
	pcs := model.NewPitchClassSet(bass)
	for _, e := range qualifying {
		pcs[e.PitchClass()] = true
	}

	return model.HarmonicSlot{
		StartOffset:    start,
		Duration:       p.WindowWidth,
		BassPitchClass: bass,
		PitchClasses:   pcs,
	}, true
}

// Quantize slides a fixed window across the timeline and emits one slot
// per window that has qualifying notes. Empty windows are skipped, so the
// result is sparse and ordered by StartOffset.
func Quantize(events []model.NoteEvent, p Params) ([]model.HarmonicSlot, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := Validate(events); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	var latest float64
	for _, e := range events {
		latest = util.Max(latest, e.End())
	}
	if windows := math.Ceil((latest - p.StartOffset) / p.WindowWidth); windows > float64(p.maxWindows()) {
		return nil, errors.Wrapf(ErrMalformedInput, "timeline ends at beat %v, more than %d windows of %v beats",
			latest, p.maxWindows(), p.WindowWidth)
	}

	var slots []model.HarmonicSlot
	for k := 0; ; k++ {
		t := p.StartOffset + float64(k)*p.WindowWidth
		if t >= latest {
			break
		}
		if slot, ok := Window(events, t, p); ok {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

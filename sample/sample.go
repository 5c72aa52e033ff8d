package sample

import (
	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}

// setupMeta are the meta types that still describe the excerpt when they
// occur before it: track name, tempo, SMPTE offset, time and key signature.
var setupMeta = map[byte]bool{
	0x03: true,
	0x51: true,
	0x54: true,
	0x58: true,
	0x59: true,
}

func carriesForward(msg smf.Message) bool {
	if len(msg) < 2 || msg[0] != 0xFF {
		return true
	}
	return setupMeta[msg[1]]
}

// Create cuts the ticks [from, to) out of every track. Note-ons inside the
// range are kept, as are note-offs in (from, to]. Channel messages and setup
// meta events before the range are pulled forward to its start; lyrics and
// markers before it are dropped.
func Create(mf *smf.SMF, from, to uint64) *smf.SMF {
	res := smf.New()
	res.TimeFormat = mf.TimeFormat

	for _, track := range mf.Tracks {
		var newTrack smf.Track
		var absTicks, last uint64
		emit := func(at uint64, msg smf.Message) {
			newTrack.Add(uint32(at-last), msg)
			last = at
		}

	TrackEventLoop:
		for _, evt := range track {
			absTicks += uint64(evt.Delta)
			if absTicks > to {
				break
			}
			rel := uint64(0)
			if absTicks > from {
				rel = absTicks - from
			}
			switch {
			case isEndOfTrack(evt.Message):
				break TrackEventLoop
			case evt.Message.Is(midi.NoteOnMsg):
				if absTicks >= from && absTicks < to {
					emit(rel, evt.Message)
				}
			case evt.Message.Is(midi.NoteOffMsg):
				if absTicks > from {
					emit(rel, evt.Message)
				}
			case absTicks < from:
				if carriesForward(evt.Message) {
					emit(rel, evt.Message)
				}
			default:
				if absTicks < to {
					emit(rel, evt.Message)
				}
			}
		}

		newTrack.Close(0)
		res.Tracks = append(res.Tracks, newTrack)
	}

	return res
}

// SlotSpan returns the tick range covered by count slots starting at index.
func SlotSpan(a *model.Analysis, index, count int, ticksPerBeat float64) (uint64, uint64, error) {
	if index < 0 || count <= 0 || index+count > len(a.Slots) {
		return 0, 0, errors.Errorf("slots %d..%d out of range (%d slots)", index, index+count-1, len(a.Slots))
	}
	first := a.Slots[index]
	last := a.Slots[index+count-1]
	from := uint64(first.StartOffset*ticksPerBeat + 0.5)
	to := uint64((last.StartOffset+last.Duration)*ticksPerBeat + 0.5)
	return from, to, nil
}

// Match cuts the chords of one pattern match out of a rendered analysis.
func Match(mf *smf.SMF, a *model.Analysis, m model.PatternMatch, ticksPerBeat float64) (*smf.SMF, error) {
	from, to, err := SlotSpan(a, m.StartIndex, model.PatternLength, ticksPerBeat)
	if err != nil {
		return nil, errors.Wrapf(err, "excerpting %v match", m.Kind)
	}
	return Create(mf, from, to), nil
}

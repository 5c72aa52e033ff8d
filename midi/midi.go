package midi

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

// PercussionChannel is MIDI channel 10, zero-indexed.
const PercussionChannel = 9

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "reading midi file")
	}
	return Parse(bytes.NewReader(dat))
}

// Parse reads an SMF. The reader can panic on some corrupt files
// (https://github.com/gomidi/midi/issues/20), which is turned into an error.
func Parse(r io.Reader) (s *smf.SMF, e error) {
	defer func() {
		if rec := recover(); rec != nil {
			s = nil
			e = errors.Errorf("parsing midi file: %v", rec)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing midi file")
	}
	return res, nil
}

type noteKey struct {
	channel uint8
	key     uint8
}

// NoteEvents flattens every track into note events measured in beats.
// Percussion is dropped. Overlapping notes on the same key and channel are
// closed first-in first-out, and notes still sounding when their track ends
// are closed there. The result is sorted by onset, then pitch.
func NoteEvents(s *smf.SMF) ([]model.NoteEvent, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return nil, errors.Errorf("unsupported time format %v", s.TimeFormat)
	}
	resolution := float64(ticks)
	toBeats := func(t uint64) float64 {
		return float64(t) / resolution
	}

	var res []model.NoteEvent
	for _, track := range s.Tracks {
		var absTicks uint64
		open := make(map[noteKey][]uint64)
		closeNote := func(k noteKey, at uint64) {
			pending := open[k]
			if len(pending) == 0 {
				return
			}
			start := pending[0]
			open[k] = pending[1:]
			if at > start {
				res = append(res, model.NoteEvent{
					Onset:    toBeats(start),
					Duration: toBeats(at - start),
					Pitch:    k.key,
				})
			}
		}

		for _, event := range track {
			absTicks += uint64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				if channel == PercussionChannel {
					continue
				}
				k := noteKey{channel, key}
				if velocity == 0 {
					closeNote(k, absTicks)
				} else {
					open[k] = append(open[k], absTicks)
				}
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				if channel == PercussionChannel {
					continue
				}
				closeNote(noteKey{channel, key}, absTicks)
			}
		}

		for k, pending := range open {
			for range pending {
				closeNote(k, absTicks)
			}
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Onset != res[j].Onset {
			return res[i].Onset < res[j].Onset
		}
		return res[i].Pitch < res[j].Pitch
	})
	return res, nil
}

// ReadNoteEvents is ReadMidiFile followed by NoteEvents.
func ReadNoteEvents(filepath string) ([]model.NoteEvent, error) {
	s, err := ReadMidiFile(filepath)
	if err != nil {
		return nil, err
	}
	events, err := NoteEvents(s)
	if err != nil {
		return nil, errors.Wrapf(err, "extracting notes from %v", filepath)
	}
	return events, nil
}

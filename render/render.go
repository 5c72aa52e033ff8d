package render

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/util"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	TicksPerBeat = 480
	velocity     = 80
	bassOctave   = 48
	chordOctave  = 60
)

// Lyric is the text attached to a slot: its figure, the guide tones it
// holds, and a non-diatonic flag.
func Lyric(s model.SlotAnnotation) string {
	parts := []string{s.Label.Figure}
	var guides []string
	if s.Chord.Third != nil {
		guides = append(guides, "3")
	}
	if s.Chord.Seventh != nil {
		guides = append(guides, "7")
	}
	if len(guides) > 0 {
		parts = append(parts, strings.Join(guides, "/"))
	}
	if len(s.NonDiatonic) > 0 {
		parts = append(parts, "non-dia")
	}
	return strings.Join(parts, " ")
}

// Markers groups pattern kinds by the slot index they start on.
func Markers(matches []model.PatternMatch) map[int][]string {
	res := make(map[int][]string)
	for _, m := range matches {
		res[m.StartIndex] = append(res[m.StartIndex], string(m.Kind))
	}
	return res
}

// Voicing places the root in the bass octave and the other chord tones
// above middle C.
func Voicing(c model.ReducedChord) []uint8 {
	keys := []uint8{uint8(bassOctave + int(c.Root))}
	for _, pc := range c.PitchClasses()[1:] {
		keys = append(keys, uint8(chordOctave+int(pc)))
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

func toTicks(beats float64) uint64 {
	return uint64(beats*TicksPerBeat + 0.5)
}

// Build turns an analysis into a single-track SMF of block chords with
// lyric and marker meta events.
func Build(a *model.Analysis) (*smf.SMF, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerBeat)

	var tr smf.Track
	name := "progdex"
	if a.Source != "" {
		name = a.Source
	}
	tr.Add(0, smf.MetaTrackSequenceName(name))

	markers := Markers(a.Matches)
	var now uint64
	for i, slot := range a.Slots {
		start := toTicks(slot.StartOffset)
		if start < now {
			return nil, errors.Errorf("slot %d starts at %v, before the previous slot ends", i, slot.StartOffset)
		}
		delta := uint32(start - now)
		for _, m := range markers[i] {
			tr.Add(delta, smf.MetaMarker(m))
			delta = 0
		}
		tr.Add(delta, smf.MetaLyric(Lyric(slot)))

		keys := Voicing(slot.Chord)
		for _, k := range keys {
			tr.Add(0, midi.NoteOn(0, k, velocity))
		}
		end := toTicks(slot.StartOffset + slot.Duration)
		for j, k := range keys {
			var d uint32
			if j == 0 {
				d = uint32(end - start)
			}
			tr.Add(d, midi.NoteOff(0, k))
		}
		now = end
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return nil, errors.Wrap(err, "adding track")
	}
	return s, nil
}

func WriteMIDI(w io.Writer, a *model.Analysis) error {
	s, err := Build(a)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return errors.Wrap(err, "writing midi")
}

func WriteMIDIFile(path string, a *model.Analysis) error {
	if err := util.EnsureParentDir(path); err != nil {
		return errors.Wrapf(err, "creating directory for %v", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %v", path)
	}
	defer f.Close()
	return WriteMIDI(f, a)
}

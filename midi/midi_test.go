package midi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/progdex/model"
	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ppq = 480

func writeSMF(t *testing.T, tracks ...smf.Track) []byte {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ppq)
	for _, tr := range tracks {
		assert.NoError(t, s.Add(tr))
	}
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	assert.NoError(t, err)
	return buf.Bytes()
}

// block holds every key for dur beats, starting right after the previous block
func block(tr *smf.Track, channel uint8, dur uint32, keys ...uint8) {
	for _, k := range keys {
		tr.Add(0, gomidi.NoteOn(channel, k, 100))
	}
	for i, k := range keys {
		var delta uint32
		if i == 0 {
			delta = dur * ppq
		}
		tr.Add(delta, gomidi.NoteOff(channel, k))
	}
}

func TestNoteEventsFromBlockChords(t *testing.T) {
	var tr smf.Track
	block(&tr, 0, 4, 62, 65, 69, 72)
	block(&tr, 0, 4, 67, 71, 74, 77, 73)
	tr.Close(0)

	s, err := Parse(bytes.NewReader(writeSMF(t, tr)))
	assert.NoError(t, err)
	events, err := NoteEvents(s)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(events, 9)
	assert.Equal(model.NoteEvent{Onset: 0, Duration: 4, Pitch: 62}, events[0])
	assert.Equal(model.NoteEvent{Onset: 4, Duration: 4, Pitch: 67}, events[4])
	assert.Equal(uint8(73), events[5].Pitch)
}

func TestPercussionIsDropped(t *testing.T) {
	var drums, bass smf.Track
	block(&drums, PercussionChannel, 1, 36, 42)
	drums.Close(0)
	block(&bass, 1, 2, 40)
	bass.Close(0)

	s, err := Parse(bytes.NewReader(writeSMF(t, drums, bass)))
	assert.NoError(t, err)
	events, err := NoteEvents(s)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]model.NoteEvent{{Onset: 0, Duration: 2, Pitch: 40}}, events)
}

func TestZeroVelocityNoteOnEndsNote(t *testing.T) {
	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 60, 90))
	tr.Add(ppq/2, gomidi.NoteOn(0, 60, 0))
	tr.Close(0)

	s, err := Parse(bytes.NewReader(writeSMF(t, tr)))
	assert.NoError(t, err)
	events, err := NoteEvents(s)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]model.NoteEvent{{Onset: 0, Duration: 0.5, Pitch: 60}}, events)
}

func TestHangingNotesCloseAtTrackEnd(t *testing.T) {
	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 48, 90))
	tr.Add(ppq, gomidi.NoteOn(0, 55, 90))
	tr.Close(ppq)

	s, err := Parse(bytes.NewReader(writeSMF(t, tr)))
	assert.NoError(t, err)
	events, err := NoteEvents(s)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]model.NoteEvent{
		{Onset: 0, Duration: 2, Pitch: 48},
		{Onset: 1, Duration: 1, Pitch: 55},
	}, events)
}

func TestReadNoteEventsFromDisk(t *testing.T) {
	var tr smf.Track
	block(&tr, 0, 1, 60, 64, 67)
	tr.Close(0)
	path := filepath.Join(t.TempDir(), "c.mid")
	assert.NoError(t, os.WriteFile(path, writeSMF(t, tr), 0644))

	events, err := ReadNoteEvents(path)
	assert.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadNoteEvents(filepath.Join(t.TempDir(), "nope.mid"))
	assert.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("definitely not a midi file")))
	assert.Error(t, err)
}

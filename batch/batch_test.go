package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/progdex/analysis"
	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/render"
	"github.com/jsphweid/progdex/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeLookuper struct {
	known map[string]model.PieceMetadata
	err   error
	asked [][]string
}

func (f *fakeLookuper) Lookup(filenames []string) (map[string]model.PieceMetadata, error) {
	f.asked = append(f.asked, filenames)
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[string]model.PieceMetadata)
	for _, name := range filenames {
		if m, ok := f.known[name]; ok {
			res[name] = m
		}
	}
	return res, nil
}

func pc(n int) *model.PitchClass {
	p := model.PitchClass(n)
	return &p
}

func writeFixture(t *testing.T, dir, name string) string {
	a := &model.Analysis{}
	for i, c := range []model.ReducedChord{
		{Root: 2, Third: pc(5), Fifth: pc(9), Seventh: pc(0)},
		{Root: 7, Third: pc(11), Fifth: pc(2), Seventh: pc(5)},
		{Root: 0, Third: pc(4), Fifth: pc(7), Seventh: pc(11)},
	} {
		a.Slots = append(a.Slots, model.SlotAnnotation{StartOffset: float64(i) * 2, Duration: 2, Chord: c})
	}
	path := filepath.Join(dir, name)
	if err := render.WriteMIDIFile(path, a); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietProcessor() *Processor {
	opts := analysis.DefaultOptions()
	opts.Logger = logging.NoOpLogger{}
	return &Processor{Options: opts, Log: logging.NoOpLogger{}}
}

func TestProcessAllSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "good.mid")
	bad := filepath.Join(dir, "bad.mid")
	assert.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))

	res, err := quietProcessor().ProcessAll(context.Background(), []string{good, bad})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(res, 2)
	assert.NoError(res[0].Err)
	assert.Equal("good.mid", res[0].Analysis.Source)
	assert.Len(res[0].Analysis.Slots, 3)
	assert.Error(res[1].Err)
	assert.Nil(res[1].Analysis)
}

func TestProcessAllAttachesMetadataAndSaves(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "tune.mid")

	st, err := store.Open(":memory:")
	assert.NoError(t, err)
	defer st.Close()

	lookup := &fakeLookuper{known: map[string]model.PieceMetadata{"tune.mid": {Title: "Tune"}}}
	p := quietProcessor()
	p.Metadata = lookup
	p.Store = st

	res, err := p.ProcessAll(context.Background(), []string{path})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([][]string{{"tune.mid"}}, lookup.asked)
	assert.Equal(&model.PieceMetadata{Title: "Tune"}, res[0].Analysis.Metadata)
	assert.NotEmpty(res[0].Analysis.ID)

	list, err := st.List(context.Background(), 10)
	assert.NoError(err)
	assert.Len(list, 1)
}

func TestLookupAllGroupsRequests(t *testing.T) {
	var paths []string
	for i := 0; i < 23; i++ {
		paths = append(paths, filepath.Join("dir", fmt.Sprintf("%02d.mid", i)))
	}
	lookup := &fakeLookuper{known: map[string]model.PieceMetadata{
		"00.mid": {Title: "first"},
		"22.mid": {Title: "last"},
	}}
	p := quietProcessor()
	p.Metadata = lookup

	res := p.lookupAll(paths)

	assert := assert.New(t)
	assert.Len(lookup.asked, 3)
	assert.Len(lookup.asked[0], 10)
	assert.Len(lookup.asked[2], 3)
	assert.Equal("22.mid", lookup.asked[2][2])
	assert.Equal(map[string]model.PieceMetadata{"00.mid": {Title: "first"}, "22.mid": {Title: "last"}}, res)
}

func TestLookupAllAsksForEachNameOnce(t *testing.T) {
	var paths []string
	for i := 0; i < 12; i++ {
		paths = append(paths, filepath.Join(fmt.Sprintf("set%02d", i), "tune.mid"))
	}
	paths = append(paths, filepath.Join("other", "solar.mid"))
	lookup := &fakeLookuper{known: map[string]model.PieceMetadata{"tune.mid": {Title: "Tune"}}}
	p := quietProcessor()
	p.Metadata = lookup

	res := p.lookupAll(paths)

	assert := assert.New(t)
	assert.Equal([][]string{{"tune.mid", "solar.mid"}}, lookup.asked)
	assert.Equal(map[string]model.PieceMetadata{"tune.mid": {Title: "Tune"}}, res)
}

func TestProcessAllMetadataFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "tune.mid")

	p := quietProcessor()
	p.Metadata = &fakeLookuper{err: errors.New("throttled")}
	res, err := p.ProcessAll(context.Background(), []string{path})

	assert.NoError(t, err)
	assert.NoError(t, res[0].Err)
	assert.Nil(t, res[0].Analysis.Metadata)
}

func TestProcessAllCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "tune.mid")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := quietProcessor().ProcessAll(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res)
}

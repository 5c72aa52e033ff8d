package roman

import (
	"testing"

	"github.com/jsphweid/progdex/chord"
	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var cMajor = model.Key{Tonic: 0, Mode: model.Major}

func label(t *testing.T, k model.Key, root model.PitchClass, pcs ...model.PitchClass) model.Label {
	set := model.NewPitchClassSet(pcs...)
	c := chord.Reduce(set, root)
	l, err := Label(&c, set, k)
	assert.NoError(t, err)
	return l
}

func TestLabelsIIVIInC(t *testing.T) {
	ii := label(t, cMajor, 2, 2, 5, 9, 0)
	v := label(t, cMajor, 7, 7, 11, 2, 5)
	i := label(t, cMajor, 0, 0, 4, 7, 11)

	assert := assert.New(t)
	assert.Equal("ii7", ii.Figure)
	assert.Equal(2, ii.ScaleDegree)
	assert.Equal("V7", v.Figure)
	assert.Equal(5, v.ScaleDegree)
	assert.Equal("Imaj7", i.Figure)
	assert.Equal(1, i.ScaleDegree)
	assert.True(i.HasRoot)
}

func TestLabelsChromaticRoots(t *testing.T) {
	subV := label(t, cMajor, 1, 1, 5, 8, 11)

	assert := assert.New(t)
	assert.Equal("bII7", subV.Figure)
	assert.Equal(2, subV.ScaleDegree)
	assert.Equal(-1, subV.Accidental)
	assert.Equal(string(chord.Dominant7), subV.Quality)
}

func TestLabelsInMinor(t *testing.T) {
	aMinor := model.Key{Tonic: 9, Mode: model.Minor}
	iiHalfDim := label(t, aMinor, 11, 11, 2, 5, 9)
	v := label(t, aMinor, 4, 4, 8, 11)

	assert := assert.New(t)
	assert.Equal("iiø7", iiHalfDim.Figure)
	assert.Equal("V", v.Figure)
	assert.Equal(5, v.ScaleDegree)
}

func TestLabelFailures(t *testing.T) {
	c := chord.Reduce(model.NewPitchClassSet(0, 4, 7), 0)

	_, err := Label(nil, nil, cMajor)
	assert.True(t, errors.Is(err, ErrLabel))

	_, err = Label(&c, nil, model.Key{Tonic: 0, Mode: 7})
	assert.True(t, errors.Is(err, ErrLabel))
}

func TestNeutral(t *testing.T) {
	l := Neutral(model.Key{Tonic: 7, Mode: model.Major})

	assert := assert.New(t)
	assert.Equal(1, l.ScaleDegree)
	assert.Equal("I", l.Figure)
	assert.True(l.HasRoot)
	assert.Equal(model.PitchClass(7), l.Root)

	assert.False(Neutral(model.Key{Mode: 9}).HasRoot)
}

func TestNonDiatonic(t *testing.T) {
	g7sharp11 := model.NewPitchClassSet(7, 11, 2, 5, 1)

	assert := assert.New(t)
	assert.Equal([]model.PitchClass{1}, NonDiatonic(g7sharp11, cMajor))
	assert.Empty(NonDiatonic(model.NewPitchClassSet(0, 4, 7), cMajor))
	assert.True(IsDiatonic(8, model.Key{Tonic: 0, Mode: model.Minor}))
	assert.False(IsDiatonic(8, cMajor))
}

func TestScale(t *testing.T) {
	assert.Equal(t, []model.PitchClass{7, 9, 11, 0, 2, 4, 6}, Scale(model.Key{Tonic: 7, Mode: model.Major}))
}

package chord

import (
	"testing"

	"github.com/jsphweid/progdex/model"
	"github.com/stretchr/testify/assert"
)

func pc(n int) *model.PitchClass {
	p := model.PitchClass(n)
	return &p
}

func TestReducesMinorTriad(t *testing.T) {
	c := Reduce(model.NewPitchClassSet(2, 5, 9), 2)

	assert := assert.New(t)
	assert.Equal(model.PitchClass(2), c.Root)
	assert.Equal(pc(5), c.Third)
	assert.Equal(pc(9), c.Fifth)
	assert.Nil(c.Seventh)
}

func TestReductionIsIdempotentOnCanonicalInput(t *testing.T) {
	first := Reduce(model.NewPitchClassSet(0, 4, 7), 0)
	second := Reduce(model.NewPitchClassSet(first.PitchClasses()...), first.Root)

	assert := assert.New(t)
	assert.Equal(first, second)
	assert.Equal([]model.PitchClass{0, 4, 7}, first.PitchClasses())
}

func TestReductionAlwaysHasAFifth(t *testing.T) {
	for root := 0; root < 12; root++ {
		for mask := 1; mask < 1<<12; mask += 37 {
			pcs := model.PitchClassSet{}
			for i := 0; i < 12; i++ {
				if mask&(1<<i) != 0 {
					pcs[model.PitchClass(i)] = true
				}
			}
			c := Reduce(pcs, model.PitchClass(root))
			if assert.NotNil(t, c.Fifth) {
				iv := c.Root.IntervalTo(*c.Fifth)
				assert.Contains(t, []int{6, 7, 8}, iv)
			}
		}
	}
}

func TestFirstMatchPriority(t *testing.T) {
	cases := []struct {
		name    string
		pcs     []model.PitchClass
		third   *model.PitchClass
		fifth   *model.PitchClass
		seventh *model.PitchClass
	}{
		{"major beats minor third", []model.PitchClass{0, 3, 4, 7}, pc(4), pc(7), nil},
		{"major beats minor seventh", []model.PitchClass{0, 4, 10, 11}, pc(4), pc(7), pc(11)},
		{"perfect fifth beats altered", []model.PitchClass{0, 4, 6, 7, 8}, pc(4), pc(7), nil},
		{"diminished fifth when no perfect", []model.PitchClass{0, 3, 6, 8}, pc(3), pc(6), nil},
		{"augmented fifth when alone", []model.PitchClass{0, 4, 8}, pc(4), pc(8), nil},
		{"default fifth on a bare root", []model.PitchClass{0}, nil, pc(7), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Reduce(model.NewPitchClassSet(tc.pcs...), 0)
			assert := assert.New(t)
			assert.Equal(tc.third, c.Third)
			assert.Equal(tc.fifth, c.Fifth)
			assert.Equal(tc.seventh, c.Seventh)
		})
	}
}

func TestDominantSeventhKeepsAllDegrees(t *testing.T) {
	g7 := Reduce(model.NewPitchClassSet(7, 11, 2, 5), 7)
	assert.Equal(t, []model.PitchClass{7, 11, 2, 5}, g7.PitchClasses())
}

func TestReduceAllCopiesSlots(t *testing.T) {
	slots := []model.HarmonicSlot{
		{StartOffset: 0, Duration: 2, BassPitchClass: 2, PitchClasses: model.NewPitchClassSet(2, 5, 9, 0)},
		{StartOffset: 2, Duration: 2, BassPitchClass: 7, PitchClasses: model.NewPitchClassSet(7, 11, 5)},
	}
	reduced := ReduceAll(slots)

	assert := assert.New(t)
	assert.Nil(slots[0].Reduced)
	assert.Len(reduced, 2)
	assert.Equal(pc(0), reduced[0].Reduced.Seventh)
	assert.Equal(pc(5), reduced[1].Reduced.Seventh)
	assert.Equal(2.0, reduced[1].StartOffset)
}

func TestSymbols(t *testing.T) {
	cases := map[string][]model.PitchClass{
		"Dm7":   {2, 5, 9, 0},
		"G7":    {7, 11, 2, 5},
		"Cmaj7": {0, 4, 7, 11},
		"Bm7b5": {11, 2, 5, 9},
		"Bdim7": {11, 2, 5, 8},
		"Eb":    {3, 7, 10},
		"A5":    {9},
		"C?":    {0, 10},
	}
	for want, pcs := range cases {
		set := model.NewPitchClassSet(pcs...)
		assert.Equal(t, want, Symbol(set, Reduce(set, pcs[0])))
	}
}

func TestGuideTones(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]model.PitchClass{5, 0}, GuideTones(Reduce(model.NewPitchClassSet(2, 5, 9, 0), 2)))
	assert.Empty(GuideTones(Reduce(model.NewPitchClassSet(2), 2)))
}

func TestCreateChordKey(t *testing.T) {
	assert.Equal(t, "0-4-7-11", CreateChordKey(model.NewPitchClassSet(11, 7, 4, 0, 4)))
}

package key

import (
	"math"

	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEstimation means no key could be determined for the material given.
// It is an expected outcome, not a fault.
var ErrEstimation = errors.New("key estimation failed")

// Profile holds the major and minor key templates, indexed by semitones
// above the tonic.
type Profile struct {
	Name  string
	Major [12]float64
	Minor [12]float64
}

// Krumhansl-Schmuckler probe-tone ratings.
var Krumhansl = Profile{
	Name:  "krumhansl",
	Major: [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88},
	Minor: [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17},
}

// Temperley corpus-derived profiles.
var Temperley = Profile{
	Name:  "temperley",
	Major: [12]float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0},
	Minor: [12]float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0},
}

func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", Krumhansl.Name:
		return Krumhansl, nil
	case Temperley.Name:
		return Temperley, nil
	}
	return Profile{}, errors.Errorf("unknown key profile %q", name)
}

type Estimator interface {
	Estimate(slots []model.HarmonicSlot) (model.Key, error)
}

// ProfileEstimator correlates a duration-weighted pitch-class histogram
// with every rotation of its profile and picks the best of the 24 keys.
type ProfileEstimator struct {
	Profile Profile
}

func NewProfileEstimator(p Profile) *ProfileEstimator {
	return &ProfileEstimator{Profile: p}
}

// Histogram weights each pitch class by the beats of the slots containing it.
func Histogram(slots []model.HarmonicSlot) []float64 {
	hist := make([]float64, 12)
	for _, s := range slots {
		for pc := range s.PitchClasses {
			hist[pc] += s.Duration
		}
	}
	return hist
}

func rotate(profile [12]float64, tonic model.PitchClass) []float64 {
	res := make([]float64, 12)
	for pc := range res {
		res[pc] = profile[model.Mod12(pc-int(tonic))]
	}
	return res
}

func (e *ProfileEstimator) Estimate(slots []model.HarmonicSlot) (model.Key, error) {
	hist := Histogram(slots)
	if floats.Sum(hist) == 0 {
		return model.Key{}, errors.Wrap(ErrEstimation, "no harmonic content")
	}
	if stat.Variance(hist, nil) == 0 {
		return model.Key{}, errors.Wrap(ErrEstimation, "flat pitch-class histogram")
	}

	best := model.Key{}
	bestScore := math.Inf(-1)
	for _, mode := range []model.Mode{model.Major, model.Minor} {
		template := e.Profile.Major
		if mode == model.Minor {
			template = e.Profile.Minor
		}
		for tonic := model.PitchClass(0); tonic < 12; tonic++ {
			score := stat.Correlation(hist, rotate(template, tonic), nil)
			if score > bestScore {
				bestScore = score
				best = model.Key{Tonic: tonic, Mode: mode}
			}
		}
	}
	if math.IsInf(bestScore, -1) {
		return model.Key{}, errors.Wrap(ErrEstimation, "no key correlates")
	}
	return best, nil
}

// EstimateFunc estimates the key of the beat range [start, end).
type EstimateFunc func(start, end float64) (model.Key, error)

// RangeEstimator adapts est to beat ranges over slots, selecting the slots
// that start inside the range.
func RangeEstimator(est Estimator, slots []model.HarmonicSlot) EstimateFunc {
	return func(start, end float64) (model.Key, error) {
		var window []model.HarmonicSlot
		for _, s := range slots {
			if s.StartOffset >= start && s.StartOffset < end {
				window = append(window, s)
			}
		}
		return est.Estimate(window)
	}
}

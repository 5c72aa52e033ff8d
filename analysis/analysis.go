package analysis

import (
	"context"
	"time"

	"github.com/jsphweid/progdex/chord"
	"github.com/jsphweid/progdex/config"
	"github.com/jsphweid/progdex/key"
	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/pattern"
	"github.com/jsphweid/progdex/quantize"
	"github.com/jsphweid/progdex/roman"
	"github.com/pkg/errors"
)

// Labeler names a reduced chord's function in a key.
type Labeler func(c *model.ReducedChord, pcs model.PitchClassSet, k model.Key) (model.Label, error)

type Options struct {
	Quantize      quantize.Params
	KeyWindowSize float64
	Estimator     key.Estimator
	Labeler       Labeler
	Rules         []pattern.Rule
	Logger        logging.Logger
}

func DefaultOptions() Options {
	return Options{
		Quantize:      quantize.DefaultParams(),
		KeyWindowSize: 16.0,
		Estimator:     key.NewProfileEstimator(key.Krumhansl),
		Labeler:       roman.Label,
		Rules:         pattern.DefaultRules,
	}
}

// OptionsFromConfig builds Options from a loaded config.
func OptionsFromConfig(cfg *config.Root) (Options, error) {
	profile, err := key.ProfileByName(cfg.Key.Profile)
	if err != nil {
		return Options{}, err
	}
	opts := DefaultOptions()
	opts.Quantize = quantize.Params{
		WindowWidth:      cfg.Quantize.WindowWidth,
		StartOffset:      cfg.Quantize.StartOffset,
		OverlapThreshold: cfg.Quantize.OverlapThreshold,
		OnsetMargin:      cfg.Quantize.OnsetMargin,
		MaxWindows:       cfg.Quantize.MaxWindows,
	}
	opts.KeyWindowSize = cfg.Key.WindowSize
	opts.Estimator = key.NewProfileEstimator(profile)
	return opts, nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Quantize == (quantize.Params{}) {
		o.Quantize = d.Quantize
	}
	if o.KeyWindowSize == 0 {
		o.KeyWindowSize = d.KeyWindowSize
	}
	if o.Estimator == nil {
		o.Estimator = d.Estimator
	}
	if o.Labeler == nil {
		o.Labeler = d.Labeler
	}
	if o.Rules == nil {
		o.Rules = d.Rules
	}
	if o.Logger == nil {
		o.Logger = logging.GetGlobalLogger()
	}
	return o
}

// LabelSlots labels every slot with the key of its window. A slot that
// cannot be labeled gets the neutral tonic label, so indices stay aligned.
func LabelSlots(slots []model.HarmonicSlot, keys model.KeyMap, labeler Labeler, log logging.Logger) []model.LabeledChord {
	res := make([]model.LabeledChord, len(slots))
	for i, s := range slots {
		k := keys.At(s.StartOffset)
		l, err := labeler(s.Reduced, s.PitchClasses, k)
		if err != nil {
			log.Warn("labeling failed, using neutral label", logging.Fields{
				"index":        i,
				"start_offset": s.StartOffset,
				"key":          k.String(),
				"error":        err.Error(),
			})
			l = roman.Neutral(k)
		}
		res[i] = model.LabeledChord{Slot: s, Key: k, Label: l}
	}
	return res
}

// Annotate flattens labeled chords into the per-slot report.
func Annotate(labeled []model.LabeledChord) []model.SlotAnnotation {
	res := make([]model.SlotAnnotation, len(labeled))
	for i, lc := range labeled {
		s := lc.Slot
		a := model.SlotAnnotation{
			Index:       i,
			StartOffset: s.StartOffset,
			Duration:    s.Duration,
			Bass:        s.BassPitchClass,
			Pitches:     s.PitchClasses.Sorted(),
			Key:         lc.Key,
			Label:       lc.Label,
			NonDiatonic: roman.NonDiatonic(s.PitchClasses, lc.Key),
		}
		if s.Reduced != nil {
			a.Chord = *s.Reduced
			a.Symbol = chord.Symbol(s.PitchClasses, *s.Reduced)
			a.GuideTones = chord.GuideTones(*s.Reduced)
		}
		res[i] = a
	}
	return res
}

// Run takes note events through quantization, reduction, key windows,
// labeling and pattern detection, in that order. Each stage works on a
// fresh copy of the previous stage's output. ctx is checked between stages
// only. The only hard failure inside a stage is malformed input.
func Run(ctx context.Context, events []model.NoteEvent, opts Options) (*model.Analysis, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	slots, err := quantize.Quantize(events, opts.Quantize)
	if err != nil {
		return nil, errors.Wrap(err, "quantizing")
	}
	log.Debug("quantized", logging.Fields{"events": len(events), "slots": len(slots)})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reduced := chord.ReduceAll(slots)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := key.TimelineEnd(reduced)
	keys, err := key.AssignWindows(end, opts.KeyWindowSize, key.RangeEstimator(opts.Estimator, reduced))
	if err != nil {
		return nil, errors.Wrap(err, "assigning key windows")
	}
	log.Debug("assigned key windows", logging.Fields{"windows": len(keys.Windows), "global": keys.Global.String()})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labeled := LabelSlots(reduced, keys, opts.Labeler, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := pattern.FindPatterns(pattern.Labels(labeled), opts.Rules)
	if matches == nil {
		matches = []model.PatternMatch{}
	}
	log.Debug("found patterns", logging.Fields{"matches": len(matches)})

	return &model.Analysis{
		CreatedAt: time.Now().UTC(),
		Keys:      keys,
		Slots:     Annotate(labeled),
		Matches:   matches,
	}, nil
}

package key

import (
	"math"

	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
)

// MaxWindows bounds the number of local key windows over one timeline.
const MaxWindows = 1 << 20

// DefaultKey stands in for the global key when the whole timeline cannot
// be estimated.
var DefaultKey = model.Key{Tonic: 0, Mode: model.Major}

// TimelineEnd is the end of the last slot, or 0 for no slots.
func TimelineEnd(slots []model.HarmonicSlot) float64 {
	var end float64
	for _, s := range slots {
		if s.End() > end {
			end = s.End()
		}
	}
	return end
}

// AssignWindows binds every window [k*size, (k+1)*size) below end to a key.
// The global key is estimated once over [0, end). A window that cannot be
// estimated inherits the last successfully estimated key, or the global key
// if there has been none yet.
func AssignWindows(end, size float64, estimate EstimateFunc) (model.KeyMap, error) {
	if !(size > 0) {
		return model.KeyMap{}, errors.Errorf("key window size must be > 0, got %v", size)
	}
	if math.IsNaN(end) || end/size > MaxWindows {
		return model.KeyMap{}, errors.Errorf("timeline of %v beats needs more than %d key windows of %v beats", end, MaxWindows, size)
	}

	global, err := estimate(0, end)
	if err != nil {
		logging.Debug("global key estimation failed, using default", logging.Fields{"error": err.Error(), "key": DefaultKey.String()})
		global = DefaultKey
	}

	m := model.KeyMap{WindowSize: size, Global: global}
	last := global
	for k := 0; ; k++ {
		start := float64(k) * size
		if start >= end {
			break
		}
		local, err := estimate(start, start+size)
		if err != nil {
			logging.Debug("local key estimation failed, carrying forward", logging.Fields{"window_start": start, "key": last.String()})
			local = last
		} else {
			last = local
		}
		m.Windows = append(m.Windows, model.KeyWindow{WindowStart: start, Key: local})
	}
	return m, nil
}

package model

import "fmt"

type Mode uint8

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	switch m {
	case Major:
		return "major"
	case Minor:
		return "minor"
	default:
		return "unknown"
	}
}

type Key struct {
	Tonic PitchClass `json:"tonic"`
	Mode  Mode       `json:"mode"`
}

func (k Key) Valid() bool {
	return k.Tonic < 12 && (k.Mode == Major || k.Mode == Minor)
}

func (k Key) String() string {
	return fmt.Sprintf("%v %v", k.Tonic, k.Mode)
}

type KeyWindow struct {
	WindowStart float64 `json:"window_start"`
	Key         Key     `json:"key"`
}

// KeyMap binds every window of a timeline to a key. Windows[i] starts at
// i * WindowSize.
type KeyMap struct {
	WindowSize float64     `json:"window_size"`
	Windows    []KeyWindow `json:"windows"`
	Global     Key         `json:"global"`
}

// At returns the key of the window containing offset, or the global key
// when offset falls outside every window.
func (m KeyMap) At(offset float64) Key {
	if m.WindowSize <= 0 || offset < 0 {
		return m.Global
	}
	idx := int(offset / m.WindowSize)
	if idx >= len(m.Windows) {
		return m.Global
	}
	return m.Windows[idx].Key
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "major":
		*m = Major
	case "minor":
		*m = Minor
	default:
		return fmt.Errorf("unknown mode %q", text)
	}
	return nil
}

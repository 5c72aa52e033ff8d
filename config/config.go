package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "progdex.yaml"

type Quantize struct {
	WindowWidth      float64 `yaml:"window_width"`
	StartOffset      float64 `yaml:"start_offset"`
	OverlapThreshold float64 `yaml:"overlap_threshold"`
	OnsetMargin      float64 `yaml:"onset_margin"`
	MaxWindows       int     `yaml:"max_windows"`
}

type Key struct {
	WindowSize float64 `yaml:"window_size"`
	Profile    string  `yaml:"profile"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Metadata configures the optional DynamoDB lookup. An empty Table
// disables it.
type Metadata struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Table    string `yaml:"table"`
}

type Root struct {
	Quantize Quantize `yaml:"quantize"`
	Key      Key      `yaml:"key"`
	Store    Store    `yaml:"store"`
	Server   Server   `yaml:"server"`
	Metadata Metadata `yaml:"metadata"`
	Log      struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() *Root {
	cfg := &Root{
		Quantize: Quantize{
			WindowWidth:      2.0,
			StartOffset:      0,
			OverlapThreshold: 0.25,
			OnsetMargin:      0.5,
			MaxWindows:       100000,
		},
		Key: Key{
			WindowSize: 16.0,
			Profile:    "krumhansl",
		},
		Store:  Store{Path: "./out/progdex.db"},
		Server: Server{Addr: ":8080", AllowedOrigins: []string{"*"}},
	}
	cfg.Log.Level = "info"
	return cfg
}

// Path returns PROGDEX_CONFIG if set, otherwise DefaultPath.
func Path() string {
	if p := os.Getenv("PROGDEX_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path on top of the defaults. A missing file is not an error
// unless the path was given explicitly through PROGDEX_CONFIG.
func Load(path string) (*Root, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("PROGDEX_CONFIG") == "" {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "opening config %v", path)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "decoding config %v", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Root) Validate() error {
	q := r.Quantize
	switch {
	case q.WindowWidth <= 0:
		return errors.Errorf("quantize.window_width must be > 0, got %v", q.WindowWidth)
	case q.StartOffset < 0:
		return errors.Errorf("quantize.start_offset must be >= 0, got %v", q.StartOffset)
	case q.OverlapThreshold <= 0:
		return errors.Errorf("quantize.overlap_threshold must be > 0, got %v", q.OverlapThreshold)
	case q.OnsetMargin < 0:
		return errors.Errorf("quantize.onset_margin must be >= 0, got %v", q.OnsetMargin)
	case q.MaxWindows <= 0:
		return errors.Errorf("quantize.max_windows must be > 0, got %v", q.MaxWindows)
	case r.Key.WindowSize <= 0:
		return errors.Errorf("key.window_size must be > 0, got %v", r.Key.WindowSize)
	}
	switch r.Key.Profile {
	case "krumhansl", "temperley":
	default:
		return errors.Errorf("key.profile must be krumhansl or temperley, got %q", r.Key.Profile)
	}
	return nil
}

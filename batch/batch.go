package batch

import (
	"context"
	"path/filepath"

	"github.com/jsphweid/progdex/analysis"
	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/metadata"
	"github.com/jsphweid/progdex/midi"
	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/util"
	"github.com/pkg/errors"
)

type Lookuper interface {
	Lookup(filenames []string) (map[string]model.PieceMetadata, error)
}

type Saver interface {
	Save(ctx context.Context, a *model.Analysis) (string, error)
}

// Result is the outcome for one file. Err is set when the file was skipped.
type Result struct {
	Path     string
	Analysis *model.Analysis
	Err      error
}

type Processor struct {
	Options  analysis.Options
	Metadata Lookuper
	Store    Saver
	Log      logging.Logger
}

func (p *Processor) logger() logging.Logger {
	if p.Log == nil {
		return logging.GetGlobalLogger()
	}
	return p.Log
}

// lookupAll asks for metadata in groups of metadata.MaxBatch distinct base
// names. A failed group is logged and the rest carry on.
func (p *Processor) lookupAll(paths []string) map[string]model.PieceMetadata {
	if p.Metadata == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, path := range paths {
		name := filepath.Base(path)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	res := make(map[string]model.PieceMetadata)
	for start := 0; start < len(names); start += metadata.MaxBatch {
		group := names[start:util.Min(start+metadata.MaxBatch, len(names))]
		found, err := p.Metadata.Lookup(group)
		if err != nil {
			p.logger().Warn("metadata lookup failed, continuing without it", logging.Fields{"error": err.Error()})
			continue
		}
		for name, m := range found {
			res[name] = m
		}
	}
	return res
}

func (p *Processor) processMidiFile(ctx context.Context, path string, meta map[string]model.PieceMetadata) (*model.Analysis, error) {
	events, err := midi.ReadNoteEvents(path)
	if err != nil {
		return nil, err
	}
	a, err := analysis.Run(ctx, events, p.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "analyzing %v", path)
	}
	a.Source = filepath.Base(path)
	if m, ok := meta[a.Source]; ok {
		a.Metadata = &m
	}
	if p.Store != nil {
		if _, err := p.Store.Save(ctx, a); err != nil {
			return nil, errors.Wrapf(err, "saving %v", path)
		}
	}
	return a, nil
}

// ProcessAll analyzes each file in order. A file that fails is logged and
// skipped; only a cancelled context stops the run early.
func (p *Processor) ProcessAll(ctx context.Context, paths []string) ([]Result, error) {
	log := p.logger()
	meta := p.lookupAll(paths)

	res := make([]Result, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Info("processing midi file", logging.Fields{"n": i + 1, "of": len(paths), "path": path})
		a, err := p.processMidiFile(ctx, path, meta)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			log.Warn("skipping file", logging.Fields{"path": path, "error": err.Error()})
		}
		res = append(res, Result{Path: path, Analysis: a, Err: err})
	}
	return res, nil
}

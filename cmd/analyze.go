package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jsphweid/progdex/analysis"
	"github.com/jsphweid/progdex/batch"
	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/metadata"
	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/render"
	"github.com/jsphweid/progdex/store"
	"github.com/jsphweid/progdex/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	json      bool
	out       string
	save      bool
	maxNum    int
	width     float64
	threshold float64
	margin    float64
	keyWindow float64
	profile   string
}

var af analyzeFlags

func init() {
	rootCmd.AddCommand(analyzeCmd)
	f := analyzeCmd.Flags()
	f.BoolVar(&af.json, "json", false, "print the analysis as JSON")
	f.StringVar(&af.out, "out", "", "write an annotated MIDI file (a directory when analyzing several files)")
	f.BoolVar(&af.save, "save", false, "save the analysis to the store")
	f.IntVar(&af.maxNum, "max", 0, "analyze at most this many files from a directory (0 for all)")
	f.Float64Var(&af.width, "window-width", 0, "slot width in beats")
	f.Float64Var(&af.threshold, "threshold", 0, "minimum overlap in beats for a note to count in a slot")
	f.Float64Var(&af.margin, "margin", 0, "onset margin in beats for choosing the bass")
	f.Float64Var(&af.keyWindow, "key-window", 0, "local key window size in beats")
	f.StringVar(&af.profile, "profile", "", "key profile: krumhansl or temperley")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.mid|dir>",
	Short: "Analyzes a MIDI file, or every MIDI file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyAnalyzeFlags(cmd); err != nil {
			return err
		}
		return Analyze(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

func applyAnalyzeFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("window-width") {
		cfg.Quantize.WindowWidth = af.width
	}
	if f.Changed("threshold") {
		cfg.Quantize.OverlapThreshold = af.threshold
	}
	if f.Changed("margin") {
		cfg.Quantize.OnsetMargin = af.margin
	}
	if f.Changed("key-window") {
		cfg.Key.WindowSize = af.keyWindow
	}
	if f.Changed("profile") {
		cfg.Key.Profile = af.profile
	}
	return cfg.Validate()
}

func gatherPaths(path string) ([]string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, errors.Wrap(err, "reading input")
	}
	if !info.IsDir() {
		return []string{path}, false, nil
	}
	paths, err := util.GatherAllMidiPaths(path, af.maxNum)
	return paths, true, err
}

func annotatedPath(out string, many bool, source string) string {
	if !many {
		return out
	}
	name := strings.TrimSuffix(source, filepath.Ext(source)) + ".annotated.mid"
	return filepath.Join(out, name)
}

// Analyze runs every MIDI file at path through the pipeline and prints the
// results to w.
func Analyze(ctx context.Context, path string, w io.Writer) error {
	opts, err := analysis.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Logger = logging.GetGlobalLogger()

	paths, many, err := gatherPaths(path)
	if err != nil {
		return err
	}

	p := &batch.Processor{Options: opts}
	client, err := metadata.FromConfig(cfg.Metadata)
	if err != nil {
		return err
	}
	if client != nil {
		p.Metadata = client
	}
	if af.save {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		p.Store = st
	}

	results, err := p.ProcessAll(ctx, paths)
	if err != nil {
		return err
	}
	if !many && results[0].Err != nil {
		return results[0].Err
	}

	done := []*model.Analysis{}
	for _, r := range results {
		if r.Analysis == nil {
			continue
		}
		done = append(done, r.Analysis)
		if af.out != "" {
			out := annotatedPath(af.out, many, r.Analysis.Source)
			if err := render.WriteMIDIFile(out, r.Analysis); err != nil {
				return err
			}
			logging.Info("wrote annotated midi", logging.Fields{"path": out})
		}
	}

	if af.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if !many {
			return enc.Encode(done[0])
		}
		return enc.Encode(done)
	}
	for _, a := range done {
		if err := printReport(w, a); err != nil {
			return err
		}
	}
	return nil
}

func pitchNames(pcs []model.PitchClass) string {
	names := make([]string, len(pcs))
	for i, pc := range pcs {
		names[i] = pc.String()
	}
	return strings.Join(names, " ")
}

func printReport(w io.Writer, a *model.Analysis) error {
	title := a.Source
	if a.Metadata != nil && a.Metadata.Title != "" {
		title = fmt.Sprintf("%v (%v - %v)", a.Source, a.Metadata.Artist, a.Metadata.Title)
	}
	fmt.Fprintf(w, "%v\nglobal key: %v\n\n", title, a.Keys.Global)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tbeat\tchord\tfigure\tkey\tguide tones\tnon-diatonic")
	for _, s := range a.Slots {
		fmt.Fprintf(tw, "%d\t%g\t%v\t%v\t%v\t%v\t%v\n",
			s.Index, s.StartOffset, s.Symbol, s.Label.Figure, s.Key, pitchNames(s.GuideTones), pitchNames(s.NonDiatonic))
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing report")
	}

	if len(a.Matches) == 0 {
		fmt.Fprintln(w, "\nno patterns found")
		return nil
	}
	fmt.Fprintln(w, "\npatterns:")
	for _, m := range a.Matches {
		var figures []string
		for i := m.StartIndex; i < m.StartIndex+model.PatternLength && i < len(a.Slots); i++ {
			figures = append(figures, a.Slots[i].Label.Figure)
		}
		fmt.Fprintf(w, "  %v at slot %d (beat %g): %v\n", m.Kind, m.StartIndex, a.Slots[m.StartIndex].StartOffset, strings.Join(figures, " "))
	}
	fmt.Fprintln(w)
	return nil
}

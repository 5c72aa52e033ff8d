package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/jsphweid/progdex/model"
	"github.com/jsphweid/progdex/pattern"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(patternsCmd)
}

var patternsCmd = &cobra.Command{
	Use:   "patterns [labels.json]",
	Short: "Finds progression patterns in a JSON label sequence",
	Long: `Reads {"labels": [...]} from the given file, or stdin when no file is given,
and prints the ii-V-I and tritone-substitution matches as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "opening labels")
			}
			defer f.Close()
			in = f
		}
		return findPatterns(in, cmd.OutOrStdout())
	},
}

func findPatterns(r io.Reader, w io.Writer) error {
	var input model.PatternsRequestBody
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return errors.Wrap(err, "decoding labels")
	}
	matches := pattern.FindPatterns(input.Labels, pattern.DefaultRules)
	if matches == nil {
		matches = []model.PatternMatch{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(model.PatternsResponse{Matches: matches})
}

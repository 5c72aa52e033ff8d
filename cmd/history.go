package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jsphweid/progdex/store"
	"github.com/jsphweid/progdex/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of analyses to list")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists saved analyses and pattern totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		return history(cmd.Context(), st, cmd.OutOrStdout())
	},
}

func history(ctx context.Context, st *store.Store, w io.Writer) error {
	list, err := st.List(ctx, historyLimit)
	if err != nil {
		return err
	}
	counts, err := st.CountPatterns(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "id\tsource\tkey\tslots\tpatterns\tcreated")
	for _, s := range list {
		created := time.UnixMilli(s.CreatedAt).UTC().Format(time.RFC3339)
		fmt.Fprintf(tw, "%v\t%v\t%v\t%d\t%d\t%v\n", s.ID, s.Source, s.GlobalKey, s.NumSlots, s.NumMatch, created)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing history")
	}

	fmt.Fprintln(w, "\npattern totals:")
	if len(counts) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, kind := range util.SortedKeys(counts) {
		fmt.Fprintf(w, "  %v: %d\n", kind, counts[kind])
	}
	return nil
}

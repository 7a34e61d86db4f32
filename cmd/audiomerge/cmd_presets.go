package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/houzhh15/audiomerge/internal/media"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List compression presets and output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tTHRESHOLD\tRATIO\tATTACK\tRELEASE\tMAKEUP")
			for _, p := range media.Presets() {
				fmt.Fprintf(w, "%s\t%gdB\t%g:1\t%gms\t%gms\t%gdB\n",
					p.Name, p.ThresholdDB, p.Ratio, p.AttackMs, p.ReleaseMs, p.MakeupDB)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nFormats: %s\n", strings.Join(media.Formats(), ", "))
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/ayusman/tubecontrol/internal/store"
	"github.com/spf13/cobra"
)

func newCalibrationCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibration",
		Short: "Inspect or reset the eye focus calibration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active gaze thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			repo := st.Calibrations()
			cal, err := repo.Latest()
			switch {
			case errors.Is(err, store.ErrNotFound):
				fmt.Fprintln(out, "Not calibrated, using default thresholds.")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Calibration %s (%d samples, margin %.2f, %s)\n",
					cal.ID, cal.Samples, cal.Margin, cal.CreatedAt.Local().Format("2006-01-02 15:04"))
			}

			thresholds, err := repo.Thresholds()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(thresholds))
			for name := range thresholds {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "BLENDSHAPE\tTHRESHOLD")
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%.4f\n", name, thresholds[name])
			}
			return w.Flush()
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete stored calibrations and fall back to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Calibrations().Reset()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d calibration(s).\n", n)
			return nil
		},
	}

	cmd.AddCommand(show, reset)
	return cmd
}

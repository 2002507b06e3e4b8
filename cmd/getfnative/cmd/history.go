package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/report"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored sweeps, or print the curve of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db := cfg.Report.DB
			if db == "" {
				return errors.InvalidInput("db", "no history database configured (use --db or report.db)")
			}

			store, err := report.OpenStore(db)
			if err != nil {
				return err
			}
			defer store.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 1, 1, 2, ' ', 0)
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return errors.InvalidInput("run-id", "must be a valid UUID").WithCause(err)
				}
				curve, err := store.Curve(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "SRC_HEIGHT\tERROR")
				for i := range curve.Len() {
					p := curve.At(i)
					fmt.Fprintf(w, "%s\t%s\n", formatFloat(p.Height), formatFloat(p.Value))
				}
				return w.Flush()
			}

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ID\tCREATED\tFRAME\tKERNEL\tBASE\tDONE\tBEST\tFAILURE")
			for _, run := range runs {
				best := "-"
				if run.Best != nil {
					best = formatFloat(run.Best.Height)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%dx%d\t%d/%d\t%s\t%s\n",
					run.ID, run.CreatedAt.Local().Format(time.DateTime), run.Frame, run.Kernel,
					run.BaseWidth, run.BaseHeight, run.Completed, run.Total, best, run.Failure)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("db", "", "SQLite run history file (default: report.db from config)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().String(configFlag, "", "Config file")
	return cmd
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

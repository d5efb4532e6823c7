package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbonduro/dishcarbon/internal/db"
	"github.com/vbonduro/dishcarbon/internal/estimation"
	"github.com/vbonduro/dishcarbon/internal/export"
	"github.com/vbonduro/dishcarbon/internal/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit    int
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded estimations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.Open(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = database.Close() }()

			entries, err := store.NewEstimationStore(database).ListRecent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", xlsxPath, err)
				}
				if err := export.WriteHistory(f, entries); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("failed to close %s: %w", xlsxPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d estimations to %s\n", len(entries), xlsxPath)
				return nil
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No estimations yet")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tMETHOD\tDISH\tFOOTPRINT\tIMPACT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					e.ID,
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
					e.Method,
					e.Dish,
					estimation.FormatKg(e.EstimatedCarbonKg),
					estimation.ImpactLevel(e.EstimatedCarbonKg),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of estimations to show")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the history to this XLSX file instead of printing it")
	return cmd
}

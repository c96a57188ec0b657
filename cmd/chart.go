package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargehub/app"
)

var chartDir string

var chartCmd = &cobra.Command{
	Use:   "chart [scenario...]",
	Short: "Render stored site loads as HTML reports",
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVarP(&chartDir, "out", "o", "charts", "output directory")
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		names := args
		if len(names) == 0 {
			names = svc.Scenarios()
		}
		var errs []error
		for _, name := range names {
			if err := svc.Chart(ctx, name, chartDir); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

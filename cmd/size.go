package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargehub/app"
)

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Size the hub of every configured scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(app.StageSizing)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Optimise schedules from stored sizing results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(app.StageSchedule)
	},
}

func init() {
	rootCmd.AddCommand(sizeCmd)
	rootCmd.AddCommand(scheduleCmd)
}

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/guiChehade/planner-tatatu/internal/serverapp"
	"github.com/guiChehade/planner-tatatu/internal/sweep"
	"github.com/guiChehade/planner-tatatu/internal/telemetry"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Materialize due recurring instances once and exit",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().String("user", "", "sweep a single owner instead of everyone")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	store, err := serverapp.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sweeper := sweep.New(log, telemetry.NewMemoryRepository())

	reports := map[string]sweep.Report{}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		report, err := sweeper.Run(store.ForUser(user))
		if err != nil {
			return err
		}
		reports[user] = report
	} else {
		svc := sweep.NewService(sweep.Config{
			Schedule: cfg.Recurrence.SweepSchedule,
			Timezone: cfg.Recurrence.Timezone,
		}, store, sweeper, log)
		reports = svc.RunAll()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

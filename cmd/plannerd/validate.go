package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guiChehade/planner-tatatu/internal/model"
	"github.com/guiChehade/planner-tatatu/internal/recurrence"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a recurrence rule",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("kind", "", "rule kind (daily, weekly, monthly, yearly, weekdays, custom)")
	validateCmd.Flags().Int("interval", 1, "repeat interval")
	validateCmd.Flags().IntSlice("days", nil, "weekdays for custom rules (0=Sunday..6=Saturday)")
	validateCmd.Flags().String("end", "", "stop repeating after this date (YYYY-MM-DD)")
	_ = validateCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	interval, _ := cmd.Flags().GetInt("interval")
	days, _ := cmd.Flags().GetIntSlice("days")
	end, _ := cmd.Flags().GetString("end")

	r := &model.Recurrence{
		Kind:       model.RecurrenceKind(kind),
		Interval:   interval,
		DaysOfWeek: days,
	}
	if end != "" {
		r.EndDate = &end
	}

	res := recurrence.Validate(r, time.Now())
	if !res.Valid {
		for _, e := range res.Errors {
			fmt.Println("error:", e)
		}
		return fmt.Errorf("rule is invalid")
	}
	fmt.Println("ok:", recurrence.Describe(r))
	return nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/guiChehade/planner-tatatu/internal/model"
	"github.com/guiChehade/planner-tatatu/internal/recurrence"
)

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences",
	Short: "Preview upcoming dates for a recurrence rule",
	Example: `  plannerd occurrences --kind daily --interval 3 --anchor 2025-07-01
  plannerd occurrences --kind custom --days 1,3,5 --count 10`,
	RunE: runOccurrences,
}

func init() {
	occurrencesCmd.Flags().String("kind", "", "rule kind (daily, weekly, monthly, yearly, weekdays, custom)")
	occurrencesCmd.Flags().Int("interval", 1, "repeat interval")
	occurrencesCmd.Flags().IntSlice("days", nil, "weekdays for custom rules (0=Sunday..6=Saturday)")
	occurrencesCmd.Flags().String("end", "", "stop repeating after this date (YYYY-MM-DD)")
	occurrencesCmd.Flags().String("anchor", "", "anchor date (YYYY-MM-DD, default today)")
	occurrencesCmd.Flags().IntP("count", "n", 10, "number of occurrences to print")
	_ = occurrencesCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(occurrencesCmd)
}

func ruleFromFlags(cmd *cobra.Command) (*model.Recurrence, error) {
	kind, _ := cmd.Flags().GetString("kind")
	interval, _ := cmd.Flags().GetInt("interval")
	days, _ := cmd.Flags().GetIntSlice("days")
	end, _ := cmd.Flags().GetString("end")

	r := &model.Recurrence{
		Kind:       model.RecurrenceKind(strings.ToLower(strings.TrimSpace(kind))),
		Interval:   interval,
		DaysOfWeek: days,
	}
	if strings.TrimSpace(end) != "" {
		e := strings.TrimSpace(end)
		r.EndDate = &e
	}
	if res := recurrence.Validate(r, time.Now()); !res.Valid {
		return nil, fmt.Errorf("invalid rule: %s", strings.Join(res.Errors, "; "))
	}
	r.Normalize()
	return r, nil
}

func runOccurrences(cmd *cobra.Command, _ []string) error {
	rule, err := ruleFromFlags(cmd)
	if err != nil {
		return err
	}

	anchor := recurrence.StartOfDay(time.Now())
	if s, _ := cmd.Flags().GetString("anchor"); strings.TrimSpace(s) != "" {
		anchor, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
		if err != nil {
			return fmt.Errorf("anchor must be YYYY-MM-DD")
		}
	}
	count, _ := cmd.Flags().GetInt("count")

	fmt.Println(recurrence.Describe(rule))
	for _, o := range recurrence.Occurrences(anchor, rule, count) {
		fmt.Println(o.Format("2006-01-02"))
	}
	return nil
}

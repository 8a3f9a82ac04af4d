package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"visits/internal/models"
	"visits/internal/schedule"

	"github.com/spf13/cobra"
)

func newHolidaysCmd() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "holidays [year...]",
		Short: "List public holidays for one or more years",
		RunE: func(cmd *cobra.Command, args []string) error {
			years := []int{time.Now().Year()}
			if len(args) > 0 {
				years = years[:0]
				for _, a := range args {
					y, err := strconv.Atoi(a)
					if err != nil {
						return fmt.Errorf("invalid year %q", a)
					}
					years = append(years, y)
				}
			}

			cache := schedule.NewHolidayCache()
			set, err := cache.ForYears(years...)
			if err != nil {
				return err
			}
			days := set.Sorted()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(days)
			}
			for _, d := range days {
				fmt.Fprintf(out, "%s  %-9s%s\n", d, d.Weekday(), holidayNote(d))
			}
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return c
}

func holidayNote(d models.Date) string {
	switch d {
	case schedule.GoodFriday(d.Year):
		return "  (Good Friday)"
	case schedule.CorpusChristi(d.Year):
		return "  (Corpus Christi)"
	default:
		return ""
	}
}

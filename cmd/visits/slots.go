package main

import (
	"fmt"
	"text/tabwriter"

	"visits/internal/database"
	"visits/internal/models"
	"visits/internal/schedule"
	"visits/internal/service"

	"github.com/spf13/cobra"
)

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var (
		dateStr  string
		duration int
		party    int
		openOnly bool
	)

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show the bookable slots of a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, err := models.ParseDate(dateStr)
			if err != nil {
				return err
			}

			cfg, logger, closer, err := opts.loadConfigAndLogger("slots")
			if err != nil {
				return err
			}
			defer closeQuietly(closer)

			ctx := cmd.Context()
			repo, err := database.Open(ctx, cfg.Database, &logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc, err := service.NewBookingService(repo, nil, cfg.Schedule, &logger)
			if err != nil {
				return err
			}
			if duration == 0 {
				duration = svc.DefaultDuration()
			}

			day, err := svc.Availability(ctx, date, duration, party)
			if err != nil {
				return err
			}

			slots := day.Slots
			if openOnly {
				slots = schedule.OpenSlots(slots)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) windows: %v\n", day.Date, day.Class, day.Windows)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "START\tEND\tREMAINING\tSTATUS")
			for _, s := range slots {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Start, s.End, s.Remaining, s.Status)
			}
			return tw.Flush()
		},
	}

	c.Flags().StringVar(&dateStr, "date", "", "date YYYY-MM-DD")
	c.Flags().IntVar(&duration, "duration", 0, "visit length in minutes (default from config)")
	c.Flags().IntVar(&party, "party", 1, "party size")
	c.Flags().BoolVar(&openOnly, "open", false, "only list slots the party can book")
	_ = c.MarkFlagRequired("date")
	return c
}

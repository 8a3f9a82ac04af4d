package main

import (
	"fmt"

	"visits/internal/database"
	"visits/internal/export"
	"visits/internal/models"
	"visits/internal/service"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var fromStr, toStr, dir string

	c := &cobra.Command{
		Use:   "export",
		Short: "Write bookings of a date range to an XLSX file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := models.ParseDate(fromStr)
			if err != nil {
				return err
			}
			to, err := models.ParseDate(toStr)
			if err != nil {
				return err
			}

			cfg, logger, closer, err := opts.loadConfigAndLogger("export")
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

			bookings, err := svc.ListBookingsRange(ctx, from, to)
			if err != nil {
				return err
			}
			contacts, err := svc.DutyContactsRange(ctx, from, to)
			if err != nil {
				return err
			}

			if dir == "" {
				dir = cfg.Exports.Path
			}
			if dir == "" {
				dir = "exports"
			}
			path, err := export.SaveFile(dir, export.Report{From: from, To: to, Bookings: bookings, Contacts: contacts})
			if err != nil {
				return err
			}

			logger.Info().Str("file_path", path).Int("bookings", len(bookings)).Msg("Excel file created")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	c.Flags().StringVar(&fromStr, "from", "", "first date YYYY-MM-DD")
	c.Flags().StringVar(&toStr, "to", "", "last date YYYY-MM-DD")
	c.Flags().StringVar(&dir, "out", "", "output directory (default exports.path)")
	_ = c.MarkFlagRequired("from")
	_ = c.MarkFlagRequired("to")
	return c
}

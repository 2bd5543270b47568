package main

import (
	"fmt"
	"time"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/settings"

	"github.com/spf13/cobra"
)

func newNextRunCmd() *cobra.Command {
	var (
		freq  string
		at    string
		from  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "next-run",
		Short: "Print the upcoming run times for a frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := frequency.Parse(freq)
			if err != nil {
				return err
			}
			hour, minute, err := settings.ParseClock(at)
			if err != nil {
				return err
			}

			now := time.Now()
			if from != "" {
				if now, err = time.ParseInLocation("2006-01-02 15:04", from, time.Local); err != nil {
					return fmt.Errorf("--from must look like 2006-01-02 15:04: %w", err)
				}
			}
			if count < 1 {
				count = 1
			}

			out := cmd.OutOrStdout()
			if rr, err := frequency.RRule(f, hour, minute); err == nil {
				fmt.Fprintf(out, "RRULE:%s\n", rr)
			}
			for i := 0; i < count; i++ {
				if now, err = frequency.NextRun(now, f, hour, minute); err != nil {
					return err
				}
				fmt.Fprintln(out, now.Format("2006-01-02 15:04:05 Mon"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&freq, "frequency", frequency.Daily.Slug(), "frequency label or slug, e.g. every-2-days")
	cmd.Flags().StringVar(&at, "at", settings.DefaultStartTime, "time of day as HH:MM")
	cmd.Flags().StringVar(&from, "from", "", "compute from this local time instead of now (2006-01-02 15:04)")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of runs to print")
	return cmd
}

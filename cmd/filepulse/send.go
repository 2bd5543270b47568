package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSendTestCmd(load componentLoader) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send the test email to the given recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := load(cmd, "send-test")
			if err != nil {
				return err
			}
			defer components.CloseAll(commandContext(cmd))

			used, err := components.Surface.SendTest(commandContext(cmd), to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test email sent to %d recipient(s)\n", len(used))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "comma-separated recipient addresses")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSendNowCmd(load componentLoader) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "send-now",
		Short: "Email the newest report to the given recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := load(cmd, "send-now")
			if err != nil {
				return err
			}
			defer components.CloseAll(commandContext(cmd))

			report, used, err := components.Surface.SendNow(commandContext(cmd), to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report %s sent to %d recipient(s)\n", report.Path, len(used))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "comma-separated recipient addresses")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

package main

import (
	"context"

	"github.com/cankoe/filepulse/internal/config"
	"github.com/cankoe/filepulse/internal/helpers"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "filepulse",
		Short: "FilePulse - emails folder activity reports on a schedule",
		Long: `FilePulse mails the newest folder activity report to a list of recipients,
either on demand or on a recurring schedule, and exposes its settings over HTTP.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file")
	config.RegisterFlags(root.PersistentFlags())

	var load componentLoader = func(cmd *cobra.Command, name string) (*helpers.AppComponents, error) {
		return helpers.InitializeCommonComponents(commandContext(cmd), name, configPath, cmd.Flags())
	}

	root.AddCommand(
		newServeCmd(load),
		newSendTestCmd(load),
		newSendNowCmd(load),
		newNextRunCmd(),
	)
	return root
}

type componentLoader func(cmd *cobra.Command, name string) (*helpers.AppComponents, error)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

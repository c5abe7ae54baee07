package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"numcheck/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
	}
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Sessions dir", cfg.SessionsDir},
				{"Database dir", cfg.DatabaseDir},
				{"Report dir", cfg.ReportDir},
				{"Log dir", cfg.LogDir},
				{"Log level", cfg.LogLevel},
				{"Log format", cfg.LogFormat},
				{"Socket", cfg.SocketPath()},
				{"Reconnect delay", fmt.Sprintf("%ds", cfg.Supervisor.ReconnectDelay)},
				{"Cooldown", fmt.Sprintf("%ds", cfg.Access.CooldownSeconds)},
				{"Owner", valueOrDash(cfg.Access.OwnerID)},
				{"ntfy topic", valueOrDash(cfg.Notifications.NtfyTopic)},
				{"Mail account", valueOrDash(cfg.Mail.Username)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Setting", "Value"}, rows,
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				target = config.DefaultConfigPath()
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample configuration written to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "", "Target path (defaults to the standard location)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored login sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				sessions, err := client.Sessions()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSessions(sessions))
				return nil
			})
		},
	}
	cmd.AddCommand(newSessionsRemoveCommand(ctx))
	return cmd
}

func newSessionsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Evict a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.RemoveSession(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %s removed\n", args[0])
				return nil
			})
		},
	}
}

func renderSessions(sessions *ipc.SessionsResponse) string {
	if len(sessions.Sessions) == 0 {
		return fmt.Sprintf("no stored sessions (capacity %d)", sessions.Capacity)
	}
	rows := make([][]string, 0, len(sessions.Sessions))
	for i, name := range sessions.Sessions {
		active := ""
		if name == sessions.Active {
			active = "active"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), name, active})
	}
	return renderTable([]string{"#", "Session", "State"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft})
}

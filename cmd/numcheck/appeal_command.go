package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newAppealCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "appeal <id>",
		Short: "Send an unblock appeal for a blocked identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Appeal(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "appeal sent: %s\n", resp.Subject)
				return nil
			})
		},
	}
}

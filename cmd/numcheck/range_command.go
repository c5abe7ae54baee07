package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newRangeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "range <prefix> <start> <end>",
		Short: "Check a generated block of identifiers for registration",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("start must be a number: %q", args[1])
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("end must be a number: %q", args[2])
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Range(args[0], start, end)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderVerifySummary(resp))
				fmt.Fprintf(out, "report: %s\n", resp.ReportPath)
				return nil
			})
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently finished verification jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						job.FinishedAt.Local().Format("2006-01-02 15:04"),
						job.Kind,
						fmt.Sprintf("%d", job.Total),
						fmt.Sprintf("%d", job.Registered),
						fmt.Sprintf("%d", job.Failed),
						valueOrDash(job.RequestedBy),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Finished", "Kind", "Total", "Registered", "Failed", "Requested by"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to list")
	return cmd
}

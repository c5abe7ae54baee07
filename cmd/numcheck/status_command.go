package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and connection status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status))
				return nil
			})
		},
	}
}

func renderStatus(status *ipc.StatusResponse) string {
	rows := [][]string{
		{"Running", yesNo(status.Running)},
		{"PID", strconv.Itoa(status.PID)},
		{"Connection", status.State},
		{"Active session", valueOrDash(status.ActiveSession)},
		{"Self ID", valueOrDash(status.SelfID)},
		{"QR pending", yesNo(status.QRPending)},
		{"Stored sessions", fmt.Sprintf("%d/%d", len(status.Sessions), status.Capacity)},
		{"Known users", strconv.Itoa(status.KnownUsers)},
		{"Public access", yesNo(status.Public)},
	}
	if status.LastError != "" {
		rows = append(rows, []string{"Last error", status.LastError})
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

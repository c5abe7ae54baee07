package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newUserinfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "userinfo [id]",
		Short: "Show a known user, or list all known users",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UserInfo(id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderUserInfo(id, resp))
				return nil
			})
		},
	}
}

func renderUserInfo(id string, resp *ipc.UserInfoResponse) string {
	if id == "" {
		if len(resp.IDs) == 0 {
			return "no users recorded"
		}
		rows := make([][]string, 0, len(resp.IDs))
		for _, known := range resp.IDs {
			rows = append(rows, []string{known})
		}
		return renderTable([]string{"User"}, rows, []columnAlignment{alignLeft})
	}
	if !resp.Known {
		return fmt.Sprintf("user %s has never been seen", id)
	}
	rows := [][]string{
		{"User", id},
		{"First seen", resp.FirstSeen.Local().Format("2006-01-02 15:04")},
		{"Last seen", resp.LastSeen.Local().Format("2006-01-02 15:04")},
		{"Jobs", fmt.Sprintf("%d", resp.Jobs)},
		{"Appeals left", fmt.Sprintf("%d", resp.FixLimit)},
		{"Last appeal", userTime(resp.LastFix)},
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

func userTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"numcheck/internal/identifier"
	"numcheck/internal/inputfile"
	"numcheck/internal/ipc"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var listFile string

	cmd := &cobra.Command{
		Use:   "verify [identifiers...]",
		Short: "Run a verification job over identifiers or a list file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string(nil), args...)
			if listFile != "" {
				extracted, err := inputfile.Extract(listFile)
				if err != nil {
					return err
				}
				ids = append(ids, extracted...)
			}
			if len(ids) == 0 {
				return errors.New("provide identifiers as arguments or via --file")
			}
			ids, capped := capInteractive(ids, listFile != "")
			if capped {
				fmt.Fprintf(cmd.OutOrStdout(), "note: capped at %d identifiers; use --file for larger lists\n",
					identifier.InteractiveCap)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Verify(kind, ids)
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

	cmd.Flags().StringVarP(&kind, "kind", "k", "existence", "Job kind: existence, bio or pattern")
	cmd.Flags().StringVarP(&listFile, "file", "f", "", "Read identifiers from a TXT, CSV or XLSX file")
	return cmd
}

// capInteractive bounds identifiers typed on the command line. File-based
// input is uncapped.
func capInteractive(ids []string, fromFile bool) ([]string, bool) {
	if fromFile || len(ids) <= identifier.InteractiveCap {
		return ids, false
	}
	return ids[:identifier.InteractiveCap], true
}

func renderVerifySummary(resp *ipc.VerifyResponse) string {
	rows := [][]string{
		{"Job", resp.JobID},
		{"Kind", resp.Kind},
	}
	if resp.Label != "" {
		rows = append(rows, []string{"Range", resp.Label})
	}
	rows = append(rows, [][]string{
		{"Total", fmt.Sprintf("%d", resp.Total)},
		{"Registered", fmt.Sprintf("%d", resp.Registered)},
		{"Not registered", fmt.Sprintf("%d", resp.Unregistered)},
	}...)
	if resp.Failed > 0 {
		rows = append(rows, []string{"Failed", fmt.Sprintf("%d", resp.Failed)})
	}
	if len(resp.RejectedRaw) > 0 {
		rows = append(rows, []string{"Rejected inputs", fmt.Sprintf("%d", len(resp.RejectedRaw))})
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newTemplateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage appeal letter templates",
	}

	var to, subject, body string
	add := &cobra.Command{
		Use:   "add",
		Short: "Store a new appeal template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" || body == "" {
				return errors.New("--subject and --body are required")
			}
			return runTemplate(ctx, cmd, ipc.TemplateRequest{
				Action:  "add",
				To:      to,
				Subject: subject,
				Body:    body,
			})
		},
	}
	add.Flags().StringVar(&to, "to", "", "Destination address, default is the support address")
	add.Flags().StringVar(&subject, "subject", "", "Mail subject")
	add.Flags().StringVar(&body, "body", "", "Mail body, must contain {nomor}")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := templateID(args[0])
			if err != nil {
				return err
			}
			return runTemplate(ctx, cmd, ipc.TemplateRequest{Action: "remove", ID: id})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "activate <id>",
		Short: "Select the template appeals are sent from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := templateID(args[0])
			if err != nil {
				return err
			}
			return runTemplate(ctx, cmd, ipc.TemplateRequest{Action: "activate", ID: id})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(ctx, cmd, ipc.TemplateRequest{Action: "list"})
		},
	})
	return cmd
}

func templateID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("template id must be a number: %q", arg)
	}
	return id, nil
}

func runTemplate(ctx *commandContext, cmd *cobra.Command, req ipc.TemplateRequest) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Template(req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTemplates(resp))
		return nil
	})
}

func renderTemplates(resp *ipc.TemplateResponse) string {
	if len(resp.Templates) == 0 {
		return "no stored templates; built-in letters are used"
	}
	rows := make([][]string, 0, len(resp.Templates))
	for _, tpl := range resp.Templates {
		rows = append(rows, []string{
			fmt.Sprintf("%d", tpl.ID),
			yesNo(tpl.Active),
			tpl.Subject,
			valueOrDash(tpl.To),
		})
	}
	return renderTable([]string{"ID", "Active", "Subject", "To"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
}

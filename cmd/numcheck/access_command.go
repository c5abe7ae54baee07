package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newAccessCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Manage who may use verification commands",
	}
	cmd.AddCommand(newRosterCommands(ctx, "allow", "the allowlist"))
	cmd.AddCommand(newRosterCommands(ctx, "admin", "the admin list"))
	cmd.AddCommand(newPremiumCommands(ctx))
	cmd.AddCommand(newPublicCommand(ctx))
	cmd.AddCommand(newMaintenanceCommand(ctx))
	cmd.AddCommand(newLimitCommand(ctx))
	return cmd
}

func newRosterCommands(ctx *commandContext, name, description string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: "Manage " + description,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Add an identifier to " + description,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: name + "-add", ID: args[0]})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an identifier from " + description,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: name + "-remove", ID: args[0]})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List " + description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: name + "-list"})
		},
	})
	return cmd
}

func newPremiumCommands(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Manage premium grants",
	}
	grant := &cobra.Command{
		Use:   "grant <id>",
		Short: "Grant premium for a number of days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: "premium-grant", ID: args[0], Days: days})
		},
	}
	grant.Flags().IntVarP(&days, "days", "d", 30, "Grant duration in days")
	cmd.AddCommand(grant)
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a premium grant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: "premium-revoke", ID: args[0]})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List premium grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: "premium-list"})
		},
	})
	return cmd
}

func newPublicCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "public <on|off>",
		Short: "Open or close verification commands to everyone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "on":
				return runAccess(ctx, cmd, ipc.AccessRequest{Action: "public-on"})
			case "off":
				return runAccess(ctx, cmd, ipc.AccessRequest{Action: "public-off"})
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
		},
	}
}

func newMaintenanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance <on|off>",
		Short: "Restrict verification commands to the owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "on":
				return runAccess(ctx, cmd, ipc.AccessRequest{Action: "maintenance-on"})
			case "off":
				return runAccess(ctx, cmd, ipc.AccessRequest{Action: "maintenance-off"})
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
		},
	}
}

func newLimitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "limit <id> <n>",
		Short: "Set how many appeals a user may still send",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("limit must be a number: %q", args[1])
			}
			return runAccess(ctx, cmd, ipc.AccessRequest{Action: "limit-set", ID: args[0], Limit: n})
		},
	}
}

func runAccess(ctx *commandContext, cmd *cobra.Command, req ipc.AccessRequest) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.Access(req)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(resp.IDs) == 0 {
			fmt.Fprintln(out, "ok")
			return nil
		}
		for i, id := range resp.IDs {
			if i < len(resp.Expires) {
				fmt.Fprintf(out, "%s\texpires %s\n", id, resp.Expires[i])
				continue
			}
			fmt.Fprintln(out, id)
		}
		return nil
	})
}

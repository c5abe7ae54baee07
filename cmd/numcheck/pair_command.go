package main

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"numcheck/internal/ipc"
)

func newPairCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair <phone>",
		Short: "Start a pairing login for a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Pair(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pairing code: %s\n", resp.Code)
				fmt.Fprintln(cmd.OutOrStdout(), "enter this code on the linked-devices screen of the phone")
				return nil
			})
		},
	}
	cmd.AddCommand(newPairQRCommand(ctx))
	return cmd
}

func newPairQRCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Write the pending QR login payload as a PNG image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QR()
				if err != nil {
					return err
				}
				if resp.Payload == "" {
					return errors.New("no QR login is pending")
				}
				if err := qrcode.WriteFile(resp.Payload, qrcode.Medium, 512, output); err != nil {
					return fmt.Errorf("write qr image: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "QR image written to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "numcheck-qr.png", "Output PNG path")
	return cmd
}

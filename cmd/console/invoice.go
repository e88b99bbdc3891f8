package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var invoiceOut string

var invoiceCmd = &cobra.Command{
	Use:   "invoice <order-id>",
	Short: "Download the invoice PDF of an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := app.Invoice(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		path := invoiceOut
		if path == "" {
			path = "invoice-" + args[0] + ".pdf"
		}
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("write invoice: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Invoice saved to %s (%d bytes).\n", path, len(doc))
		return nil
	},
}

func init() {
	invoiceCmd.Flags().StringVarP(&invoiceOut, "output", "o", "", "Output file (default invoice-<order-id>.pdf)")
	rootCmd.AddCommand(invoiceCmd)
}

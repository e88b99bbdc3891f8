package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

var payPhone string

var payCmd = &cobra.Command{
	Use:   "pay <order-id>",
	Short: "Request a mobile-money payment for an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		p, err := app.Pay(cmd.Context(), args[0], payPhone, func(p *domain.Payment) {
			fmt.Fprintf(out, "Payment %s: %s\n", p.ID, describePayment(p))
		})
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentFailed {
			return fmt.Errorf("payment failed: %s", describePayment(p))
		}
		fmt.Fprintln(out, "Payment confirmed.")
		return nil
	},
}

func describePayment(p *domain.Payment) string {
	parts := []string{string(p.Status)}
	if p.GatewayStatus != "" {
		parts = append(parts, strings.ToLower(string(p.GatewayStatus)))
	}
	if p.Reason != "" {
		parts = append(parts, p.Reason)
	}
	return strings.Join(parts, ", ")
}

func init() {
	payCmd.Flags().StringVar(&payPhone, "phone", "", "Payer mobile-money number, e.g. 256772123456")
	_ = payCmd.MarkFlagRequired("phone")
	rootCmd.AddCommand(payCmd)
}

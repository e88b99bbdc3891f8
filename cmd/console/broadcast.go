package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

var broadcastType string

var broadcastCmd = &cobra.Command{
	Use:   "broadcast <title> <message>",
	Short: "Send a notification to every connected admin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := domain.Notification{Type: domain.NotificationType(broadcastType), Title: args[0], Message: args[1]}
		if !n.Type.Valid() {
			return &domain.ValidationError{Field: "type", Message: "type must be one of system, message, stock, order"}
		}
		if err := app.Broadcast(cmd.Context(), n); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Notification sent.")
		return nil
	},
}

func init() {
	broadcastCmd.Flags().StringVar(&broadcastType, "type", string(domain.NotificationSystem), "Notification type")
	rootCmd.AddCommand(broadcastCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/nhonest/supermarket-web/internal/console"
)

var quiet bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live dashboard",
	Long: `Open the live dashboard: notifications are streamed as they arrive,
and the session is kept alive while you type. You are warned before the
session times out and can type "extend" to stay signed in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		term := console.NewTerminal(cmd.OutOrStdout(), !quiet)
		return app.Watch(cmd.Context(), cmd.InOrStdin(), term)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&quiet, "quiet", false, "Do not ring the bell on new notifications")
	rootCmd.AddCommand(watchCmd)
}

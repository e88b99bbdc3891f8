package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, remaining, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Signed in:    %s (%s)\n", cred.Principal.Email, cred.Principal.Role)
		fmt.Fprintf(out, "Idle timeout: %s left\n", remaining.Round(time.Second))
		if exp, ok := cred.Principal.ExpiresAt(); ok {
			fmt.Fprintf(out, "Token expiry: %s\n", exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

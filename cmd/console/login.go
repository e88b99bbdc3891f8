package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as an administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if reason, err := app.LoginReason(ctx); err == nil && reason != "" {
			fmt.Fprintln(out, reason)
		}

		in := bufio.NewReader(cmd.InOrStdin())
		email := loginEmail
		if email == "" {
			fmt.Fprint(out, "Email: ")
			line, err := in.ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			email = strings.TrimSpace(line)
		}

		fmt.Fprint(out, "Password: ")
		password, err := readPassword(in)
		fmt.Fprintln(out)
		if err != nil {
			return err
		}

		p, err := app.Login().Submit(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in as %s (%s).\n", p.Email, p.Role)
		return nil
	},
}

// readPassword reads without echo from a terminal, or a plain line
// otherwise.
func readPassword(in *bufio.Reader) (string, error) {
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Admin email address")
	rootCmd.AddCommand(loginCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhonest/supermarket-web/internal/console"
	"github.com/nhonest/supermarket-web/internal/core/domain"
	"github.com/nhonest/supermarket-web/pkg/logger"
)

var (
	configPath string
	serverURL  string
	verbose    bool

	app *console.App
	cfg *console.Config
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "nhonest-console",
	Short: "Admin console for N.Honest Supermarket",
	Long: `nhonest-console is the terminal admin client for N.Honest Supermarket.

It keeps the admin session in a local state file, warns before the session
times out, streams live notifications and can request mobile-money
payments and download invoices.

Configuration is read from ~/.nhonest/console.toml when present.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = console.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log := logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr, Service: "console"})

		app, err = console.NewApp(cfg, nil, log)
		return err
	},
}

// Execute runs the root command and prints any error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", console.DefaultConfigPath(), "Path to the console TOML config")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API server URL (overrides server_url)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var (
		redirect *console.RedirectError
		locked   *domain.LockoutError
		invalid  *domain.ValidationError
		rejected *console.RejectedError
	)
	switch {
	case errors.As(err, &redirect):
		return redirect.Reason + "\nRun `nhonest-console login` to sign in."
	case errors.As(err, &locked):
		return locked.Error()
	case errors.As(err, &invalid):
		return invalid.Message
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, domain.ErrForbidden):
		return "You do not have permission to do that."
	case errors.Is(err, domain.ErrTransient):
		return "The server could not be reached. Please try again."
	}
	return "Error: " + err.Error()
}

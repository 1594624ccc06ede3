package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the grace server CLI. Running it without a subcommand
// serves the API.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "grace",
		Short:        "Grace authentication server",
		Long:         `Grace serves sign-up, sign-in, session and account administration over HTTP.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the session cleanup worker",
		RunE:  runServe,
	}
}

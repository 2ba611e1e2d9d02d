package main

import (
	"context"

	"blitzscan/cmd/blitzscan/account"
	"blitzscan/cmd/blitzscan/app"
	"blitzscan/cmd/blitzscan/scan"
	"blitzscan/cmd/blitzscan/server"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	opts := &app.Options{}

	rootCmd := &cobra.Command{
		Use:   "blitzscan",
		Short: "BLITZ SCAN security scanning client",
		Long: `BLITZ SCAN runs directory fuzzing, port scans and WHOIS lookups through the
scanning backend, keeps a per-user history and renders text reports`,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Configuration file or directory")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(scan.NewScanCommand(opts))
	rootCmd.AddCommand(scan.NewHistoryCommand(opts))
	rootCmd.AddCommand(scan.NewReportCommand(opts))
	rootCmd.AddCommand(scan.NewListModulesCommand(opts))
	rootCmd.AddCommand(scan.NewListHooksCommand(opts))
	rootCmd.AddCommand(account.NewLoginCommand(opts))
	rootCmd.AddCommand(account.NewRegisterCommand(opts))
	rootCmd.AddCommand(account.NewLogoutCommand(opts))
	rootCmd.AddCommand(account.NewWhoamiCommand(opts))
	rootCmd.AddCommand(account.NewPasswdCommand(opts))
	rootCmd.AddCommand(account.NewAvatarCommand(opts))
	rootCmd.AddCommand(server.NewServerCommand(opts))

	return rootCmd
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

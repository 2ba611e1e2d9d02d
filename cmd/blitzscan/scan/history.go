package scan

import (
	"fmt"
	"strconv"
	"time"

	"blitzscan/cmd/blitzscan/app"
	"blitzscan/internal/history"
	"blitzscan/pkg/errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand(opts *app.Options) *cobra.Command {
	var (
		asJSON bool
		asYAML bool
		remove string
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List your saved scans, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			if !a.Session.IsAuthenticated() {
				return errors.ErrNotAuthenticated
			}

			if remove != "" {
				if err := a.Scans.DeleteScan(cmd.Context(), a.Owner(), remove); err != nil {
					return err
				}
				pterm.Success.Printfln("Escaneo %s eliminado", remove)
				return nil
			}

			scans, err := a.Scans.ListScans(cmd.Context(), a.Owner())
			if err != nil {
				return err
			}

			format := FormatTable
			switch {
			case asJSON:
				format = FormatJSON
			case asYAML:
				format = FormatYAML
			}
			if err := WriteHistory(cmd.OutOrStdout(), scans, format); err != nil {
				return err
			}

			if format == FormatTable && len(scans) > 0 {
				stats := history.ComputeStats(scans, time.Now())
				pterm.Info.Printfln("Total: %d  Completados: %d  Última semana: %d",
					stats.Total, stats.Completed, stats.LastWeek)
			}
			return nil
		},
	}

	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full scans as JSON")
	historyCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print scan summaries as YAML")
	historyCmd.Flags().StringVar(&remove, "delete", "", "Delete the scan with this id")
	historyCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return historyCmd
}

// NewListModulesCommand creates the list-modules command
func NewListModulesCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list-modules",
		Short: "List available scan types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			tableData := pterm.TableData{{"Tipo", "Endpoint", "Reintentos", "Descripción"}}
			for _, module := range a.Modules.GetScanModules() {
				retries := "-"
				if module.MaxRetries > 0 {
					retries = strconv.Itoa(module.MaxRetries)
				}
				tableData = append(tableData, []string{
					string(module.Kind), module.Endpoint, retries, module.Description,
				})
			}
			return pterm.DefaultTable.
				WithHasHeader(true).
				WithBoxed(false).
				WithData(tableData).
				WithWriter(cmd.OutOrStdout()).
				Render()
		},
	}
}

// NewListHooksCommand creates the list-hooks command
func NewListHooksCommand(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list-hooks",
		Short: "List the hooks enabled by the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			names := a.Hooks.List()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No hooks enabled")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Enabled Hooks:")
			fmt.Fprintln(cmd.OutOrStdout(), "==============")
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "• %s\n", name)
			}
			return nil
		},
	}
}

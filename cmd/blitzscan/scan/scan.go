package scan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"blitzscan/cmd/blitzscan/app"
	"blitzscan/internal/models"
	"blitzscan/internal/report"
	"blitzscan/internal/utils"
	"blitzscan/pkg/errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Config holds the scan command flags
type Config struct {
	URL       string
	Kind      string
	Save      bool
	ReportDir string
}

// NewScanCommand creates the scan command
func NewScanCommand(opts *app.Options) *cobra.Command {
	config := &Config{}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a scan against a target",
		Long: `Run a directory fuzzing, port scan or WHOIS lookup against a target URL.
The scan is saved to your history with --save when you are signed in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			kind, ok := models.ParseScanKind(config.Kind)
			if !ok {
				return fmt.Errorf("%w: %q", errors.ErrUnknownScanKind, config.Kind)
			}

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := a.Close(); closeErr != nil {
					a.Logger.WithError(closeErr).Error("Error closing application")
				}
			}()

			ctx, cancel := app.WithSignals(cmd.Context(), a.Logger)
			defer cancel()

			spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Escaneando %s (%s)...", config.URL, kind))
			scan, err := a.Scans.StartScan(ctx, a.Owner(), config.URL, kind)
			if err != nil {
				if spinner != nil {
					spinner.Fail(err.Error())
				}
				return err
			}
			if spinner != nil {
				if scan.Status == models.StatusCompleted {
					spinner.Success("Escaneo completado")
				} else {
					spinner.Fail("Escaneo fallido: " + scan.ErrorMessage)
				}
			}

			PrintScan(scan, a.Patterns)

			if config.Save {
				switch err := a.Scans.SaveScan(ctx, a.Owner(), scan); {
				case errors.Is(err, errors.ErrNotAuthenticated):
					pterm.Warning.Println("Inicia sesión para guardar el escaneo en tu historial")
				case errors.Is(err, errors.ErrScanNotCompleted):
					pterm.Warning.Println("Solo los escaneos completados se guardan en el historial")
				case err != nil:
					return fmt.Errorf("failed to save scan: %w", err)
				default:
					pterm.Success.Printfln("Escaneo %s guardado", scan.ID)
				}
			}

			if config.ReportDir != "" {
				data, err := report.Bytes(ctx, scan, report.WithPatterns(a.Patterns))
				if err != nil {
					return err
				}
				path, err := writeReport(config.ReportDir, report.Filename(scan), data)
				if err != nil {
					return err
				}
				pterm.Success.Printfln("Reporte escrito en %s", path)
			}

			return nil
		},
	}

	scanCmd.Flags().StringVarP(&config.URL, "url", "u", "", "Target URL or domain (required)")
	scanCmd.Flags().StringVarP(&config.Kind, "type", "t", "", "Scan type: fuzzing, nmap or whois (required)")
	scanCmd.Flags().BoolVarP(&config.Save, "save", "s", false, "Save the completed scan to your history")
	scanCmd.Flags().StringVarP(&config.ReportDir, "report", "r", "", "Write a text report into this directory")

	scanCmd.MarkFlagRequired("url")
	scanCmd.MarkFlagRequired("type")

	return scanCmd
}

// NewReportCommand creates the report command
func NewReportCommand(opts *app.Options) *cobra.Command {
	var outputDir string

	reportCmd := &cobra.Command{
		Use:   "report <scan-id>",
		Short: "Download the text report of a saved scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			var buf bytes.Buffer
			filename, err := a.Scans.Report(cmd.Context(), a.Owner(), args[0], &buf)
			if err != nil {
				return err
			}
			path, err := writeReport(outputDir, filename, buf.Bytes())
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Reporte escrito en %s", path)
			return nil
		},
	}

	reportCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the report into")

	return reportCmd
}

func writeReport(dir, filename string, data []byte) (string, error) {
	if err := utils.EnsureDirectoryExists(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}

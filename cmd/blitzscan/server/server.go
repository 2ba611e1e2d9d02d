package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"blitzscan/api/routes"
	"blitzscan/cmd/blitzscan/app"
	"blitzscan/internal/config"
	"blitzscan/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

type ServerOpts struct {
	Port int
	Ip   string
}

func NewServerCommand(opts *app.Options) *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the BLITZ SCAN HTTP API",
		Long:  `Start the HTTP API that runs scans and serves per-user history and reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			a, err := app.New(cmd.Context(), *opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			if !cmd.Flags().Changed("port") {
				serverConfig.Port = a.Config.Server.Port
			}
			gin.SetMode(a.Config.Server.Mode)
			config.Watch(a.Viper, a.Logger, config.ApplyLogLevel(a.Logger))

			router := routes.InitRouter(routes.Dependencies{
				ScanService:   a.Scans,
				ConfigService: a.Modules,
				Queue:         a.Queue,
				Logger:        a.Logger,
				Patterns:      a.Patterns,
			})
			srv := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", serverConfig.Ip, serverConfig.Port),
				Handler: router,
			}

			ctx, cancel := app.WithSignals(cmd.Context(), a.Logger)
			defer cancel()

			errChan := make(chan error, 1)
			go func() {
				a.Logger.WithField("addr", srv.Addr).Info("Starting server")
				errChan <- srv.ListenAndServe()
			}()

			select {
			case err := <-errChan:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.Logger.Info("Shutting down server, waiting for running scans...")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.WithError(err).Warn("Server shutdown timed out")
				return err
			}
			return nil
		},
	}

	serverCmd.Flags().IntVarP(&serverConfig.Port, "port", "p", 8080, "Port to run the server on")
	serverCmd.Flags().StringVarP(&serverConfig.Ip, "ip", "i", "", "IP address to bind the server to")

	return serverCmd
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cankoe/filepulse/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load componentLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP settings API and the report scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			components, err := load(cmd, "api")
			if err != nil {
				return err
			}
			defer components.CloseAll(context.Background())

			if components.Config.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			r := api.NewRouter()
			api.RegisterRoutes(r, components.Surface, components.Mailer, components.Config.APIKeys.User)
			if components.Deliveries != nil {
				api.RegisterAdminRoutes(r, components.Deliveries, components.Config.APIKeys.Admin)
			} else {
				log.Info().Msg("No MongoDB configured, admin delivery routes disabled")
			}

			srv := &http.Server{
				Addr:              components.Config.HTTP.Addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("API server started")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
				log.Info().Msg("Shutdown signal received, stopping API server gracefully...")
			case err := <-errCh:
				if err != nil {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("API server forced to shut down")
				return err
			}
			log.Info().Msg("API server exited gracefully")
			return nil
		},
	}
}

// =============================================================================
// Debt Ledger - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   debtledger serve [--addr :8080] [--cors-origin https://app.example.com]
//
// Runs the HTTP API until SIGINT/SIGTERM, then drains in-flight requests.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/debtledger/internal/api"
	"github.com/ginjaninja78/debtledger/internal/notify"
)

var (
	serveAddr        string
	serveCORSOrigins []string
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		addr := a.cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		router := api.NewRouter(api.Deps{
			Orchestrator:   a.orchestrator(nil, nil, notify.LogSink{Logger: a.logger}),
			Store:          a.store,
			Codec:          a.codec,
			Validator:      a.validator,
			Logger:         a.logger,
			AllowedOrigins: serveCORSOrigins,
		})

		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverErrCh := make(chan error, 1)
		go func() {
			serverErrCh <- srv.ListenAndServe()
		}()
		a.logger.WithFields(logrus.Fields{"module": "cmd", "addr": addr}).Info("listening")

		select {
		case err := <-serverErrCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCtx.Done():
		}

		a.logger.WithField("module", "cmd").Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to listen_addr)")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable); all origins when unset")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geoattend-backend/internal/platform/db"
	"geoattend-backend/internal/sweep"
)

func main() {
	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "geoattend",
		Short:        "QR and geofence attendance with payroll",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", db.DefaultConfigPath, "path to the YAML config")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Apply migrations, start the HTTP API and the daily sweep",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Mark open records from earlier days incomplete, once",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := newApp(configPath)
				if err != nil {
					return err
				}
				defer a.Close()
				n, err := a.attendance.SweepIncomplete(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d record(s) incomplete\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(_ *cobra.Command, _ []string) error {
				a, err := newApp(configPath)
				if err != nil {
					return err
				}
				defer a.Close()
				return db.Migrate(a.conn, a.logger)
			},
		},
	)
	return root
}

func runServe(ctx context.Context, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := db.Migrate(a.conn, a.logger); err != nil {
		return err
	}

	var sched *sweep.Scheduler
	if !a.cfg.Sweep.Disabled {
		sched, err = sweep.New(a.cfg.Sweep.Schedule, a.attendance, a.logger)
		if err != nil {
			return err
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.logger.Warn("sweep did not stop in time", zap.Error(err))
		}
	}
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/guiChehade/planner-tatatu/internal/config"
	"github.com/guiChehade/planner-tatatu/internal/serverapp"
	"github.com/guiChehade/planner-tatatu/internal/sweep"
	"github.com/guiChehade/planner-tatatu/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the planner HTTP server and sweep scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	log := newLogger(cfg)

	store, err := serverapp.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	events := telemetry.NewMemoryRepository()
	sweeper := sweep.New(log, events)
	svc := sweep.NewService(sweep.Config{
		Schedule:   cfg.Recurrence.SweepSchedule,
		RunOnStart: cfg.Recurrence.SweepOnStart,
		Timezone:   cfg.Recurrence.Timezone,
	}, store, sweeper, log)

	handler, err := serverapp.NewHandler(serverapp.Options{
		Config:  cfg,
		Logger:  log,
		Store:   store,
		Events:  events,
		Sweeper: sweeper,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go func() {
		err := config.Watch(ctx, flagConfig, log, func(next *config.Config) {
			svc.Apply(sweep.Config{
				Schedule:   next.Recurrence.SweepSchedule,
				RunOnStart: false,
				Timezone:   next.Recurrence.Timezone,
			})
		})
		if err != nil {
			log.Warn().Err(err).Msg("config watch unavailable")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("backend", cfg.Storage.Backend).Msg("planner listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

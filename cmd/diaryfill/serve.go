package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javajack/diaryfill/internal/history"
	"github.com/javajack/diaryfill/internal/server"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload/download HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// openHistory returns a Redis-backed recorder when a URL is configured and an
// in-memory one otherwise.
func (a *app) openHistory() (history.Recorder, func(), error) {
	if a.cfg.History.RedisURL == "" {
		return history.NewMemoryRecorder(a.cfg.History.Limit), func() {}, nil
	}
	rec, err := history.NewRedisRecorder(a.cfg.History.RedisURL, a.cfg.History.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("open run history: %w", err)
	}
	return rec, func() { _ = rec.Close() }, nil
}

func (a *app) serve(ctx context.Context) error {
	rec, closeHistory, err := a.openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}

	api := server.NewHTTPServer(a.log, rec, a.cfg.MaxUploadBytes(), a.cfg.FillOptions()...)
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return runServer(ctx, srv, ln, a.log)
}

// runServer serves on ln until ctx is done, then shuts srv down gracefully.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server_stopped")
	return nil
}

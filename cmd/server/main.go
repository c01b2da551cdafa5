package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/config"
	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/events"
	"github.com/AaronC17/Projecto-Moviles-2/internal/httpapi"
	"github.com/AaronC17/Projecto-Moviles-2/internal/hub"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/AaronC17/Projecto-Moviles-2/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const releaseVersion = "1.0.0"

func main() {
	// .env has to be in the environment before the flags read it.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, releaseVersion, serve).ExecuteContext(ctx))
}

func serve(cmd *cobra.Command, cfg *config.Config) (err error) {
	ctx := cmd.Context()

	logger, err := config.NewLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	sinks := []lobby.SummarySink{st}
	if cfg.NATSURL != "" {
		pub, perr := events.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if perr != nil {
			return perr
		}
		defer func() { err = multierr.Append(err, pub.Close()) }()
		sinks = append(sinks, pub)
	}

	lb := lobby.NewLobby(ctx, lobby.Options{
		Rules:       engine.Rules{Threshold: cfg.Threshold},
		TurnTimeout: cfg.TurnTimeout,
		Logger:      logger,
		Sinks:       sinks,
	})
	h := hub.NewHub(ctx, lb, hub.Options{Logger: logger})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Lobby:    lb,
			Hub:      h,
			Recorder: st,
			Logger:   logger,
			JoinURL:  cfg.JoinURL(),
			Origins:  cfg.Origins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       10 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("join", cfg.JoinURL()),
			zap.Duration("turn_timeout", cfg.TurnTimeout),
			zap.Int("threshold", cfg.Threshold),
			zap.String("version", releaseVersion))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, keeping history in memory")
		return store.NewMemory(), nil
	}
	return store.Open(cfg.DatabaseURL, logger)
}

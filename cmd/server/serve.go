package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peovukea-bbd/laser-tag/internal/archive"
	"github.com/peovukea-bbd/laser-tag/internal/catalog"
	"github.com/peovukea-bbd/laser-tag/internal/config"
	"github.com/peovukea-bbd/laser-tag/internal/httpapi"
	"github.com/peovukea-bbd/laser-tag/internal/hub"
	"github.com/peovukea-bbd/laser-tag/internal/logging"
	"github.com/peovukea-bbd/laser-tag/internal/pubsub"
	"github.com/peovukea-bbd/laser-tag/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	serveCmd.Flags().String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.AddCommand(serveCmd)

	// A bare invocation serves.
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}

	bus := pubsub.NewWatermillBridge(log)
	// The archive drains on its own context so events emitted during
	// shutdown are still written.
	if err := archive.NewRecorder(store, log).Start(context.Background(), bus); err != nil {
		return multierr.Combine(err, bus.Close(), store.Close())
	}

	h := hub.NewHub(context.Background(), hub.Options{
		Logger:        log,
		Catalog:       catalog.Default(),
		Sink:          archive.NewPublisher(bus),
		Settings:      cfg.Settings(),
		MaxPlayers:    cfg.MaxPlayers,
		MaxSpectators: cfg.MaxSpectators,
		HistoryLimit:  cfg.EventHistory,
	})

	// Websocket handlers outlive http.Server.Shutdown; cancelling this ends them.
	connCtx, cancelConns := context.WithCancel(context.Background())
	defer cancelConns()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(h, ws.Options{
			Logger:         log,
			OutboxSize:     cfg.OutboxSize,
			WriteTimeout:   cfg.WriteTimeout,
			PingInterval:   cfg.PingInterval,
			OriginPatterns: cfg.AllowedOrigins,
		}, log),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return connCtx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(sctx)
		// Lobbies first, so members get lobby_closed before their sockets go.
		err = multierr.Append(err, h.Shutdown(sctx))
		cancelConns()
		err = multierr.Append(err, bus.Close())
		return multierr.Append(err, store.Close())
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

func openStore(cfg config.Config, log *zap.Logger) (archive.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("event archive in memory", zap.Int("limit", cfg.ArchiveMemoryLimit))
		return archive.NewMemoryStore(cfg.ArchiveMemoryLimit), nil
	}
	store, err := archive.OpenGorm(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("event archive in postgres")
	return store, nil
}

package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wmrmrx/MAC0352-EP2/internal/api"
	"github.com/wmrmrx/MAC0352-EP2/internal/factory"
	"github.com/wmrmrx/MAC0352-EP2/internal/server"
	redisstorage "github.com/wmrmrx/MAC0352-EP2/internal/storage/redis"
)

// restartDelay is the pause before the game server is started again after a failure
const restartDelay = time.Second

// NewServerCmd creates the game server command
func NewServerCmd() *cobra.Command {
	cfg := DefaultServerConfig()

	cmd := &cobra.Command{
		Use:   "pacman-server",
		Short: "Multiplayer Pacman game server",
		Long: `pacman-server keeps the accounts, the online users and the leaderboard of
the multiplayer Pacman game. Clients reach it over UDP and TCP on one port;
a read-only HTTP status API is served alongside.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, newLogger(os.Stdout, cfg.Verbose, true))
		},
		SilenceUsage: true,
	}

	cmd.Flags().Uint16VarP(&cfg.Port, "port", "p", cfg.Port, "Game port, shared by UDP and TCP")
	cmd.Flags().StringVar(&cfg.Transports, "transports", cfg.Transports, "Transports to listen on: udp, tcp or udp,tcp")
	cmd.Flags().IntVar(&cfg.APIPort, "api-port", cfg.APIPort, "Status API port, negative to disable")
	cmd.Flags().StringVar(&cfg.StorageType, "storage", cfg.StorageType, "Storage backend: memory, file, redis (env: STORAGE_TYPE)")
	cmd.Flags().StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the redis backend (env: REDIS_URL)")
	cmd.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for the file backend (env: PACMAN_DATA_DIR)")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Debug logging")

	return cmd
}

func runServer(ctx context.Context, cfg *ServerConfig, logger *slog.Logger) error {
	transports, err := parseTransports(cfg.Transports)
	if err != nil {
		return err
	}

	serverCfg := server.DefaultConfig()
	serverCfg.Listener.Port = cfg.Port
	serverCfg.Listener.Transports = transports

	fcfg := factory.Config{
		Logger:      logger,
		Server:      serverCfg,
		StorageType: cfg.StorageType,
		DataDir:     cfg.DataDir,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fcfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(fcfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.APIPort >= 0 {
		apiCfg := api.DefaultServerConfig()
		apiCfg.Port = cfg.APIPort
		status := api.NewServer(app.APIHandler(), apiCfg, logger)
		if err := status.Listen(); err != nil {
			return err
		}
		go func() {
			if err := status.Start(); err != nil {
				logger.Error("status API stopped", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			if err := status.Shutdown(context.Background()); err != nil {
				logger.Error("status API shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	for {
		err := app.Server.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("server loop exited")
		}
		logger.Error("game server failed, restarting", slog.String("error", err.Error()), slog.Duration("delay", restartDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(restartDelay):
		}
	}
}

// newLogger builds the process logger: JSON for the server, text for the
// interactive client so it stays readable next to the shell
func newLogger(w io.Writer, verbose, structured bool) *slog.Logger {
	level := slog.LevelInfo
	if !structured {
		level = slog.LevelWarn
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if structured {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs a command and exits non-zero on failure
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

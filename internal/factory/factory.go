package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/wmrmrx/MAC0352-EP2/internal/api"
	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/heartbeat"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/server"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/auth"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/leaderboard"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage"
	filestorage "github.com/wmrmrx/MAC0352-EP2/internal/storage/file"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage/memory"
	redisstorage "github.com/wmrmrx/MAC0352-EP2/internal/storage/redis"
	"github.com/wmrmrx/MAC0352-EP2/internal/transport"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeFile   = "file"
)

// App contains all wired server components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	AuthService        *auth.Service
	LeaderboardService *leaderboard.Service

	// Game server
	Table   *session.Table
	Sender  *transport.Sender
	Router  *server.Router
	Monitor *heartbeat.Monitor
	Server  *server.Server

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Server holds the game server sockets and heartbeat timing (optional)
	// If zero value, defaults to server.DefaultConfig()
	Server server.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "file")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DataDir is the directory of the file backend (required if StorageType is "file")
	DataDir string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeFile:
		if cfg.DataDir == "" {
			return nil, errors.New("DataDir required when StorageType is file")
		}
		fileStore, err := filestorage.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'file'")
	}

	authCfg := cfg.AuthConfig
	if authCfg.BcryptCost == 0 {
		authCfg = auth.DefaultConfig()
	}
	serverCfg := cfg.Server
	if len(serverCfg.Listener.Transports) == 0 {
		serverCfg = server.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), authCfg, serverCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, authCfg auth.Config, serverCfg server.Config, logger *slog.Logger) *App {
	authService := auth.New(store, clk, authCfg)
	lbService := leaderboard.New(store, model.LeaderboardSize)

	table := session.NewTable(clk)
	sender := transport.NewSender(0)
	router := server.NewRouter(table, authService, lbService, sender, logger)
	monitor := heartbeat.NewMonitor(table, sender, serverCfg.Heartbeat, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		AuthService:        authService,
		LeaderboardService: lbService,
		Table:              table,
		Sender:             sender,
		Router:             router,
		Monitor:            monitor,
		Server:             server.New(serverCfg, router, monitor, logger),
		Logger:             logger,
	}
}

// APIHandler returns the HTTP status API over this app's state
func (a *App) APIHandler() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:             a.Logger,
		Table:              a.Table,
		AuthService:        a.AuthService,
		LeaderboardService: a.LeaderboardService,
	})
}

// Close releases the storage backend if it holds resources
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

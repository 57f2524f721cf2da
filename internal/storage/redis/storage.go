package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

func (s *Storage) CreateCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, credentialKey(cred.Username), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrUserExists
	}
	return nil
}

func (s *Storage) GetCredential(ctx context.Context, username string) (*model.Credential, error) {
	data, err := s.client.Get(ctx, credentialKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *Storage) SaveCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	updated, err := s.client.SetXX(ctx, credentialKey(cred.Username), data, 0).Result()
	if err != nil {
		return err
	}
	if !updated {
		return model.ErrUserNotFound
	}
	return nil
}

func (s *Storage) CredentialExists(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, credentialKey(username)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Leaderboard operations

func (s *Storage) AddLeaderboardEntry(ctx context.Context, entry model.LeaderboardEntry, limit int) error {
	// Add and truncate atomically, keeping the top limit members
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, leaderboardKey(), redis.Z{
		Score:  float64(entry.Score),
		Member: leaderboardMember(entry.User),
	})
	pipe.ZRemRangeByRank(ctx, leaderboardKey(), 0, int64(-limit-1))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected leaderboard member %v", z.Member)
		}
		entries = append(entries, model.LeaderboardEntry{
			User:  memberUser(member),
			Score: uint64(z.Score),
		})
	}
	return entries, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/arb-ledger-service/internal/models"
)

// ErrNotFound is returned when no record exists for the requested key.
// Callers treat a missing ledger as "initialize fresh", not as a fault.
var ErrNotFound = errors.New("not found")

// RedisStore persists per-user ledgers and caches per-event arbitrage
// quotes in Redis. Ledgers are durable (no TTL); quotes expire.
type RedisStore struct {
	client   *redis.Client
	quoteTTL time.Duration
	logger   zerolog.Logger
}

// RedisStoreConfig holds Redis store configuration
type RedisStoreConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	QuoteTTL time.Duration // e.g., 15 * time.Minute
}

// NewRedisStore creates a new Redis-backed record store
func NewRedisStore(config RedisStoreConfig, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client:   client,
		quoteTTL: config.QuoteTTL,
		logger:   logger.With().Str("component", "redis_store").Logger(),
	}
}

func ledgerKey(username string) string {
	return "ledger:" + username
}

func quoteKey(eventID string) string {
	return "opportunity:" + eventID
}

// LoadLedger retrieves the full ledger for a user, or ErrNotFound.
func (s *RedisStore) LoadLedger(ctx context.Context, username string) (*models.Ledger, error) {
	data, err := s.client.Get(ctx, ledgerKey(username)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get ledger from Redis: %w", err)
	}

	var ledger models.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}

	return &ledger, nil
}

// SaveLedger writes the full ledger for a user. The write is whole-record:
// there is no partial or incremental persistence.
func (s *RedisStore) SaveLedger(ctx context.Context, username string, ledger *models.Ledger) error {
	data, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := s.client.Set(ctx, ledgerKey(username), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set ledger in Redis: %w", err)
	}

	s.logger.Debug().
		Str("username", username).
		Int("records", len(ledger.BetHistory)).
		Str("balance", ledger.Balance.String()).
		Msg("saved ledger")

	return nil
}

// SaveQuote caches the latest arbitrage quote for an event with the
// configured TTL.
func (s *RedisStore) SaveQuote(ctx context.Context, quote *models.EventQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := s.client.Set(ctx, quoteKey(quote.EventID), data, s.quoteTTL).Err(); err != nil {
		return fmt.Errorf("failed to set quote in Redis: %w", err)
	}

	s.logger.Debug().
		Str("event_id", quote.EventID).
		Dur("ttl", s.quoteTTL).
		Msg("cached event quote")

	return nil
}

// LoadQuote retrieves the cached quote for an event, or ErrNotFound.
func (s *RedisStore) LoadQuote(ctx context.Context, eventID string) (*models.EventQuote, error) {
	data, err := s.client.Get(ctx, quoteKey(eventID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get quote from Redis: %w", err)
	}

	var quote models.EventQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	return &quote, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

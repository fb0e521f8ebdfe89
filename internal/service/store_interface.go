package service

import (
	"context"

	"github.com/cypherlabdev/arb-ledger-service/internal/models"
)

// Store is an interface that abstracts the per-user record store
// This allows for easier testing and mocking
type Store interface {
	LoadLedger(ctx context.Context, username string) (*models.Ledger, error)
	SaveLedger(ctx context.Context, username string, ledger *models.Ledger) error
	SaveQuote(ctx context.Context, quote *models.EventQuote) error
	LoadQuote(ctx context.Context, eventID string) (*models.EventQuote, error)
	Ping(ctx context.Context) error
	Close() error
}

package service

import (
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-ledger-service/internal/models"
)

// Solver is an interface that abstracts arbitrage stake allocation
// This allows for easier testing and mocking
type Solver interface {
	Solve(budget decimal.Decimal, odds models.OddsSet) (*models.ArbitrageQuote, error)
}

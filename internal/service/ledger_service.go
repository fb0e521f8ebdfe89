package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-ledger-service/internal/metrics"
	"github.com/cypherlabdev/arb-ledger-service/internal/models"
	"github.com/cypherlabdev/arb-ledger-service/internal/store"
	"github.com/cypherlabdev/arb-ledger-service/pkg/solver"
)

var (
	// ErrNoOpportunity is returned when RecordBet is called with a quote
	// that carries no arbitrage opportunity.
	ErrNoOpportunity = errors.New("quote has no arbitrage opportunity")

	// ErrRecordNotFound is returned when an edit targets an unknown record.
	ErrRecordNotFound = errors.New("bet record not found")

	// ErrInvalidRisk is returned when the risk percentage is outside (0, 100].
	ErrInvalidRisk = errors.New("risk percent must be in (0, 100]")
)

// LedgerService owns the per-user financial state derived from solver
// invocations. Each operation loads the ledger wholesale, mutates it, and
// saves it wholesale; nothing is held in memory between calls, so a failed
// save leaves no observable mutation behind.
type LedgerService struct {
	solver          Solver
	store           Store
	startingBalance decimal.Decimal
	logger          zerolog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	solver Solver,
	store Store,
	startingBalance decimal.Decimal,
	logger zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		solver:          solver,
		store:           store,
		startingBalance: startingBalance,
		logger:          logger.With().Str("component", "ledger_service").Logger(),
	}
}

// Login loads the user's persisted ledger, initializing and persisting a
// fresh one with the default starting balance on first login.
func (s *LedgerService) Login(ctx context.Context, username string) (*models.Ledger, error) {
	ledger, err := s.store.LoadLedger(ctx, username)
	if err == nil {
		s.logger.Debug().
			Str("username", username).
			Int("records", len(ledger.BetHistory)).
			Msg("loaded existing ledger")
		return ledger, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		metrics.StorageErrors.Inc()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	ledger = &models.Ledger{
		BetHistory: []models.BetRecord{},
		Balance:    s.startingBalance,
	}
	if err := s.store.SaveLedger(ctx, username, ledger); err != nil {
		metrics.StorageErrors.Inc()
		return nil, fmt.Errorf("failed to persist fresh ledger: %w", err)
	}

	s.logger.Info().
		Str("username", username).
		Str("balance", ledger.Balance.String()).
		Msg("initialized fresh ledger")

	return ledger, nil
}

// GetLedger loads the user's ledger without initializing a missing one.
func (s *LedgerService) GetLedger(ctx context.Context, username string) (*models.Ledger, error) {
	ledger, err := s.store.LoadLedger(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.StorageErrors.Inc()
		}
		return nil, err
	}
	return ledger, nil
}

// SetStartingBalance replaces the balance and clears the bet history.
// Changing the starting balance forgets all history; that reset is the
// documented behavior, not an accident.
func (s *LedgerService) SetStartingBalance(ctx context.Context, username string, balance decimal.Decimal) (*models.Ledger, error) {
	ledger := &models.Ledger{
		BetHistory: []models.BetRecord{},
		Balance:    balance,
	}
	if err := s.store.SaveLedger(ctx, username, ledger); err != nil {
		metrics.StorageErrors.Inc()
		return nil, fmt.Errorf("failed to persist ledger reset: %w", err)
	}

	s.logger.Info().
		Str("username", username).
		Str("balance", balance.String()).
		Msg("reset ledger with new starting balance")

	return ledger, nil
}

// Budget derives the stake budget from a bankroll and a risk percentage.
func Budget(bankroll, riskPercent decimal.Decimal) decimal.Decimal {
	return bankroll.Mul(riskPercent).Div(decimal.NewFromInt(100))
}

// QuickCalculate runs the solver without touching any state: no balance
// mutation, no ledger append, no persistence. Callers use it to preview an
// allocation before committing it.
func (s *LedgerService) QuickCalculate(bankroll, riskPercent decimal.Decimal, odds models.OddsSet) (*models.ArbitrageQuote, error) {
	if riskPercent.LessThanOrEqual(decimal.Zero) || riskPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRisk, riskPercent.String())
	}
	return s.solver.Solve(Budget(bankroll, riskPercent), odds)
}

// RecordBet applies a solved quote to the user's ledger: the balance grows
// by the guaranteed profit and a new record is appended carrying the new
// balance as balance-after. The whole ledger is persisted before the record
// is returned; a save failure surfaces as an error and the caller must not
// report the bet as recorded.
func (s *LedgerService) RecordBet(ctx context.Context, username string, quote *models.ArbitrageQuote) (*models.BetRecord, error) {
	if !quote.HasOpportunity {
		return nil, ErrNoOpportunity
	}

	ledger, err := s.store.LoadLedger(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.StorageErrors.Inc()
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	newBalance := ledger.Balance.Add(quote.GuaranteedProfit)

	record := models.BetRecord{
		ID:           uuid.New(),
		PlacedAt:     time.Now().UTC(),
		OddsA:        quote.Odds.A,
		OddsB:        quote.Odds.B,
		StakeA:       quote.Stakes[0],
		StakeB:       quote.Stakes[1],
		Profit:       quote.GuaranteedProfit,
		ROI:          quote.ROI,
		BalanceAfter: newBalance,
	}
	if quote.Odds.HasThird() {
		oddsC := quote.Odds.C
		stakeC := quote.Stakes[2]
		record.OddsC = &oddsC
		record.StakeC = &stakeC
	}

	ledger.Balance = newBalance
	ledger.BetHistory = append(ledger.BetHistory, record)

	if err := s.store.SaveLedger(ctx, username, ledger); err != nil {
		metrics.StorageErrors.Inc()
		return nil, fmt.Errorf("failed to persist bet record: %w", err)
	}

	metrics.BetsRecorded.Inc()
	s.logger.Info().
		Str("username", username).
		Str("bet_id", record.ID.String()).
		Str("profit", record.Profit.String()).
		Str("balance_after", record.BalanceAfter.String()).
		Msg("recorded bet")

	return &record, nil
}

// TrackedCalculate runs a tracked calculation against the user's current
// balance: the budget is derived from the stored balance and the risk
// percentage, the solver runs, and when an opportunity exists the result is
// recorded in the ledger. A quote without an opportunity is returned with a
// nil record; it is an expected outcome, not an error.
func (s *LedgerService) TrackedCalculate(ctx context.Context, username string, riskPercent decimal.Decimal, odds models.OddsSet) (*models.ArbitrageQuote, *models.BetRecord, error) {
	if riskPercent.LessThanOrEqual(decimal.Zero) || riskPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, nil, fmt.Errorf("%w: got %s", ErrInvalidRisk, riskPercent.String())
	}

	ledger, err := s.store.LoadLedger(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.StorageErrors.Inc()
		}
		return nil, nil, err
	}

	quote, err := s.solver.Solve(Budget(ledger.Balance, riskPercent), odds)
	if err != nil {
		return nil, nil, err
	}
	if !quote.HasOpportunity {
		return quote, nil, nil
	}

	record, err := s.RecordBet(ctx, username, quote)
	if err != nil {
		return nil, nil, err
	}
	return quote, record, nil
}

// EditBet applies a partial correction to an existing record and reconciles
// the balance incrementally: the old profit delta is undone and the new one
// applied against the current balance. The ledger is not replayed, so
// balance-after values on records later than the edited one keep their old
// (now stale) values.
func (s *LedgerService) EditBet(ctx context.Context, username string, id uuid.UUID, edit models.BetEdit) (*models.BetRecord, error) {
	ledger, err := s.store.LoadLedger(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.StorageErrors.Inc()
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	record := ledger.Find(id)
	if record == nil {
		return nil, ErrRecordNotFound
	}

	oldProfit := record.Profit
	applyEdit(record, edit)

	record.ROI = solver.ROI(record.Profit, record.TotalStakes())
	ledger.Balance = ledger.Balance.Sub(oldProfit).Add(record.Profit)
	record.BalanceAfter = ledger.Balance

	if err := s.store.SaveLedger(ctx, username, ledger); err != nil {
		metrics.StorageErrors.Inc()
		return nil, fmt.Errorf("failed to persist edited ledger: %w", err)
	}

	metrics.BetEdits.Inc()
	s.logger.Info().
		Str("username", username).
		Str("bet_id", id.String()).
		Str("old_profit", oldProfit.String()).
		Str("new_profit", record.Profit.String()).
		Str("balance", ledger.Balance.String()).
		Msg("edited bet record")

	return record, nil
}

func applyEdit(record *models.BetRecord, edit models.BetEdit) {
	if edit.PlacedAt != nil {
		record.PlacedAt = *edit.PlacedAt
	}
	if edit.OddsA != nil {
		record.OddsA = *edit.OddsA
	}
	if edit.OddsB != nil {
		record.OddsB = *edit.OddsB
	}
	if edit.ClearOddsC {
		record.OddsC = nil
	} else if edit.OddsC != nil {
		record.OddsC = edit.OddsC
	}
	if edit.StakeA != nil {
		record.StakeA = *edit.StakeA
	}
	if edit.StakeB != nil {
		record.StakeB = *edit.StakeB
	}
	if edit.ClearStakeC {
		record.StakeC = nil
	} else if edit.StakeC != nil {
		record.StakeC = edit.StakeC
	}
	if edit.Profit != nil {
		record.Profit = *edit.Profit
	}
}

package solver

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-ledger-service/internal/models"
)

var (
	// ErrInvalidBudget is returned when the budget is not strictly positive.
	ErrInvalidBudget = errors.New("budget must be positive")

	// ErrInvalidOdds is returned when a present odds value is not > 1.0.
	ErrInvalidOdds = errors.New("odds must be greater than 1.0")

	// ErrTooFewOutcomes is returned when fewer than two distinct outcomes
	// are available to split a stake across.
	ErrTooFewOutcomes = errors.New("at least two outcomes required")

	// ErrTooManyOutcomes is returned when an odds feed carries more than
	// three distinct outcomes for one event.
	ErrTooManyOutcomes = errors.New("more than three outcomes not supported")
)

// Solver computes arbitrage stake allocations from decimal odds
type Solver struct {
	logger zerolog.Logger
}

// NewSolver creates a new arbitrage solver
func NewSolver(logger zerolog.Logger) *Solver {
	return &Solver{
		logger: logger.With().Str("component", "solver").Logger(),
	}
}

// Solve computes the stake split for a budget across 2 or 3 outcomes.
//
// When the implied probabilities sum to 1 or more there is no riskless
// split; that is a normal result, returned as a quote with HasOpportunity
// false, never as an error. Errors are reserved for invalid input: a
// non-positive budget, or a present odds value at or below 1.0.
//
// Solve is pure: identical inputs produce identical quotes.
func (s *Solver) Solve(budget decimal.Decimal, odds models.OddsSet) (*models.ArbitrageQuote, error) {
	if budget.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidBudget, budget.String())
	}

	one := decimal.NewFromInt(1)
	outcomes := odds.Outcomes()
	if len(outcomes) < 2 {
		return nil, ErrTooFewOutcomes
	}
	for _, o := range outcomes {
		if o.LessThanOrEqual(one) {
			return nil, fmt.Errorf("%w: got %s", ErrInvalidOdds, o.String())
		}
	}

	// Sum of implied probabilities: 1/odds per outcome. Below 1 means the
	// bookmakers' combined margin is negative and a riskless split exists.
	impliedSum := decimal.Zero
	for _, o := range outcomes {
		impliedSum = impliedSum.Add(one.Div(o))
	}

	quote := &models.ArbitrageQuote{
		Budget:     budget,
		Odds:       odds,
		ImpliedSum: impliedSum,
	}

	if impliedSum.GreaterThanOrEqual(one) {
		quote.Reason = "guaranteed profit not achievable with these odds"
		s.logger.Debug().
			Str("implied_sum", impliedSum.String()).
			Msg("no arbitrage opportunity")
		return quote, nil
	}

	// stake_i = (budget / odds_i) / impliedSum is the unique allocation that
	// equalizes profit across outcomes while the stakes sum to the budget.
	quote.HasOpportunity = true
	quote.Stakes = make([]decimal.Decimal, len(outcomes))
	quote.Payouts = make([]decimal.Decimal, len(outcomes))
	quote.Profits = make([]decimal.Decimal, len(outcomes))

	for i, o := range outcomes {
		stake := budget.Div(o).Div(impliedSum)
		payout := stake.Mul(o)
		profit := payout.Sub(budget)

		quote.Stakes[i] = stake
		quote.Payouts[i] = payout
		quote.Profits[i] = profit

		if i == 0 || profit.LessThan(quote.GuaranteedProfit) {
			quote.GuaranteedProfit = profit
		}
		if payout.GreaterThan(quote.MaxPayout) {
			quote.MaxPayout = payout
		}
	}

	quote.ROI = ROI(quote.GuaranteedProfit, budget)

	s.logger.Debug().
		Str("budget", budget.String()).
		Str("implied_sum", impliedSum.String()).
		Str("guaranteed_profit", quote.GuaranteedProfit.String()).
		Str("roi", quote.ROI.String()).
		Msg("solved arbitrage allocation")

	return quote, nil
}

// ROI returns profit over base as a percentage, or zero when the base is
// not positive (the division-by-zero guard the edit path relies on).
func ROI(profit, base decimal.Decimal) decimal.Decimal {
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return profit.Div(base).Mul(decimal.NewFromInt(100))
}

// BestOdds reduces a set of bookmaker offers to the highest price per
// distinct outcome, in first-seen outcome order, and returns them as a
// sentinel-form OddsSet alongside the winning offers. Events with fewer
// than two or more than three distinct outcomes are rejected.
func BestOdds(offers []models.BookmakerOffer) (models.OddsSet, []models.BookmakerOffer, error) {
	var order []string
	best := make(map[string]models.BookmakerOffer)

	for _, offer := range offers {
		current, seen := best[offer.Outcome]
		if !seen {
			order = append(order, offer.Outcome)
			best[offer.Outcome] = offer
			continue
		}
		if offer.Price.GreaterThan(current.Price) {
			best[offer.Outcome] = offer
		}
	}

	if len(order) < 2 {
		return models.OddsSet{}, nil, ErrTooFewOutcomes
	}
	if len(order) > 3 {
		return models.OddsSet{}, nil, ErrTooManyOutcomes
	}

	chosen := make([]models.BookmakerOffer, len(order))
	for i, outcome := range order {
		chosen[i] = best[outcome]
	}

	set := models.OddsSet{A: chosen[0].Price, B: chosen[1].Price}
	if len(chosen) == 3 {
		set.C = chosen[2].Price
	}
	return set, chosen, nil
}

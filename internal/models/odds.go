package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OddsSet holds the decimal odds for 2 or 3 mutually exclusive outcomes.
// The third outcome uses the caller-facing sentinel convention: C counts as
// present only when its value is greater than 1.0. Callers pass 0 (or any
// value <= 1.0) for "no third outcome", never an absent field.
type OddsSet struct {
	A decimal.Decimal `json:"odds_a"`
	B decimal.Decimal `json:"odds_b"`
	C decimal.Decimal `json:"odds_c"`
}

// HasThird reports whether the third outcome is present under the sentinel
// convention (C > 1.0).
func (o OddsSet) HasThird() bool {
	return o.C.GreaterThan(decimal.NewFromInt(1))
}

// Outcomes normalizes the sentinel form into the explicit list of present
// odds, in A, B, C order.
func (o OddsSet) Outcomes() []decimal.Decimal {
	outcomes := []decimal.Decimal{o.A, o.B}
	if o.HasThird() {
		outcomes = append(outcomes, o.C)
	}
	return outcomes
}

// ArbitrageQuote is the result of solving a budget against an OddsSet.
// When HasOpportunity is false only ImpliedSum and Reason are meaningful;
// no stakes or profits are produced.
type ArbitrageQuote struct {
	Budget           decimal.Decimal   `json:"budget"`
	Odds             OddsSet           `json:"odds"`
	ImpliedSum       decimal.Decimal   `json:"implied_probability_sum"`
	HasOpportunity   bool              `json:"has_opportunity"`
	Reason           string            `json:"reason,omitempty"`
	Stakes           []decimal.Decimal `json:"stakes,omitempty"`
	Payouts          []decimal.Decimal `json:"payouts,omitempty"`
	Profits          []decimal.Decimal `json:"profits,omitempty"`
	GuaranteedProfit decimal.Decimal   `json:"guaranteed_profit"`
	MaxPayout        decimal.Decimal   `json:"max_payout"`
	ROI              decimal.Decimal   `json:"roi"`
}

// BookmakerOffer is a single price quoted by a bookmaker for one outcome of
// an event, as published by the upstream odds fetcher.
type BookmakerOffer struct {
	Bookmaker string          `json:"bookmaker"`
	Outcome   string          `json:"outcome"`
	Price     decimal.Decimal `json:"price"`
}

// OddsFeedMessage is the Kafka message carrying all bookmaker offers for one
// event.
type OddsFeedMessage struct {
	EventID   string           `json:"event_id"`
	EventName string           `json:"event_name"`
	Offers    []BookmakerOffer `json:"offers"`
	Timestamp time.Time        `json:"timestamp"`
}

// EventQuote is the latest arbitrage scan result for an event, cached for
// retrieval through the API.
type EventQuote struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	Quote      ArbitrageQuote `json:"quote"`
	DetectedAt time.Time      `json:"detected_at"`
}

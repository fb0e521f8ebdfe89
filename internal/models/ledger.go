package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetRecord is one entry in a user's ledger, created when a tracked
// calculation runs. Every field may be corrected after the fact through an
// edit. The third-outcome odds and stake are pointers so that an absent
// outcome persists as an explicit JSON null rather than a numeric 0.
type BetRecord struct {
	ID           uuid.UUID        `json:"id"`
	PlacedAt     time.Time        `json:"placed_at"`
	OddsA        decimal.Decimal  `json:"odds_a"`
	OddsB        decimal.Decimal  `json:"odds_b"`
	OddsC        *decimal.Decimal `json:"odds_c"`
	StakeA       decimal.Decimal  `json:"stake_a"`
	StakeB       decimal.Decimal  `json:"stake_b"`
	StakeC       *decimal.Decimal `json:"stake_c"`
	Profit       decimal.Decimal  `json:"profit"`
	ROI          decimal.Decimal  `json:"roi"`
	BalanceAfter decimal.Decimal  `json:"balance_after"`
}

// TotalStakes returns the sum of all staked amounts in the record.
func (r *BetRecord) TotalStakes() decimal.Decimal {
	total := r.StakeA.Add(r.StakeB)
	if r.StakeC != nil {
		total = total.Add(*r.StakeC)
	}
	return total
}

// Odds reconstructs the sentinel-form OddsSet from the stored fields.
func (r *BetRecord) Odds() OddsSet {
	set := OddsSet{A: r.OddsA, B: r.OddsB}
	if r.OddsC != nil {
		set.C = *r.OddsC
	}
	return set
}

// Ledger is a user's ordered bet history plus the running balance. It is
// loaded wholesale on login and saved wholesale after every mutation.
type Ledger struct {
	BetHistory []BetRecord     `json:"bet_history"`
	Balance    decimal.Decimal `json:"balance"`
}

// Find returns the record with the given id, or nil.
func (l *Ledger) Find(id uuid.UUID) *BetRecord {
	for i := range l.BetHistory {
		if l.BetHistory[i].ID == id {
			return &l.BetHistory[i]
		}
	}
	return nil
}

// BetEdit carries replacement values for an existing record. Nil fields are
// left untouched. ClearOddsC/ClearStakeC remove the third outcome entirely,
// since a nil pointer here means "no change", not "absent".
type BetEdit struct {
	PlacedAt    *time.Time
	OddsA       *decimal.Decimal
	OddsB       *decimal.Decimal
	OddsC       *decimal.Decimal
	ClearOddsC  bool
	StakeA      *decimal.Decimal
	StakeB      *decimal.Decimal
	StakeC      *decimal.Decimal
	ClearStakeC bool
	Profit      *decimal.Decimal
}

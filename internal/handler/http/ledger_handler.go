package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-ledger-service/internal/models"
	"github.com/cypherlabdev/arb-ledger-service/internal/service"
	"github.com/cypherlabdev/arb-ledger-service/internal/store"
	"github.com/cypherlabdev/arb-ledger-service/pkg/solver"
)

// LedgerHandler handles HTTP requests for calculations and ledgers
type LedgerHandler struct {
	service *service.LedgerService
	store   service.Store
	logger  zerolog.Logger
}

// NewLedgerHandler creates a new ledger HTTP handler
func NewLedgerHandler(svc *service.LedgerService, st service.Store, logger zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		store:   st,
		logger:  logger.With().Str("component", "ledger_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *LedgerHandler) RegisterRoutes(mux *http.ServeMux) {
	// POST /api/v1/calculate - Untracked arbitrage preview
	mux.HandleFunc("/api/v1/calculate", h.handleCalculate)

	// /api/v1/users/:username/... - Ledger operations
	mux.HandleFunc("/api/v1/users/", h.handleUsers)

	// GET /api/v1/opportunities/:event_id - Latest cached feed quote
	mux.HandleFunc("/api/v1/opportunities/", h.handleGetOpportunity)
}

// CalculateRequest is the request body for calculate and bet endpoints.
// OddsC follows the sentinel convention: a value <= 1.0 (the zero value
// included) means there is no third outcome.
type CalculateRequest struct {
	Bankroll    decimal.Decimal `json:"bankroll"`
	RiskPercent decimal.Decimal `json:"risk_percent"`
	OddsA       decimal.Decimal `json:"odds_a"`
	OddsB       decimal.Decimal `json:"odds_b"`
	OddsC       decimal.Decimal `json:"odds_c"`
}

func (r *CalculateRequest) oddsSet() models.OddsSet {
	return models.OddsSet{A: r.OddsA, B: r.OddsB, C: r.OddsC}
}

// RecordBetResponse reports a tracked calculation. Record is null when the
// quote carried no opportunity.
type RecordBetResponse struct {
	Recorded bool                   `json:"recorded"`
	Quote    *models.ArbitrageQuote `json:"quote"`
	Record   *models.BetRecord      `json:"record,omitempty"`
}

// BalanceRequest is the request body for the starting-balance reset.
type BalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

// EditBetRequest is the request body for a partial bet edit. Absent fields
// are left untouched; clear_odds_c/clear_stake_c remove the third outcome.
type EditBetRequest struct {
	PlacedAt    *time.Time       `json:"placed_at"`
	OddsA       *decimal.Decimal `json:"odds_a"`
	OddsB       *decimal.Decimal `json:"odds_b"`
	OddsC       *decimal.Decimal `json:"odds_c"`
	ClearOddsC  bool             `json:"clear_odds_c"`
	StakeA      *decimal.Decimal `json:"stake_a"`
	StakeB      *decimal.Decimal `json:"stake_b"`
	StakeC      *decimal.Decimal `json:"stake_c"`
	ClearStakeC bool             `json:"clear_stake_c"`
	Profit      *decimal.Decimal `json:"profit"`
}

func (r *EditBetRequest) toEdit() models.BetEdit {
	return models.BetEdit{
		PlacedAt:    r.PlacedAt,
		OddsA:       r.OddsA,
		OddsB:       r.OddsB,
		OddsC:       r.OddsC,
		ClearOddsC:  r.ClearOddsC,
		StakeA:      r.StakeA,
		StakeB:      r.StakeB,
		StakeC:      r.StakeC,
		ClearStakeC: r.ClearStakeC,
		Profit:      r.Profit,
	}
}

// handleCalculate handles POST /api/v1/calculate
func (h *LedgerHandler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quote, err := h.service.QuickCalculate(req.Bankroll, req.RiskPercent, req.oddsSet())
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, quote)
}

// handleUsers dispatches /api/v1/users/:username/{login|ledger|balance|bets[/:id]}
func (h *LedgerHandler) handleUsers(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/users/")
	parts := strings.Split(path, "/")

	if len(parts) < 2 || parts[0] == "" {
		h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/users/:username/...")
		return
	}

	username := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "login" && r.Method == http.MethodPost:
		h.handleLogin(w, r, username)
	case len(parts) == 2 && parts[1] == "ledger" && r.Method == http.MethodGet:
		h.handleGetLedger(w, r, username)
	case len(parts) == 2 && parts[1] == "balance" && r.Method == http.MethodPut:
		h.handleSetBalance(w, r, username)
	case len(parts) == 2 && parts[1] == "bets" && r.Method == http.MethodPost:
		h.handleRecordBet(w, r, username)
	case len(parts) == 3 && parts[1] == "bets" && r.Method == http.MethodPatch:
		h.handleEditBet(w, r, username, parts[2])
	default:
		h.errorResponse(w, http.StatusNotFound, "unknown route")
	}
}

func (h *LedgerHandler) handleLogin(w http.ResponseWriter, r *http.Request, username string) {
	ledger, err := h.service.Login(r.Context(), username)
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Msg("login failed")
		h.errorResponse(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}

	h.jsonResponse(w, http.StatusOK, ledger)
}

func (h *LedgerHandler) handleGetLedger(w http.ResponseWriter, r *http.Request, username string) {
	ledger, err := h.service.GetLedger(r.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		h.errorResponse(w, http.StatusNotFound, "no ledger for user")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Msg("failed to load ledger")
		h.errorResponse(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}

	h.jsonResponse(w, http.StatusOK, ledger)
}

func (h *LedgerHandler) handleSetBalance(w http.ResponseWriter, r *http.Request, username string) {
	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ledger, err := h.service.SetStartingBalance(r.Context(), username, req.Balance)
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Msg("balance reset failed")
		h.errorResponse(w, http.StatusInternalServerError, "failed to reset ledger")
		return
	}

	h.jsonResponse(w, http.StatusOK, ledger)
}

func (h *LedgerHandler) handleRecordBet(w http.ResponseWriter, r *http.Request, username string) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quote, record, err := h.service.TrackedCalculate(r.Context(), username, req.RiskPercent, req.oddsSet())
	if errors.Is(err, store.ErrNotFound) {
		h.errorResponse(w, http.StatusNotFound, "no ledger for user")
		return
	}
	if errors.Is(err, service.ErrInvalidRisk) ||
		errors.Is(err, solver.ErrInvalidBudget) ||
		errors.Is(err, solver.ErrInvalidOdds) ||
		errors.Is(err, solver.ErrTooFewOutcomes) {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Msg("tracked calculation failed")
		h.errorResponse(w, http.StatusInternalServerError, "failed to record bet")
		return
	}

	status := http.StatusOK
	if record != nil {
		status = http.StatusCreated
	}
	h.jsonResponse(w, status, RecordBetResponse{
		Recorded: record != nil,
		Quote:    quote,
		Record:   record,
	})
}

func (h *LedgerHandler) handleEditBet(w http.ResponseWriter, r *http.Request, username, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid bet id")
		return
	}

	var req EditBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.service.EditBet(r.Context(), username, id, req.toEdit())
	if errors.Is(err, service.ErrRecordNotFound) || errors.Is(err, store.ErrNotFound) {
		h.errorResponse(w, http.StatusNotFound, "bet record not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Str("bet_id", rawID).Msg("edit failed")
		h.errorResponse(w, http.StatusInternalServerError, "failed to edit bet")
		return
	}

	h.jsonResponse(w, http.StatusOK, record)
}

// handleGetOpportunity handles GET /api/v1/opportunities/:event_id
func (h *LedgerHandler) handleGetOpportunity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/api/v1/opportunities/")
	if eventID == "" || strings.Contains(eventID, "/") {
		h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/opportunities/:event_id")
		return
	}

	quote, err := h.store.LoadQuote(r.Context(), eventID)
	if errors.Is(err, store.ErrNotFound) {
		h.errorResponse(w, http.StatusNotFound, "no cached opportunity for event")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to load quote")
		h.errorResponse(w, http.StatusInternalServerError, "failed to load opportunity")
		return
	}

	h.jsonResponse(w, http.StatusOK, quote)
}

// jsonResponse writes a JSON response
func (h *LedgerHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *LedgerHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

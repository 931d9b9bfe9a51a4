// Package api provides the HTTP handlers, WebSocket hub and event recorder
// that expose the farm: staking, unstaking, claiming, pool administration,
// token balances and the persisted event history.
//
// Amounts cross the wire as decimal strings in token units and are converted
// to integer base units with the units package. The farm itself serialises
// every mutation, so handlers take no locks of their own.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/atmx/yield-farm/internal/access"
	"github.com/atmx/yield-farm/internal/farm"
	"github.com/atmx/yield-farm/internal/metrics"
	"github.com/atmx/yield-farm/internal/model"
	"github.com/atmx/yield-farm/internal/store"
	"github.com/atmx/yield-farm/internal/token"
	"github.com/atmx/yield-farm/internal/units"
)

// defaultEventLimit caps GET /api/v1/events when no limit is given.
const defaultEventLimit = 100

// Service handles farm operations over HTTP.
type Service struct {
	farm        *farm.Farm
	gate        *access.AdminGate
	store       store.Store
	stakeToken  *token.Ledger
	rewardToken *token.Ledger
}

// NewService creates a new farm service.
func NewService(f *farm.Farm, gate *access.AdminGate, st store.Store, stakeToken, rewardToken *token.Ledger) *Service {
	return &Service{
		farm:        f,
		gate:        gate,
		store:       st,
		stakeToken:  stakeToken,
		rewardToken: rewardToken,
	}
}

// Routes registers the REST endpoints on r. Every mutating endpoint sits
// behind authn, which must put the authenticated caller on the context.
func (s *Service) Routes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Get("/admin", s.GetAdmin)
	r.Get("/pool", s.GetPool)
	r.Get("/users/{address}", s.GetPosition)
	r.Get("/users/{address}/events", s.GetUserEvents)
	r.Get("/users/{address}/activity", s.GetUserActivity)
	r.Get("/events", s.ListEvents)
	r.Get("/tokens/{symbol}/balances/{address}", s.GetBalance)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/admin/transfer", s.TransferAdmin)
		r.Post("/pool/fund", s.FundPool)
		r.Post("/pool/rate", s.SetRate)

		r.Post("/stake", s.Stake)
		r.Post("/unstake", s.Unstake)
		r.Post("/claim", s.Claim)

		r.Post("/tokens/{symbol}/approve", s.Approve)
		r.Post("/tokens/{symbol}/mint", s.Mint)
	})
}

// --- Request types ---
// Caller is optional. The acting address is always the authenticated one and
// a body naming someone else is rejected.

// AmountRequest is the JSON body for fund, stake and unstake.
type AmountRequest struct {
	Caller model.Address   `json:"caller,omitempty"`
	Amount decimal.Decimal `json:"amount"` // token units
}

// RateRequest is the JSON body for POST /api/v1/pool/rate.
type RateRequest struct {
	Caller model.Address   `json:"caller,omitempty"`
	Rate   decimal.Decimal `json:"rate"` // reward tokens per second
}

// ClaimRequest is the JSON body for POST /api/v1/claim.
type ClaimRequest struct {
	Caller model.Address `json:"caller,omitempty"`
}

// --- Pool ---

// GetPool handles GET /api/v1/pool
func (s *Service) GetPool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.poolResponse(s.farm.Snapshot()))
}

// FundPool handles POST /api/v1/pool/fund
// Pulls reward tokens from the administrator into the pool.
func (s *Service) FundPool(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := s.baseUnits(w, "fund", req.Amount, s.rewardToken.Decimals())
	if !ok {
		return
	}
	if err := s.run("fund", func() error { return s.farm.DepositRewardToken(caller, amount) }); err != nil {
		writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.poolResponse(s.farm.Snapshot()))
}

// SetRate handles POST /api/v1/pool/rate
func (s *Service) SetRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	rate, ok := s.baseUnits(w, "rate", req.Rate, s.rewardToken.Decimals())
	if !ok {
		return
	}
	if err := s.run("rate", func() error { return s.farm.SetAccRewardPerSecond(caller, rate) }); err != nil {
		writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.poolResponse(s.farm.Snapshot()))
}

// --- User operations ---

// Stake handles POST /api/v1/stake
// The caller must have approved the farm for at least amount beforehand.
func (s *Service) Stake(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := s.baseUnits(w, "stake", req.Amount, s.stakeToken.Decimals())
	if !ok {
		return
	}
	if err := s.run("stake", func() error { return s.farm.Stake(caller, amount) }); err != nil {
		writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.positionResponse(s.farm.Position(caller)))
}

// Unstake handles POST /api/v1/unstake
// Returns principal and pays all claimable reward.
func (s *Service) Unstake(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	amount, ok := s.baseUnits(w, "unstake", req.Amount, s.stakeToken.Decimals())
	if !ok {
		return
	}
	if err := s.run("unstake", func() error { return s.farm.UnStake(caller, amount) }); err != nil {
		writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.positionResponse(s.farm.Position(caller)))
}

// Claim handles POST /api/v1/claim
func (s *Service) Claim(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	if err := s.run("claim", func() error { return s.farm.Claim(caller) }); err != nil {
		writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.positionResponse(s.farm.Position(caller)))
}

// --- User queries ---

// GetPosition handles GET /api/v1/users/{address}
func (s *Service) GetPosition(w http.ResponseWriter, r *http.Request) {
	user := model.Address(chi.URLParam(r, "address"))
	writeJSON(w, http.StatusOK, s.positionResponse(s.farm.Position(user)))
}

// GetUserEvents handles GET /api/v1/users/{address}/events
func (s *Service) GetUserEvents(w http.ResponseWriter, r *http.Request) {
	user := model.Address(chi.URLParam(r, "address"))

	events, err := s.store.GetEventsByUser(r.Context(), user)
	if err != nil {
		writeError(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.eventResponses(events))
}

// GetUserActivity handles GET /api/v1/users/{address}/activity
func (s *Service) GetUserActivity(w http.ResponseWriter, r *http.Request) {
	user := model.Address(chi.URLParam(r, "address"))

	a, err := s.store.GetUserActivity(r.Context(), user)
	if err != nil {
		writeError(w, "failed to load activity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.activityResponse(a))
}

// ListEvents handles GET /api/v1/events
// Returns the newest events first, limited by ?limit=<n> (default 100, 0 for all).
func (s *Service) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := s.store.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.eventResponses(events))
}

// --- helpers ---

// run times a farm call and counts rejections by reason.
func (s *Service) run(op string, call func() error) error {
	start := time.Now()
	err := call()
	metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Rejections.WithLabelValues(op, reason(err)).Inc()
	}
	return err
}

// baseUnits converts a token-unit amount, writing a 400 on failure.
func (s *Service) baseUnits(w http.ResponseWriter, op string, d decimal.Decimal, decimals uint8) (*uint256.Int, bool) {
	v, err := units.FromDecimal(d, decimals)
	if err != nil {
		metrics.Rejections.WithLabelValues(op, "invalid_amount").Inc()
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return v, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, farm.ErrUnauthorized),
		errors.Is(err, access.ErrUnauthorized),
		errors.Is(err, token.ErrNotMinter):
		return http.StatusForbidden
	case errors.Is(err, farm.ErrInvalidAmount),
		errors.Is(err, units.ErrInvalidAmount),
		errors.Is(err, units.ErrNegative),
		errors.Is(err, units.ErrTooPrecise),
		errors.Is(err, units.ErrOverflow),
		errors.Is(err, token.ErrZeroAddress):
		return http.StatusBadRequest
	case errors.Is(err, farm.ErrStakeOverflow),
		errors.Is(err, token.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, farm.ErrInsufficientCallerBalance),
		errors.Is(err, farm.ErrInsufficientAllowance),
		errors.Is(err, farm.ErrInsufficientStakedBalance),
		errors.Is(err, farm.ErrRewardPoolInsufficient),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// reason is the metrics label for a rejected call.
func reason(err error) string {
	switch {
	case errors.Is(err, farm.ErrUnauthorized), errors.Is(err, access.ErrUnauthorized), errors.Is(err, token.ErrNotMinter):
		return "unauthorized"
	case errors.Is(err, farm.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, farm.ErrInsufficientCallerBalance), errors.Is(err, token.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, farm.ErrInsufficientAllowance), errors.Is(err, token.ErrInsufficientAllowance):
		return "insufficient_allowance"
	case errors.Is(err, farm.ErrInsufficientStakedBalance):
		return "insufficient_stake"
	case errors.Is(err, farm.ErrRewardPoolInsufficient):
		return "reward_pool"
	case errors.Is(err, farm.ErrStakeOverflow), errors.Is(err, token.ErrOverflow):
		return "overflow"
	default:
		return "internal"
	}
}

func writeFarmError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("farm call failed", "err", err)
	}
	writeError(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/yield-farm/internal/model"
	"github.com/atmx/yield-farm/internal/token"
)

// ApproveRequest is the JSON body for POST /api/v1/tokens/{symbol}/approve.
// Spender defaults to the farm.
type ApproveRequest struct {
	Caller  model.Address   `json:"caller,omitempty"`
	Spender model.Address   `json:"spender,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// MintRequest is the JSON body for POST /api/v1/tokens/{symbol}/mint.
// To defaults to the caller.
type MintRequest struct {
	Caller model.Address   `json:"caller,omitempty"`
	To     model.Address   `json:"to,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// GetBalance handles GET /api/v1/tokens/{symbol}/balances/{address}
func (s *Service) GetBalance(w http.ResponseWriter, r *http.Request) {
	tok, ok := s.tokenFor(w, r)
	if !ok {
		return
	}
	addr := model.Address(chi.URLParam(r, "address"))

	writeJSON(w, http.StatusOK, TokenBalanceResponse{
		Symbol:   tok.Symbol(),
		Address:  addr,
		Balance:  toDecimal(tok, tok.BalanceOf(addr)),
		Decimals: tok.Decimals(),
	})
}

// Approve handles POST /api/v1/tokens/{symbol}/approve
func (s *Service) Approve(w http.ResponseWriter, r *http.Request) {
	tok, ok := s.tokenFor(w, r)
	if !ok {
		return
	}
	var req ApproveRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	if req.Spender == "" {
		req.Spender = s.farm.Address()
	}
	amount, ok := s.baseUnits(w, "approve", req.Amount, tok.Decimals())
	if !ok {
		return
	}
	if err := tok.Approve(caller, req.Spender, amount); err != nil {
		writeFarmError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":    tok.Symbol(),
		"owner":     caller,
		"spender":   req.Spender,
		"allowance": toDecimal(tok, tok.Allowance(caller, req.Spender)),
	})
}

// Mint handles POST /api/v1/tokens/{symbol}/mint
// Only the token's minter may mint, unless the token allows open minting.
func (s *Service) Mint(w http.ResponseWriter, r *http.Request) {
	tok, ok := s.tokenFor(w, r)
	if !ok {
		return
	}
	var req MintRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	if req.To == "" {
		req.To = caller
	}
	amount, ok := s.baseUnits(w, "mint", req.Amount, tok.Decimals())
	if !ok {
		return
	}
	if err := tok.Mint(caller, req.To, amount); err != nil {
		writeFarmError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenBalanceResponse{
		Symbol:   tok.Symbol(),
		Address:  req.To,
		Balance:  toDecimal(tok, tok.BalanceOf(req.To)),
		Decimals: tok.Decimals(),
	})
}

// tokenFor resolves {symbol} to the stake or reward ledger, writing a 404
// for anything else.
func (s *Service) tokenFor(w http.ResponseWriter, r *http.Request) (*token.Ledger, bool) {
	switch chi.URLParam(r, "symbol") {
	case s.stakeToken.Symbol():
		return s.stakeToken, true
	case s.rewardToken.Symbol():
		return s.rewardToken, true
	}
	writeError(w, "unknown token", http.StatusNotFound)
	return nil, false
}

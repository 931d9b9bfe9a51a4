package api

import (
	"net/http"

	"github.com/atmx/yield-farm/internal/model"
)

// TransferAdminRequest is the JSON body for POST /api/v1/admin/transfer.
type TransferAdminRequest struct {
	Caller   model.Address `json:"caller,omitempty"`
	NewAdmin model.Address `json:"new_admin"`
}

// GetAdmin handles GET /api/v1/admin
func (s *Service) GetAdmin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]model.Address{"admin": s.gate.Admin()})
}

// TransferAdmin handles POST /api/v1/admin/transfer
// Hands pool administration to another address. Reward-token minting stays
// with the reward ledger's minter.
func (s *Service) TransferAdmin(w http.ResponseWriter, r *http.Request) {
	var req TransferAdminRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := callerOf(w, r, req.Caller)
	if !ok {
		return
	}
	if req.NewAdmin == "" {
		writeError(w, "new_admin is required", http.StatusBadRequest)
		return
	}
	if err := s.run("admin_transfer", func() error { return s.gate.Transfer(caller, req.NewAdmin) }); err != nil {
		writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Address{"admin": s.gate.Admin()})
}

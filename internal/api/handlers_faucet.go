package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleFaucetStatus handles GET /faucet/status/{address}
func (s *Server) handleFaucetStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]

	status, err := s.faucetService.ClaimStatus(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// claimRequest is the POST /faucet/claim body.
type claimRequest struct {
	Address string `json:"address"`
}

// claimResponse mirrors the shape the web app expects.
type claimResponse struct {
	Success bool   `json:"success"`
	Address string `json:"address"`
	Amount  string `json:"amount"`
	TxHash  string `json:"tx_hash"`
	Message string `json:"message"`
}

// handleFaucetClaim handles POST /faucet/claim
func (s *Server) handleFaucetClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Address == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "address is required", nil)
		return
	}

	claim, err := s.faucetService.Claim(r.Context(), req.Address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, claimResponse{
		Success: true,
		Address: claim.Address,
		Amount:  claim.Amount,
		TxHash:  claim.TxHash,
		Message: "Tokens sent! They should arrive shortly.",
	})
}

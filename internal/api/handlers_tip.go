package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// handleGetTip handles GET /tip/{tipId}
func (s *Server) handleGetTip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	tipID, err := strconv.ParseInt(vars["tipId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "tipId must be a number", nil)
		return
	}

	detail, err := s.tipService.GetTip(r.Context(), tipID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// completeRequest is the POST /webhook/complete body sent by the web app
// after the on-chain transfer confirms. The web app is loose about the id's
// JSON type, so tipId accepts both 7 and "7".
type completeRequest struct {
	TipID  json.Number `json:"tipId"`
	TxHash string      `json:"txHash"`
}

type completeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TipID   int64  `json:"tipId"`
	TxHash  string `json:"txHash"`
}

// handleCompleteTip handles POST /webhook/complete
func (s *Server) handleCompleteTip(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	tipID, err := req.TipID.Int64()
	if err != nil || tipID == 0 || req.TxHash == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "tipId and txHash are required", nil)
		return
	}

	tip, err := s.tipService.CompleteTip(r.Context(), tipID, req.TxHash)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, completeResponse{
		Success: true,
		Message: "Tip completed",
		TipID:   tip.ID,
		TxHash:  tip.TxHash,
	})
}

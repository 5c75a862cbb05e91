package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	disputeerrors "covenant/contexts/moderation-safety/dispute-service/domain/errors"
	disputehttp "covenant/contexts/moderation-safety/dispute-service/transport/http"
)

func (s *Server) handleOpenDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req disputehttp.OpenDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDisputeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.disputes.Handler.OpenDisputeHandler(r.Context(), user.ID, req)
	if err != nil {
		writeDisputeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.disputes.Handler.GetDisputeHandler(r.Context(), user.ID, r.PathValue("dispute_id"))
	if err != nil {
		writeDisputeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req disputehttp.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDisputeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.disputes.Handler.ResolveDisputeHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		user.ID,
		r.PathValue("dispute_id"),
		req,
	)
	if err != nil {
		writeDisputeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDisputeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, disputeerrors.ErrDisputeNotFound):
		writeDisputeError(w, http.StatusNotFound, "dispute_not_found", err.Error())
	case errors.Is(err, disputeerrors.ErrInvalidDisputeInput):
		writeDisputeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, disputeerrors.ErrIdempotencyKeyRequired):
		writeDisputeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, disputeerrors.ErrIdempotencyConflict):
		writeDisputeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, disputeerrors.ErrInvalidState):
		writeDisputeError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case errors.Is(err, disputeerrors.ErrForbidden):
		writeDisputeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeDisputeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDisputeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, disputehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

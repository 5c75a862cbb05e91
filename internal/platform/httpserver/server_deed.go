package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	deederrors "covenant/contexts/agreements-core/deed-service/domain/errors"
	deedhttp "covenant/contexts/agreements-core/deed-service/transport/http"
)

func (s *Server) handleCreateDeed(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req deedhttp.CreateDeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDeedError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.deeds.Handler.CreateDeedHandler(r.Context(), user.ID, req)
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDeed(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deeds.Handler.GetDeedHandler(r.Context(), r.PathValue("deed_id"))
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeedHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deeds.Handler.VersionHistoryHandler(r.Context(), r.PathValue("deed_id"))
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenDeed(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.deeds.Handler.OpenForSignatureHandler(r.Context(), user.ID, r.PathValue("deed_id"))
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignDeed(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.deeds.Handler.SignDeedHandler(r.Context(), user.ID, r.PathValue("deed_id"))
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAmendDeed(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req deedhttp.AmendDeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDeedError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.deeds.Handler.AmendDeedHandler(r.Context(), user.ID, r.PathValue("deed_id"), req)
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVoidDeed(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req deedhttp.VoidDeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDeedError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.deeds.Handler.VoidDeedHandler(r.Context(), user.ID, r.PathValue("deed_id"), req)
	if err != nil {
		writeDeedDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDeedDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deederrors.ErrDeedNotFound):
		writeDeedError(w, http.StatusNotFound, "deed_not_found", err.Error())
	case errors.Is(err, deederrors.ErrInvalidDeedInput):
		writeDeedError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, deederrors.ErrDeedImmutable),
		errors.Is(err, deederrors.ErrDeedNotImmutable),
		errors.Is(err, deederrors.ErrInvalidState):
		writeDeedError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case errors.Is(err, deederrors.ErrNotASigner):
		writeDeedError(w, http.StatusForbidden, "not_a_signer", err.Error())
	case errors.Is(err, deederrors.ErrAlreadySigned):
		writeDeedError(w, http.StatusConflict, "already_signed", err.Error())
	case errors.Is(err, deederrors.ErrSignConflict):
		writeDeedError(w, http.StatusConflict, "sign_conflict", err.Error())
	case errors.Is(err, deederrors.ErrAmendConflict):
		writeDeedError(w, http.StatusConflict, "amend_conflict", err.Error())
	default:
		writeDeedError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDeedError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, deedhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

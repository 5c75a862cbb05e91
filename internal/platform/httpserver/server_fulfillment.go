package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	fulfillmenterrors "covenant/contexts/agreements-core/fulfillment-service/domain/errors"
	fulfillmenthttp "covenant/contexts/agreements-core/fulfillment-service/transport/http"
)

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.fulfillment.Handler.GetAssignmentHandler(r.Context(), user.ID, r.PathValue("assignment_id"))
	if err != nil {
		writeFulfillmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFulfillmentEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.fulfillment.Handler.ListEventsHandler(r.Context(), user.ID, r.PathValue("assignment_id"))
	if err != nil {
		writeFulfillmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req fulfillmenthttp.CreateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFulfillmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.fulfillment.Handler.CreateMilestoneHandler(r.Context(), user.ID, r.PathValue("assignment_id"), req)
	if err != nil {
		writeFulfillmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req fulfillmenthttp.UpdateMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFulfillmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.fulfillment.Handler.UpdateMilestoneHandler(r.Context(), user.ID, r.PathValue("milestone_id"), req)
	if err != nil {
		writeFulfillmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmMilestone(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.fulfillment.Handler.ConfirmMilestoneHandler(r.Context(), user.ID, r.PathValue("milestone_id"))
	if err != nil {
		writeFulfillmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeFulfillmentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fulfillmenterrors.ErrAssignmentNotFound):
		writeFulfillmentError(w, http.StatusNotFound, "assignment_not_found", err.Error())
	case errors.Is(err, fulfillmenterrors.ErrMilestoneNotFound):
		writeFulfillmentError(w, http.StatusNotFound, "milestone_not_found", err.Error())
	case errors.Is(err, fulfillmenterrors.ErrInvalidMilestoneInput):
		writeFulfillmentError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, fulfillmenterrors.ErrInvalidState):
		writeFulfillmentError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case errors.Is(err, fulfillmenterrors.ErrConfirmConflict):
		writeFulfillmentError(w, http.StatusConflict, "confirm_conflict", err.Error())
	case errors.Is(err, fulfillmenterrors.ErrForbidden):
		writeFulfillmentError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeFulfillmentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeFulfillmentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, fulfillmenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

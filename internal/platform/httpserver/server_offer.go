package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	offererrors "covenant/contexts/campaign-lifecycle/offer-service/domain/errors"
	offerhttp "covenant/contexts/campaign-lifecycle/offer-service/transport/http"
)

func (s *Server) handleSubmitOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req offerhttp.SubmitOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.offers.Handler.SubmitOfferHandler(r.Context(), user.ID, req)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.offers.Handler.GetOfferHandler(r.Context(), r.PathValue("offer_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.offers.Handler.ListOffersHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.offers.Handler.SignOfferHandler(r.Context(), user.ID, r.PathValue("offer_id"))
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectOffer(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req offerhttp.SelectOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOfferError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.offers.Handler.SelectOfferHandler(r.Context(), user.ID, r.PathValue("campaign_id"), req)
	if err != nil {
		writeOfferDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeOfferDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, offererrors.ErrOfferNotFound):
		writeOfferError(w, http.StatusNotFound, "offer_not_found", err.Error())
	case errors.Is(err, offererrors.ErrCampaignNotFound):
		writeOfferError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, offererrors.ErrInvalidOfferInput):
		writeOfferError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, offererrors.ErrOfferNotSigned):
		writeOfferError(w, http.StatusUnprocessableEntity, "offer_not_signed", err.Error())
	case errors.Is(err, offererrors.ErrCampaignNotOpen):
		writeOfferError(w, http.StatusConflict, "campaign_not_open", err.Error())
	case errors.Is(err, offererrors.ErrInvalidState):
		writeOfferError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, offererrors.ErrForbidden):
		writeOfferError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeOfferError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOfferError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, offerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

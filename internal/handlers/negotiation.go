package handlers

import (
	"net/http"

	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/service"
)

const counterParamKey = "counterId"

type NegotiationHandler struct {
	svc   service.NegotiationServicer
	debug bool
}

func NewNegotiationHandler(svc service.NegotiationServicer, debug bool) (*NegotiationHandler, error) {
	return &NegotiationHandler{
		svc:   svc,
		debug: debug,
	}, nil
}

// Decide godoc
//
//	@Summary		Accept or reject the top bid
//	@Tags			Negotiation
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			auctionId	path		string					true	"Auction ID"
//	@Param			decision	body		model.DecisionRequest	true	"accept or reject"
//	@Success		200			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/auctions/{auctionId}/decision [post]
func (h *NegotiationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	var req model.DecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sellerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	auction, err := h.svc.Decide(r.Context(), auctionID, sellerID, req.Decision)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"auction": auction,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Decision recorded", resp)
}

// CreateCounterOffer godoc
//
//	@Summary		Counter the top bid
//	@Tags			Negotiation
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			auctionId	path		string						true	"Auction ID"
//	@Param			offer		body		model.CounterOfferRequest	true	"Counter offer amount"
//	@Success		201			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/auctions/{auctionId}/counter-offers [post]
func (h *NegotiationHandler) CreateCounterOffer(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	var req model.CounterOfferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sellerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	counter, err := h.svc.CreateCounterOffer(r.Context(), auctionID, sellerID, req.Amount)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"counter_offer": counter,
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Counter offer sent", resp)
}

// RespondCounterOffer godoc
//
//	@Summary		Answer a counter offer
//	@Description	Either answer closes the auction; a rejection leaves it without a winner
//	@Tags			Negotiation
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			counterId	path		string					true	"Counter offer ID"
//	@Param			decision	body		model.DecisionRequest	true	"accept or reject"
//	@Success		200			{object}	map[string]any
//	@Failure		403			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/counter-offers/{counterId}/respond [post]
func (h *NegotiationHandler) RespondCounterOffer(w http.ResponseWriter, r *http.Request) {
	counterID, ok := uuidParam(w, r, counterParamKey)
	if !ok {
		return
	}
	var req model.DecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}

	counter, err := h.svc.RespondCounterOffer(r.Context(), counterID, actorID, req.Decision)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"counter_offer": counter,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Counter offer answered", resp)
}

// ListCounterOffers godoc
//
//	@Summary		List my counter offers
//	@Tags			Negotiation
//	@Security		BearerAuth
//	@Produce		json
//	@Param			role	query		string	false	"buyer, seller or both"
//	@Success		200		{object}	map[string]any
//	@Router			/counter-offers [get]
func (h *NegotiationHandler) ListCounterOffers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	role := model.CounterRole(r.URL.Query().Get("role"))

	offers, err := h.svc.ListCounterOffers(r.Context(), userID, role)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"counter_offers": offers,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Counter offers fetched successfully", resp)
}

package handlers

import (
	"net/http"

	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/service"
)

type BidHandler struct {
	svc   service.BidServicer
	debug bool
}

func NewBidHandler(svc service.BidServicer, debug bool) (*BidHandler, error) {
	return &BidHandler{
		svc:   svc,
		debug: debug,
	}, nil
}

// PlaceBid godoc
//
//	@Summary		Place a Bid on an Auction
//	@Description	The bid must be at least the current price plus the bid increment
//	@Tags			Bids
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			auctionId	path		string					true	"Auction ID"
//	@Param			bid			body		model.PlaceBidRequest	true	"Bid details"
//	@Success		201			{object}	map[string]any
//	@Failure		403			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/auctions/{auctionId}/bids [post]
func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	var req model.PlaceBidRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bidderID, ok := currentUser(w, r)
	if !ok {
		return
	}

	bid, err := h.svc.PlaceBid(r.Context(), auctionID, bidderID, req.Amount)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"bid": bid,
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Bid placed successfully", resp)
}

// ListBids godoc
//
//	@Summary		List Bids of an Auction
//	@Description	Only the seller may see the bid history, highest first
//	@Tags			Bids
//	@Security		BearerAuth
//	@Produce		json
//	@Param			auctionId	path		string	true	"Auction ID"
//	@Success		200			{object}	map[string]any
//	@Failure		403			{object}	map[string]any
//	@Router			/auctions/{auctionId}/bids [get]
func (h *BidHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	bids, err := h.svc.ListBids(r.Context(), auctionID, userID)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"bids": bids,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Bids fetched successfully", resp)
}

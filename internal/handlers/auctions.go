package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/service"
)

const (
	auctionParamKey = "auctionId"

	maxUploadBytes = 50 << 20
	maxImageBytes  = 10 << 20
)

type AuctionHandler struct {
	svc   service.AuctionServicer
	debug bool
}

func NewAuctionHandler(svc service.AuctionServicer, debug bool) (*AuctionHandler, error) {
	return &AuctionHandler{
		svc:   svc,
		debug: debug,
	}, nil
}

// CreateAuction godoc
//
//	@Summary		Create a new Auction
//	@Description	List an item. A go-live time at or before now starts the auction immediately.
//	@Tags			Auctions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			auction	body		model.CreateAuctionRequest	true	"Auction details"
//	@Success		201		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/auctions [post]
func (h *AuctionHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAuctionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sellerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	auction, err := h.svc.CreateAuction(r.Context(), sellerID, req)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"auction": auction,
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Auction created successfully", resp)
}

// ListAuctions godoc
//
//	@Summary		List Auctions
//	@Tags			Auctions
//	@Produce		json
//	@Param			status	query		string	false	"scheduled, live, ended or closed"
//	@Success		200		{object}	map[string]any
//	@Router			/auctions [get]
func (h *AuctionHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	status := model.AuctionStatus(r.URL.Query().Get("status"))

	auctions, err := h.svc.ListAuctions(r.Context(), status)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"auctions": auctions,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Auctions fetched successfully", resp)
}

// GetAuctionByID godoc
//
//	@Summary		Get Auction by ID
//	@Tags			Auctions
//	@Produce		json
//	@Param			auctionId	path		string	true	"Auction ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/auctions/{auctionId} [get]
func (h *AuctionHandler) GetAuctionByID(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	auction, err := h.svc.GetAuction(r.Context(), auctionID)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"auction": auction,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Auction fetched successfully", resp)
}

// UploadImages godoc
//
//	@Summary		Upload Auction Images
//	@Description	Upload images to attach to an auction on creation
//	@Tags			Auctions
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"Auction images"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Router			/auctions/images [post]
func (h *AuctionHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidForm.Error(), "failed to parse multipart form", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingFiles.Error(), "No images uploaded", nil)
		return
	}

	imageNames := make([]string, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxImageBytes {
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrLargeFile.Error(), fmt.Sprintf("File %s exceeds 10MB limit", fileHeader.Filename), nil)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrFileOpen.Error(), "Failed to process uploaded file", nil)
			return
		}
		fileData, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrFileReadError.Error(), "failed to read uploaded file", nil)
			return
		}

		detectedType := http.DetectContentType(fileData)
		if !strings.HasPrefix(detectedType, "image/") {
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidFile.Error(), fmt.Sprintf("File %s is not a valid image", fileHeader.Filename), nil)
			return
		}

		imageName, err := h.svc.UploadImage(r.Context(), fileHeader.Filename, fileData, detectedType)
		if err != nil {
			RespondServiceError(w, r, err, h.debug)
			return
		}
		imageNames = append(imageNames, imageName)
		slog.Info("Uploaded image", "original_filename", fileHeader.Filename, "stored_as", imageName)
	}

	resp := map[string]any{
		"image_names": imageNames,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Images uploaded successfully", resp)
}

// GetAuctionImageUrls godoc
//
//	@Summary		Get Auction Image URLs
//	@Tags			Auctions
//	@Produce		json
//	@Param			auctionId	path		string	true	"Auction ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/auctions/{auctionId}/images [get]
func (h *AuctionHandler) GetAuctionImageUrls(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	imageUrls, err := h.svc.GetImageURLs(r.Context(), auctionID)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"image_urls": imageUrls,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Images retrieved successfully", resp)
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/pkg/config"
	valid "github.com/itsDrac/e-auc-live/pkg/validator"
)

var validate = valid.GetValidator()

var requestIDKey = "X-Request-ID"

func writeJson(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write json response", "status", status, "error", err)
	}
}

func GetUserClaims(ctx context.Context) *config.UserClaims {
	claims, ok := ctx.Value(config.UserClaimKey).(*config.UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// requestID echoes the caller's request id, or generates one.
func requestID(w http.ResponseWriter, r *http.Request) string {
	reqID := r.Header.Get(requestIDKey)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set(requestIDKey, reqID)
	return reqID
}

func RespondSuccessJSON[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {
	payload := model.APIResponse[T]{
		Status:  "success",
		Message: message,
		Metadata: model.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestID(w, r),
		},
		Data:  data,
		Error: nil,
	}
	writeJson(w, status, payload)
}

func RespondErrorJSON(w http.ResponseWriter, r *http.Request, status int, code string, message string, details []model.ErrorDetails) {
	respondAPIError(w, r, status, &model.APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *model.APIError) {
	payload := model.APIResponse[any]{
		Status: "error",
		Metadata: model.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestID(w, r),
		},
		Error: apiErr,
	}
	writeJson(w, status, payload)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation,
// writing the error response itself. It reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var details []model.ErrorDetails
		if validErrs, ok := err.(validator.ValidationErrors); ok {
			for _, vErr := range validErrs {
				details = append(details, model.ErrorDetails{
					Field: vErr.Field(),
					Issue: fmt.Sprintf("failed on tag '%s' with param '%s'", vErr.Tag(), vErr.Param()),
				})
			}
		}
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", details)
		return false
	}
	return true
}

// uuidParam parses a chi path parameter, writing a 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, key)
	if raw == "" {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), key+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidParam.Error(), key+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated caller, writing a 401 when the
// request carries no claims.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "user claims not found in context", nil)
		return uuid.Nil, false
	}
	return claims.UserID, true
}

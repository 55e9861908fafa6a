package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/itsDrac/e-auc-live/internal/model"
	"github.com/itsDrac/e-auc-live/internal/service"
)

var (
	// common error code
	ErrInternalServer = errors.New("INTERNAL_SERVER_ERROR")
	ErrUnavailable    = errors.New("SERVICE_UNAVAILABLE")
	ErrInvalidRequest = errors.New("VALIDATION_FAILED")
	ErrInvalidJson    = errors.New("INVALID_JSON_FORMAT")
	ErrMissingParam   = errors.New("MISSING_PARAM")
	ErrInvalidParam   = errors.New("INVALID_PARAM")
	ErrNotFound       = errors.New("NOT_FOUND")
	ErrForbidden      = errors.New("FORBIDDEN")
	ErrStateConflict  = errors.New("STATE_CONFLICT")
	ErrIntegrity      = errors.New("INTEGRITY_ANOMALY")

	// auth error code
	ErrAuthFailed    = errors.New("AUTH_FAILED")
	ErrMissingToken  = errors.New("MISSING_TOKEN")
	ErrMissingCookie = errors.New("MISSING_COOKIE")
	ErrToken         = errors.New("TOKEN_ERROR")

	// user error code
	ErrUserExists   = errors.New("USER_EXISTS")
	ErrUserNotFound = errors.New("USER_NOT_FOUND")

	// auction error code
	ErrAuctionNotFound  = errors.New("AUCTION_NOT_FOUND")
	ErrAuctionNotActive = errors.New("AUCTION_NOT_ACTIVE")
	ErrAuctionNotEnded  = errors.New("AUCTION_NOT_ENDED")
	ErrAuctionClosed    = errors.New("AUCTION_CLOSED")
	ErrNotSeller        = errors.New("NOT_SELLER")
	ErrUrlsNotFound     = errors.New("AUCTION_URLS_NOT_FOUND")

	// bid error code
	ErrBidLow         = errors.New("BID_TOO_LOW")
	ErrSelfBidding    = errors.New("SELF_BIDDING_NOT_ALLOWED")
	ErrBidContention  = errors.New("BID_CONTENTION")
	ErrNoBids         = errors.New("NO_BIDS")
	ErrCounterPending = errors.New("COUNTER_OFFER_PENDING")
	ErrCounterClosed  = errors.New("COUNTER_OFFER_RESOLVED")
	ErrCounterMissing = errors.New("COUNTER_OFFER_NOT_FOUND")
	ErrNotCounterSide = errors.New("NOT_COUNTER_PARTY")

	// file error code
	ErrInvalidForm   = errors.New("INVALID_FORM")
	ErrMissingFiles  = errors.New("MISSING_FILES")
	ErrLargeFile     = errors.New("FILE_TO_LARGE")
	ErrFileOpen      = errors.New("FILE_OPEN_ERROR")
	ErrFileReadError = errors.New("FILE_READ_ERROR")
	ErrInvalidFile   = errors.New("INVALID_FILE_TYPE")
)

// specific codes for well known service errors; everything else falls back
// to the code of its kind
var serviceCodes = []struct {
	target error
	code   error
}{
	{service.ErrUserExists, ErrUserExists},
	{service.ErrUserNotFound, ErrUserNotFound},
	{service.ErrInvalidCredentials, ErrAuthFailed},
	{service.ErrAuctionNotFound, ErrAuctionNotFound},
	{service.ErrImagesNotFound, ErrUrlsNotFound},
	{service.ErrSelfBidding, ErrSelfBidding},
	{service.ErrAuctionNotActive, ErrAuctionNotActive},
	{service.ErrBidTooLow, ErrBidLow},
	{service.ErrBidContention, ErrBidContention},
	{service.ErrNotSeller, ErrNotSeller},
	{service.ErrAuctionNotEnded, ErrAuctionNotEnded},
	{service.ErrAuctionClosed, ErrAuctionClosed},
	{service.ErrNoBids, ErrNoBids},
	{service.ErrCounterNotFound, ErrCounterMissing},
	{service.ErrCounterPending, ErrCounterPending},
	{service.ErrCounterResolved, ErrCounterClosed},
	{service.ErrNotCounterParty, ErrNotCounterSide},
}

func statusFor(kind service.Kind) (int, error) {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest, ErrInvalidRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized, ErrAuthFailed
	case service.KindAuthorization:
		return http.StatusForbidden, ErrForbidden
	case service.KindNotFound:
		return http.StatusNotFound, ErrNotFound
	case service.KindConflict:
		return http.StatusConflict, ErrStateConflict
	case service.KindIntegrity:
		return http.StatusInternalServerError, ErrIntegrity
	default:
		return http.StatusServiceUnavailable, ErrUnavailable
	}
}

// RespondServiceError maps a service error onto the response envelope.
// Infrastructure causes are logged and only echoed back when debug is set.
func RespondServiceError(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	kind := service.KindOf(err)
	status, code := statusFor(kind)
	for _, c := range serviceCodes {
		if errors.Is(err, c.target) {
			code = c.code
			break
		}
	}

	var svcErr *service.Error
	message := "Something went wrong"
	if errors.As(err, &svcErr) {
		message = svcErr.Error()
	}

	var details []model.ErrorDetails
	if kind == service.KindUnavailable || kind == service.KindIntegrity {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", kind.String(), "error", errors.Unwrap(err))
		if debug {
			details = append(details, model.ErrorDetails{Field: "cause", Issue: causeOf(err)})
		}
	}

	apiErr := &model.APIError{Code: code.Error(), Message: message, Details: details}
	if svcErr != nil && svcErr.MinimumBid != nil {
		apiErr.MinimumBid = svcErr.MinimumBid.StringFixed(2)
	}
	respondAPIError(w, r, status, apiErr)
}

func causeOf(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}

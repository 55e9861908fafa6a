package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// auctions
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrInvalidAuction   = errors.New("invalid auction")
	ErrImagesNotFound   = errors.New("auction has no images")
	ErrNotSeller        = errors.New("only the seller can perform this action")
	ErrSelfBidding      = errors.New("sellers cannot bid on their own auction")
	ErrInvalidBid       = errors.New("invalid bid")
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrBidTooLow        = errors.New("bid is below the minimum")
	ErrBidContention    = errors.New("auction is receiving too many bids, please retry")
	ErrPriceMismatch    = errors.New("committed price does not match the bid")

	// negotiation
	ErrInvalidDecision   = errors.New("decision must be accept or reject")
	ErrAuctionNotEnded   = errors.New("auction has not ended")
	ErrAuctionClosed     = errors.New("auction is already closed")
	ErrNoBids            = errors.New("no bids")
	ErrCounterNotFound   = errors.New("counter offer not found")
	ErrCounterPending    = errors.New("a counter offer is already pending for this auction")
	ErrCounterResolved   = errors.New("counter offer has already been answered")
	ErrNotCounterParty   = errors.New("only the buyer or seller of this counter offer can respond")
	ErrInvalidCounter    = errors.New("invalid counter offer")
	ErrInvalidRole       = errors.New("role must be buyer, seller or both")
	ErrNotificationFound = errors.New("notification not found")
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindUnavailable
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationRequired"
	case KindAuthorization:
		return "AuthorizationDenied"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "StateConflict"
	case KindIntegrity:
		return "IntegrityAnomaly"
	default:
		return "StorageUnavailable"
	}
}

// Error is returned by every service operation. Err is one of the sentinel
// errors above (or the wrapped infrastructure error), so errors.Is works.
type Error struct {
	Kind    Kind
	Message string
	// MinimumBid is set when a bid was below the required minimum.
	MinimumBid *decimal.Decimal
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, sentinel error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: sentinel}
}

func validationErr(sentinel error, message string) error {
	return newError(KindValidation, sentinel, message)
}

func forbidden(sentinel error) error {
	return newError(KindAuthorization, sentinel, sentinel.Error())
}

func notFound(sentinel error) error {
	return newError(KindNotFound, sentinel, sentinel.Error())
}

func conflict(sentinel error) error {
	return newError(KindConflict, sentinel, sentinel.Error())
}

func bidTooLow(minimum decimal.Decimal) error {
	return &Error{
		Kind:       KindConflict,
		Message:    fmt.Sprintf("Minimum bid is %s", minimum.StringFixed(2)),
		MinimumBid: &minimum,
		Err:        ErrBidTooLow,
	}
}

// unavailable hides the infrastructure failure behind a generic message;
// the wrapped error stays available for logging.
func unavailable(op string, err error) error {
	return &Error{
		Kind:    KindUnavailable,
		Message: "service temporarily unavailable",
		Err:     fmt.Errorf("service: %s: %w", op, err),
	}
}

// KindOf reports the Kind of err; unknown errors count as infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

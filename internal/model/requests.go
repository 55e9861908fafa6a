package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required"`
}

type LoginUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type CreateAuctionRequest struct {
	Title           string          `json:"title" validate:"required,max=200,min=3"`
	Description     *string         `json:"description" validate:"omitempty,max=5000"`
	Images          []string        `json:"images" validate:"omitempty,max=5,dive,required"`
	StartingPrice   decimal.Decimal `json:"starting_price" validate:"gt=0"`
	BidIncrement    decimal.Decimal `json:"bid_increment" validate:"gt=0"`
	GoLiveAt        time.Time       `json:"go_live_at" validate:"required"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0,lte=43200"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

type DecisionRequest struct {
	Decision Decision `json:"decision" validate:"required,oneof=accept reject"`
}

type CounterOfferRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

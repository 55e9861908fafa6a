package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type priced struct {
	Amount decimal.Decimal `validate:"gt=0"`
}

func TestDecimalValidation(t *testing.T) {
	v := GetValidator()

	assert.NoError(t, v.Struct(priced{Amount: decimal.RequireFromString("0.01")}))
	assert.Error(t, v.Struct(priced{Amount: decimal.Zero}))
	assert.Error(t, v.Struct(priced{Amount: decimal.RequireFromString("-5")}))
}

package usecase

import (
	"context"
	"testing"

	"medledger/internal/delivery/dto"
	"medledger/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRoundsToCents(t *testing.T) {
	rates := &fakeRates{rates: map[string]decimal.Decimal{"USD>JPY": amount("151.237")}}
	uc := NewCurrencyUsecase(quietLogger(), rates, "USD")

	resp, err := uc.Convert(context.Background(), &dto.ConvertRequest{From: "usd", To: "jpy", Amount: amount("12.34")})
	require.NoError(t, err)

	assert.Equal(t, "USD", resp.From)
	assert.Equal(t, "JPY", resp.To)
	assert.True(t, amount("1866.26").Equal(resp.Converted), resp.Converted.String())
}

func TestConvertErrors(t *testing.T) {
	uc := NewCurrencyUsecase(quietLogger(), &fakeRates{rates: map[string]decimal.Decimal{}}, "USD")

	_, err := uc.Convert(context.Background(), &dto.ConvertRequest{From: "USD", To: "XYZ", Amount: amount("1")})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = uc.Convert(context.Background(), &dto.ConvertRequest{From: "USD", To: "EUR", Amount: amount("-1")})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	down := NewCurrencyUsecase(quietLogger(), &fakeRates{err: service.ErrRatesUnavailable}, "USD")
	_, err = down.GetRates(context.Background(), "eur")
	assert.ErrorIs(t, err, ErrRatesUnavailable)
}

func TestGetRatesDefaultsToBaseCurrency(t *testing.T) {
	rates := &fakeRates{rates: map[string]decimal.Decimal{"EUR>USD": amount("1.09"), "USD>EUR": amount("0.92")}}
	uc := NewCurrencyUsecase(quietLogger(), rates, "EUR")

	resp, err := uc.GetRates(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "EUR", resp.Base)
	assert.Len(t, resp.Rates, 1)
}

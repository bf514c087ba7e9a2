package usecase

import (
	"context"
	"errors"
	"strings"

	"medledger/internal/delivery/dto"
	"medledger/internal/service"

	"github.com/sirupsen/logrus"
)

type CurrencyUsecase interface {
	GetRates(ctx context.Context, base string) (*dto.RatesResponse, error)
	Convert(ctx context.Context, req *dto.ConvertRequest) (*dto.ConvertResponse, error)
}

type currencyUsecase struct {
	log          *logrus.Logger
	rates        service.RateProvider
	baseCurrency string
}

func NewCurrencyUsecase(log *logrus.Logger, rates service.RateProvider, baseCurrency string) CurrencyUsecase {
	return &currencyUsecase{
		log:          log,
		rates:        rates,
		baseCurrency: baseCurrency,
	}
}

func (u *currencyUsecase) GetRates(ctx context.Context, base string) (*dto.RatesResponse, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = u.baseCurrency
	}

	table, err := u.rates.Rates(ctx, base)
	if err != nil {
		return nil, u.mapRateError(err)
	}

	return &dto.RatesResponse{
		Base:      table.Base,
		Rates:     table.Rates,
		FetchedAt: table.FetchedAt,
	}, nil
}

func (u *currencyUsecase) Convert(ctx context.Context, req *dto.ConvertRequest) (*dto.ConvertResponse, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	from := strings.ToUpper(req.From)
	to := strings.ToUpper(req.To)

	rate, err := u.rates.Rate(ctx, from, to)
	if err != nil {
		return nil, u.mapRateError(err)
	}

	return &dto.ConvertResponse{
		From:      from,
		To:        to,
		Amount:    req.Amount,
		Rate:      rate,
		Converted: req.Amount.Mul(rate).Round(2),
	}, nil
}

func (u *currencyUsecase) mapRateError(err error) error {
	if errors.Is(err, service.ErrUnknownCurrency) {
		return ErrUnsupportedCurrency
	}
	u.log.Warnf("Failed to fetch exchange rates: %+v", err)
	return ErrRatesUnavailable
}

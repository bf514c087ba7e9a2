package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medledger/config"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrRatesUnavailable = errors.New("exchange rates unavailable")
)

const (
	redisRateKeyPrefix   = "currency:rates:"
	maxRateResponseBytes = 1 << 20
)

// RateTable maps currency codes to units per one Base.
type RateTable struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// RateProvider serves exchange rates.
type RateProvider interface {
	Rates(ctx context.Context, base string) (*RateTable, error)
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type CurrencyService struct {
	cfg         config.CurrencyConfig
	httpClient  *http.Client
	redisClient *redis.Client
	log         *logrus.Logger
}

// NewCurrencyService builds the rate client. redisClient may be nil, which
// disables caching.
func NewCurrencyService(cfg config.CurrencyConfig, redisClient *redis.Client, log *logrus.Logger) *CurrencyService {
	return &CurrencyService{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		redisClient: redisClient,
		log:         log,
	}
}

type rateAPIResponse struct {
	Result    string             `json:"result"`
	ErrorType string             `json:"error-type"`
	BaseCode  string             `json:"base_code"`
	Rates     map[string]float64 `json:"rates"`
}

func (s *CurrencyService) Rates(ctx context.Context, base string) (*RateTable, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if len(base) != 3 {
		return nil, ErrUnknownCurrency
	}

	if table := s.cached(ctx, base); table != nil {
		return table, nil
	}

	table, err := s.fetch(ctx, base)
	if err != nil {
		return nil, err
	}

	s.store(ctx, table)
	return table, nil
}

func (s *CurrencyService) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	table, err := s.Rates(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := table.Rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, ErrUnknownCurrency
	}
	return rate, nil
}

func (s *CurrencyService) fetch(ctx context.Context, base string) (*RateTable, error) {
	url := fmt.Sprintf("%s/latest/%s", s.cfg.BaseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warnf("Failed to fetch exchange rates for %s: %+v", base, err)
		return nil, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnknownCurrency
	}
	if resp.StatusCode != http.StatusOK {
		s.log.Warnf("Exchange rate API returned %d for %s", resp.StatusCode, base)
		return nil, fmt.Errorf("%w: status %d", ErrRatesUnavailable, resp.StatusCode)
	}

	var body rateAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRateResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRatesUnavailable, err)
	}
	if body.Result != "success" {
		if body.ErrorType == "unsupported-code" {
			return nil, ErrUnknownCurrency
		}
		s.log.Warnf("Exchange rate API refused %s: %s", base, body.ErrorType)
		return nil, fmt.Errorf("%w: %s", ErrRatesUnavailable, body.ErrorType)
	}

	table := &RateTable{
		Base:      body.BaseCode,
		Rates:     make(map[string]decimal.Decimal, len(body.Rates)),
		FetchedAt: time.Now().UTC(),
	}
	for code, rate := range body.Rates {
		table.Rates[code] = decimal.NewFromFloat(rate)
	}
	return table, nil
}

func (s *CurrencyService) cached(ctx context.Context, base string) *RateTable {
	if s.redisClient == nil {
		return nil
	}

	raw, err := s.redisClient.Get(ctx, redisRateKeyPrefix+base).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warnf("Failed to read cached rates for %s: %+v", base, err)
		}
		return nil
	}

	var table RateTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil
	}
	return &table
}

func (s *CurrencyService) store(ctx context.Context, table *RateTable) {
	if s.redisClient == nil || s.cfg.CacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(table)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, redisRateKeyPrefix+table.Base, raw, s.cfg.CacheTTL).Err(); err != nil {
		s.log.Warnf("Failed to cache rates for %s: %+v", table.Base, err)
	}
}

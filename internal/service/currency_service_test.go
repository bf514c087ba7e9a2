package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medledger/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/latest/USD":
			_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","rates":{"USD":1,"EUR":0.92,"IDR":15500.5}}`))
		case "/latest/ZZZ":
			_, _ = w.Write([]byte(`{"result":"error","error-type":"unsupported-code"}`))
		case "/latest/GBP":
			_, _ = w.Write([]byte(`{"result":"error","error-type":"quota-reached"}`))
		case "/latest/JPY":
			_, _ = w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCurrencyService(baseURL string) *CurrencyService {
	return NewCurrencyService(config.CurrencyConfig{BaseURL: baseURL, Timeout: 2 * time.Second}, nil, quietLogger())
}

func TestCurrencyServiceRates(t *testing.T) {
	svc := newTestCurrencyService(newRateServer(t).URL)

	table, err := svc.Rates(context.Background(), "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", table.Base)
	assert.Equal(t, "0.92", table.Rates["EUR"].String())
}

func TestCurrencyServiceRate(t *testing.T) {
	svc := newTestCurrencyService(newRateServer(t).URL)

	rate, err := svc.Rate(context.Background(), "USD", "IDR")
	require.NoError(t, err)
	assert.Equal(t, "15500.5", rate.String())

	same, err := svc.Rate(context.Background(), "EUR", "eur")
	require.NoError(t, err)
	assert.Equal(t, "1", same.String())

	_, err = svc.Rate(context.Background(), "USD", "XYZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCurrencyServiceUnknownBase(t *testing.T) {
	svc := newTestCurrencyService(newRateServer(t).URL)

	_, err := svc.Rates(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = svc.Rates(context.Background(), "TOOLONG")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCurrencyServiceUpstreamFailure(t *testing.T) {
	svc := newTestCurrencyService(newRateServer(t).URL)

	_, err := svc.Rates(context.Background(), "EUR")
	assert.ErrorIs(t, err, ErrRatesUnavailable)
}

func TestCurrencyServiceRefusedRequestIsUpstreamFailure(t *testing.T) {
	svc := newTestCurrencyService(newRateServer(t).URL)

	for _, base := range []string{"GBP", "JPY"} {
		_, err := svc.Rates(context.Background(), base)
		assert.ErrorIs(t, err, ErrRatesUnavailable, base)
		assert.NotErrorIs(t, err, ErrUnknownCurrency, base)
	}
}

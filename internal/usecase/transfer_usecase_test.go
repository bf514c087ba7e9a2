package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"
	"medledger/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferFixture struct {
	state     *ledgerState
	db        *fakeDB
	limiter   *fakeLimiter
	publisher *fakePublisher
	audit     *fakeAudit
	usecase   TransferUsecase
}

func newTransferFixture(rates *fakeRates) *transferFixture {
	f := &transferFixture{
		state:     newLedgerState(),
		db:        &fakeDB{},
		limiter:   newFakeLimiter("1000"),
		publisher: &fakePublisher{},
		audit:     &fakeAudit{},
	}
	if rates == nil {
		rates = &fakeRates{}
	}
	f.usecase = NewTransferUsecase(
		f.db,
		quietLogger(),
		&fakeLedgerUserRepo{f.state},
		&fakeWalletRepo{f.state},
		&fakeTransactionRepo{f.state},
		&fakeLedgerNotificationRepo{f.state},
		f.limiter,
		rates,
		f.publisher,
		f.audit,
		decimal.RequireFromString("1.5"),
	)
	return f
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransferMovesMoneyAndNotifiesBothParties(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "100.00")
	bob := f.state.addUser("Bob", "USD", "5.00")

	resp, err := f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
		Recipient:   *bob.Email,
		Amount:      amount("40.25"),
		Description: " rent ",
	})
	require.NoError(t, err)

	assert.True(t, amount("59.75").Equal(resp.Balance))
	assert.True(t, amount("59.75").Equal(f.state.balance(alice.ID)))
	assert.True(t, amount("45.25").Equal(f.state.balance(bob.ID)))

	require.NotNil(t, resp.Transaction)
	assert.True(t, strings.HasPrefix(resp.Transaction.TxHash, "0x"))
	assert.Len(t, resp.Transaction.TxHash, 66)
	assert.Equal(t, entity.DirectionOut, resp.Transaction.Direction)
	assert.Equal(t, string(entity.TransactionTypeTransfer), resp.Transaction.Type)
	assert.Equal(t, "rent", resp.Transaction.Description)
	assert.True(t, resp.Transaction.Fee.IsZero())

	require.Len(t, f.db.txs, 1)
	assert.True(t, f.db.lastTx().committed)

	require.Len(t, f.publisher.published, 2)
	assert.Equal(t, alice.ID, f.publisher.published[0].UserID)
	assert.Equal(t, bob.ID, f.publisher.published[1].UserID)
	assert.NotZero(t, f.publisher.published[0].ID)

	assert.Contains(t, f.audit.actions, entity.AuditActionTransfer)
	assert.True(t, amount("40.25").Equal(f.limiter.used[alice.ID]))
}

func TestTransferResolvesRecipientByAccountNumber(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "10.00")
	bob := f.state.addUser("Bob", "USD", "0")
	account := f.state.wallets[bob.ID].AccountNumber

	_, err := f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
		Recipient: strings.ToLower(account),
		Amount:    amount("10"),
	})
	require.NoError(t, err)

	assert.True(t, f.state.balance(alice.ID).IsZero())
	assert.True(t, amount("10").Equal(f.state.balance(bob.ID)))
}

func TestTransferRejectsBeforeTouchingTheLedger(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "100.00")
	bob := f.state.addUser("Bob", "USD", "0")
	eve := f.state.addUser("Eve", "EUR", "0")
	mallory := f.state.addUser("Mallory", "USD", "0")
	f.state.users[mallory.ID].IsActive = false

	tests := []struct {
		name      string
		recipient string
		amount    string
		want      error
	}{
		{"zero amount", *bob.Email, "0", ErrInvalidAmount},
		{"negative amount", *bob.Email, "-5", ErrInvalidAmount},
		{"sub-cent amount", *bob.Email, "1.001", ErrInvalidAmount},
		{"unknown recipient", "nobody@example.com", "1", ErrRecipientNotFound},
		{"inactive recipient", *mallory.Email, "1", ErrRecipientNotFound},
		{"self transfer", *alice.Email, "1", ErrSelfTransfer},
		{"other currency", *eve.Email, "1", ErrCurrencyMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
				Recipient: tt.recipient,
				Amount:    amount(tt.amount),
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, f.db.txs)
	assert.Empty(t, f.limiter.used)
	assert.True(t, amount("100").Equal(f.state.balance(alice.ID)))
}

func TestTransferRequiresLedgerIdentity(t *testing.T) {
	f := newTransferFixture(nil)

	_, err := f.usecase.Transfer(context.Background(), &dto.TransferRequest{Recipient: "x", Amount: amount("1")})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTransferInsufficientFundsReleasesLimitAndRollsBack(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "20.00")
	bob := f.state.addUser("Bob", "USD", "0")

	_, err := f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
		Recipient: *bob.Email,
		Amount:    amount("20.01"),
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, 1, f.limiter.releases)
	assert.True(t, f.limiter.used[alice.ID].IsZero())
	require.Len(t, f.db.txs, 1)
	assert.True(t, f.db.lastTx().rolledBack)
	assert.False(t, f.db.lastTx().committed)
	assert.Empty(t, f.publisher.published)
	assert.Empty(t, f.state.txs)
	assert.True(t, amount("20").Equal(f.state.balance(alice.ID)))
}

func TestTransferFailedWriteReleasesLimit(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "50.00")
	bob := f.state.addUser("Bob", "USD", "0")
	f.state.txErr = errors.New("connection reset")

	_, err := f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
		Recipient: *bob.Email,
		Amount:    amount("10"),
	})
	require.Error(t, err)

	assert.Equal(t, 1, f.limiter.releases)
	assert.True(t, f.db.lastTx().rolledBack)
	assert.Empty(t, f.publisher.published)
	assert.NotContains(t, f.audit.actions, entity.AuditActionTransfer)
}

func TestTransferDailyLimitExceeded(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "5000.00")
	bob := f.state.addUser("Bob", "USD", "0")
	ctx := ledgerCtx(alice.ID, entity.LedgerRoleUser)

	_, err := f.usecase.Transfer(ctx, &dto.TransferRequest{Recipient: *bob.Email, Amount: amount("900")})
	require.NoError(t, err)

	_, err = f.usecase.Transfer(ctx, &dto.TransferRequest{Recipient: *bob.Email, Amount: amount("100.01")})
	assert.ErrorIs(t, err, service.ErrDailyLimitExceeded)
	assert.Len(t, f.db.txs, 1)
	assert.True(t, amount("4100").Equal(f.state.balance(alice.ID)))
}

func TestInternationalTransferConvertsAndChargesFee(t *testing.T) {
	f := newTransferFixture(&fakeRates{rates: map[string]decimal.Decimal{"USD>EUR": amount("0.9137")}})
	alice := f.state.addUser("Alice", "USD", "100.00")
	carol := f.state.addUser("Carol", "EUR", "0")

	resp, err := f.usecase.InternationalTransfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
		Recipient: *carol.Email,
		Amount:    amount("50"),
	})
	require.NoError(t, err)

	// fee 1.5% of 50 = 0.75; 50 * 0.9137 = 45.685 -> 45.69
	assert.True(t, amount("49.25").Equal(f.state.balance(alice.ID)))
	assert.True(t, amount("45.69").Equal(f.state.balance(carol.ID)))
	assert.True(t, amount("49.25").Equal(resp.Balance))

	tx := resp.Transaction
	assert.Equal(t, string(entity.TransactionTypeInternational), tx.Type)
	assert.True(t, amount("0.75").Equal(tx.Fee))
	assert.True(t, amount("50").Equal(tx.Amount))
	assert.Equal(t, "USD", tx.Currency)
	require.NotNil(t, tx.TargetCurrency)
	assert.Equal(t, "EUR", *tx.TargetCurrency)
	require.NotNil(t, tx.ConvertedAmount)
	assert.True(t, amount("45.69").Equal(*tx.ConvertedAmount))
	require.NotNil(t, tx.ExchangeRate)
	assert.True(t, amount("0.9137").Equal(*tx.ExchangeRate))

	assert.Contains(t, f.audit.actions, entity.AuditActionIntlTransfer)
	// The limit tracks the amount sent, not the fee.
	assert.True(t, amount("50").Equal(f.limiter.used[alice.ID]))
}

func TestInternationalTransferFeeCountsTowardsBalance(t *testing.T) {
	f := newTransferFixture(&fakeRates{rates: map[string]decimal.Decimal{"USD>EUR": amount("0.9")}})
	alice := f.state.addUser("Alice", "USD", "100.00")
	carol := f.state.addUser("Carol", "EUR", "0")

	_, err := f.usecase.InternationalTransfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
		Recipient: *carol.Email,
		Amount:    amount("100"),
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 1, f.limiter.releases)
}

func TestInternationalTransferRateErrors(t *testing.T) {
	t.Run("unknown currency", func(t *testing.T) {
		f := newTransferFixture(&fakeRates{rates: map[string]decimal.Decimal{}})
		alice := f.state.addUser("Alice", "USD", "100.00")
		carol := f.state.addUser("Carol", "XAU", "0")

		_, err := f.usecase.InternationalTransfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
			Recipient: *carol.Email,
			Amount:    amount("10"),
		})
		assert.ErrorIs(t, err, ErrUnsupportedCurrency)
		assert.Empty(t, f.db.txs)
	})

	t.Run("upstream down", func(t *testing.T) {
		f := newTransferFixture(&fakeRates{err: service.ErrRatesUnavailable})
		alice := f.state.addUser("Alice", "USD", "100.00")
		carol := f.state.addUser("Carol", "EUR", "0")

		_, err := f.usecase.InternationalTransfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{
			Recipient: *carol.Email,
			Amount:    amount("10"),
		})
		assert.ErrorIs(t, err, ErrRatesUnavailable)
		assert.Empty(t, f.limiter.used)
	})
}

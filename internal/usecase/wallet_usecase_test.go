package usecase

import (
	"context"
	"testing"

	"medledger/internal/delivery/dto"
	"medledger/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletHistoryShowsDirectionAndHidesOthers(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "100")
	bob := f.state.addUser("Bob", "USD", "100")
	carol := f.state.addUser("Carol", "USD", "100")

	sent, err := f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{Recipient: *bob.Email, Amount: amount("10")})
	require.NoError(t, err)
	_, err = f.usecase.Transfer(ledgerCtx(bob.ID, entity.LedgerRoleUser), &dto.TransferRequest{Recipient: *alice.Email, Amount: amount("3")})
	require.NoError(t, err)

	wallets := NewWalletUsecase(f.db, quietLogger(), &fakeWalletRepo{f.state}, &fakeTransactionRepo{f.state})

	wallet, err := wallets.GetWallet(ledgerCtx(alice.ID, entity.LedgerRoleUser))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(93).Equal(wallet.Balance))
	assert.Equal(t, "USD", wallet.Currency)

	page, err := wallets.ListTransactions(ledgerCtx(alice.ID, entity.LedgerRoleUser), "", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	directions := []string{page.Items[0].Direction, page.Items[1].Direction}
	assert.ElementsMatch(t, []string{entity.DirectionIn, entity.DirectionOut}, directions)

	empty, err := wallets.ListTransactions(ledgerCtx(carol.ID, entity.LedgerRoleUser), "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.Total)

	tx, err := wallets.GetTransaction(ledgerCtx(bob.ID, entity.LedgerRoleUser), sent.Transaction.TxHash)
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIn, tx.Direction)

	_, err = wallets.GetTransaction(ledgerCtx(carol.ID, entity.LedgerRoleUser), sent.Transaction.TxHash)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = wallets.GetTransaction(ledgerCtx(alice.ID, entity.LedgerRoleUser), "0xdeadbeef")
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = wallets.GetWallet(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLedgerNotificationsFollowTransfers(t *testing.T) {
	f := newTransferFixture(nil)
	alice := f.state.addUser("Alice", "USD", "100")
	bob := f.state.addUser("Bob", "USD", "0")

	hub := &fakeSubscriber{}
	notifications := NewLedgerNotificationUsecase(f.db, quietLogger(), &fakeLedgerNotificationRepo{f.state}, hub)
	bobCtx := ledgerCtx(bob.ID, entity.LedgerRoleUser)

	feed, unsubscribe, err := notifications.Subscribe(bobCtx)
	require.NoError(t, err)
	assert.NotNil(t, feed)
	unsubscribe()
	assert.Equal(t, []int64{bob.ID}, hub.subscribed)
	assert.Equal(t, 1, hub.closed)

	_, err = f.usecase.Transfer(ledgerCtx(alice.ID, entity.LedgerRoleUser), &dto.TransferRequest{Recipient: *bob.Email, Amount: amount("1")})
	require.NoError(t, err)

	count, err := notifications.UnreadCount(bobCtx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	page, err := notifications.GetMyNotifications(bobCtx, true, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Transfer received", page.Items[0].Title)

	assert.ErrorIs(t, notifications.MarkRead(ledgerCtx(alice.ID, entity.LedgerRoleUser), page.Items[0].ID), ErrNotificationNotFound)
	require.NoError(t, notifications.MarkRead(bobCtx, page.Items[0].ID))

	marked, err := notifications.MarkAllRead(bobCtx)
	require.NoError(t, err)
	assert.Zero(t, marked)

	marked, err = notifications.MarkAllRead(ledgerCtx(alice.ID, entity.LedgerRoleUser))
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)
}

type fakeSubscriber struct {
	subscribed []int64
	closed     int
}

func (s *fakeSubscriber) Subscribe(userID int64) (<-chan entity.LedgerNotification, func()) {
	s.subscribed = append(s.subscribed, userID)
	ch := make(chan entity.LedgerNotification)
	return ch, func() { s.closed++ }
}

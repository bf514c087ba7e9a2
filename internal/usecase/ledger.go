package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/pkg/walletsig"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// accountNumberAttempts bounds retries on an account number collision.
const accountNumberAttempts = 5

// inTx runs fn in one ledger transaction, committing only when fn succeeds.
func inTx(ctx context.Context, db repository.TxBeginner, log *logrus.Logger, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		log.Warnf("Failed to begin ledger transaction: %+v", err)
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		log.Warnf("Failed commit ledger transaction: %+v", err)
		return err
	}
	return nil
}

// createWallet inserts a wallet with a fresh account number. Each attempt
// runs in a savepoint so a collision does not abort the outer transaction.
func createWallet(ctx context.Context, tx pgx.Tx, walletRepo repository.WalletRepository, wallet *entity.Wallet) error {
	for attempt := 1; ; attempt++ {
		number, err := newAccountNumber()
		if err != nil {
			return err
		}
		wallet.AccountNumber = number

		sp, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		err = walletRepo.Create(ctx, sp, wallet)
		if err == nil {
			return sp.Commit(ctx)
		}
		_ = sp.Rollback(ctx)

		if !isDuplicateKeyError(err, "account_number") || attempt >= accountNumberAttempts {
			return err
		}
	}
}

// newAccountNumber returns MW followed by 10 random digits.
func newAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000_000_000))
	if err != nil {
		return "", fmt.Errorf("generate account number: %w", err)
	}
	return fmt.Sprintf("%s%010d", entity.AccountNumberPrefix, n.Int64()), nil
}

func ledgerSubject(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// NotificationPublisher delivers committed ledger notifications to live
// subscribers.
type NotificationPublisher interface {
	Publish(notifications ...entity.LedgerNotification)
}

// notify inserts notifications inside tx, filling their ids for publishing.
func notify(ctx context.Context, q repository.DBTX, repo repository.LedgerNotificationRepository, notifications ...*entity.LedgerNotification) error {
	for _, n := range notifications {
		if err := repo.Create(ctx, q, n); err != nil {
			return err
		}
	}
	return nil
}

func derefNotifications(notifications ...*entity.LedgerNotification) []entity.LedgerNotification {
	out := make([]entity.LedgerNotification, len(notifications))
	for i, n := range notifications {
		out[i] = *n
	}
	return out
}

// systemEntry moves money between one user's wallet and the system, as
// loan disbursements, repayments and admin adjustments do.
type systemEntry struct {
	userID      int64
	credit      bool
	amount      decimal.Decimal
	txType      entity.TransactionType
	description string
}

// bookSystemEntry locks the user's wallet, applies the entry and records
// it. It returns the recorded transaction and the new balance.
func bookSystemEntry(
	ctx context.Context,
	tx pgx.Tx,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	entry systemEntry,
	at time.Time,
) (*entity.Transaction, decimal.Decimal, error) {
	wallets, err := walletRepo.LockByUserIDs(ctx, tx, entry.userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	wallet := wallets[entry.userID]
	if wallet == nil {
		return nil, decimal.Zero, ErrWalletNotFound
	}

	delta := entry.amount
	record := &entity.Transaction{
		Amount:      entry.amount,
		Currency:    wallet.Currency,
		Fee:         decimal.Zero,
		Type:        entry.txType,
		Status:      entity.TransactionStatusCompleted,
		Description: entry.description,
	}

	var senderID, receiverID int64
	if entry.credit {
		receiverID = entry.userID
		record.ReceiverID = &receiverID
	} else {
		if !wallet.CanDebit(entry.amount) {
			return nil, decimal.Zero, ErrInsufficientFunds
		}
		senderID = entry.userID
		record.SenderID = &senderID
		delta = delta.Neg()
	}

	balance, err := walletRepo.AddBalance(ctx, tx, wallet.ID, delta)
	if err != nil {
		if isCheckViolation(err, "balance") {
			return nil, decimal.Zero, ErrInsufficientFunds
		}
		return nil, decimal.Zero, err
	}

	if record.TxHash, err = walletsig.TxHash(senderID, receiverID, entry.amount.StringFixed(2), wallet.Currency, at); err != nil {
		return nil, decimal.Zero, err
	}
	if err := txRepo.Create(ctx, tx, record); err != nil {
		return nil, decimal.Zero, err
	}

	return record, balance, nil
}

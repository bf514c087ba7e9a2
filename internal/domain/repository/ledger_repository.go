package repository

import (
	"context"
	"time"

	"medledger/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is implemented by *pgxpool.Pool and pgx.Tx, so ledger repositories
// run either standalone or inside a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts ledger transactions.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type LedgerUserRepository interface {
	Create(ctx context.Context, q DBTX, user *entity.LedgerUser) error
	FindByID(ctx context.Context, q DBTX, id int64) (*entity.LedgerUser, error)
	FindByEmail(ctx context.Context, q DBTX, email string) (*entity.LedgerUser, error)
	FindByWalletAddress(ctx context.Context, q DBTX, address string) (*entity.LedgerUser, error)
	// FindByRecipient resolves an email, account number or wallet address.
	FindByRecipient(ctx context.Context, q DBTX, identifier string) (*entity.LedgerUser, error)
	List(ctx context.Context, q DBTX, filter entity.LedgerUserFilter) ([]entity.LedgerUser, int64, error)
	SetActive(ctx context.Context, q DBTX, id int64, active bool) (int64, error)
	Count(ctx context.Context, q DBTX) (total, active int64, err error)
}

type WalletRepository interface {
	Create(ctx context.Context, q DBTX, wallet *entity.Wallet) error
	FindByUserID(ctx context.Context, q DBTX, userID int64) (*entity.Wallet, error)
	// LockByUserIDs locks the wallets of the given users FOR UPDATE in
	// ascending wallet id order and returns them keyed by user id.
	LockByUserIDs(ctx context.Context, q DBTX, userIDs ...int64) (map[int64]*entity.Wallet, error)
	AddBalance(ctx context.Context, q DBTX, walletID int64, delta decimal.Decimal) (decimal.Decimal, error)
	BalancesByCurrency(ctx context.Context, q DBTX) ([]entity.CurrencyBalance, error)
}

// OutgoingTotal is the amount a user sent since a point in time.
type OutgoingTotal struct {
	UserID int64
	Total  decimal.Decimal
}

type TransactionRepository interface {
	Create(ctx context.Context, q DBTX, tx *entity.Transaction) error
	FindByHash(ctx context.Context, q DBTX, hash string) (*entity.Transaction, error)
	List(ctx context.Context, q DBTX, filter entity.TransactionFilter) ([]entity.Transaction, int64, error)
	OutgoingSince(ctx context.Context, q DBTX, since time.Time) ([]OutgoingTotal, error)
	Summary(ctx context.Context, q DBTX, since time.Time) ([]entity.CurrencyVolume, error)
}

type LoanRepository interface {
	Create(ctx context.Context, q DBTX, loan *entity.LoanRequest) error
	FindByID(ctx context.Context, q DBTX, id int64) (*entity.LoanRequest, error)
	FindByIDForUpdate(ctx context.Context, q DBTX, id int64) (*entity.LoanRequest, error)
	List(ctx context.Context, q DBTX, filter entity.LoanFilter) ([]entity.LoanRequest, int64, error)
	Review(ctx context.Context, q DBTX, loan *entity.LoanRequest) error
	RecordRepayment(ctx context.Context, q DBTX, loan *entity.LoanRequest) error
	CountPending(ctx context.Context, q DBTX) (int64, error)
}

type LedgerNotificationRepository interface {
	Create(ctx context.Context, q DBTX, n *entity.LedgerNotification) error
	FindByUser(ctx context.Context, q DBTX, userID int64, unreadOnly bool, limit, offset int) ([]entity.LedgerNotification, int64, error)
	MarkRead(ctx context.Context, q DBTX, id, userID int64) (int64, error)
	MarkAllRead(ctx context.Context, q DBTX, userID int64) (int64, error)
	CountUnread(ctx context.Context, q DBTX, userID int64) (int64, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type walletRepository struct{}

func NewWalletRepository() domainRepo.WalletRepository {
	return &walletRepository{}
}

func (r *walletRepository) Create(ctx context.Context, q domainRepo.DBTX, wallet *entity.Wallet) error {
	const query = `INSERT INTO ledger.wallets (user_id, account_number, balance, currency)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`

	return q.QueryRow(ctx, query, wallet.UserID, wallet.AccountNumber, wallet.Balance, wallet.Currency).
		Scan(&wallet.ID, &wallet.CreatedAt, &wallet.UpdatedAt)
}

func (r *walletRepository) FindByUserID(ctx context.Context, q domainRepo.DBTX, userID int64) (*entity.Wallet, error) {
	const query = `SELECT id, user_id, account_number, balance, currency, created_at, updated_at
FROM ledger.wallets WHERE user_id = $1`

	var w entity.Wallet
	err := q.QueryRow(ctx, query, userID).
		Scan(&w.ID, &w.UserID, &w.AccountNumber, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	return &w, nil
}

func (r *walletRepository) LockByUserIDs(ctx context.Context, q domainRepo.DBTX, userIDs ...int64) (map[int64]*entity.Wallet, error) {
	// ORDER BY id makes every transaction take row locks in the same order.
	const query = `SELECT id, user_id, account_number, balance, currency, created_at, updated_at
FROM ledger.wallets WHERE user_id = ANY($1)
ORDER BY id ASC
FOR UPDATE`

	rows, err := q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	defer rows.Close()

	wallets := make(map[int64]*entity.Wallet, len(userIDs))
	for rows.Next() {
		var w entity.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.AccountNumber, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets[w.UserID] = &w
	}
	return wallets, rows.Err()
}

func (r *walletRepository) AddBalance(ctx context.Context, q domainRepo.DBTX, walletID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	const query = `UPDATE ledger.wallets SET balance = balance + $2, updated_at = NOW()
WHERE id = $1
RETURNING balance`

	var balance decimal.Decimal
	if err := q.QueryRow(ctx, query, walletID, delta).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("update wallet balance: %w", err)
	}
	return balance, nil
}

func (r *walletRepository) BalancesByCurrency(ctx context.Context, q domainRepo.DBTX) ([]entity.CurrencyBalance, error) {
	const query = `SELECT currency, COALESCE(SUM(balance), 0), COUNT(*)
FROM ledger.wallets GROUP BY currency ORDER BY currency`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sum balances: %w", err)
	}
	defer rows.Close()

	var balances []entity.CurrencyBalance
	for rows.Next() {
		var b entity.CurrencyBalance
		if err := rows.Scan(&b.Currency, &b.Total, &b.Wallets); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

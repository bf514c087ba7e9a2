package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `t.id, t.tx_hash, t.sender_id, t.receiver_id, t.amount, t.currency,
       t.converted_amount, t.target_currency, t.exchange_rate, t.fee, t.type, t.status,
       t.description, t.created_at, COALESCE(s.full_name, ''), COALESCE(rc.full_name, '')`

const transactionJoins = `FROM ledger.transactions t
LEFT JOIN ledger.users s ON s.id = t.sender_id
LEFT JOIN ledger.users rc ON rc.id = t.receiver_id`

type transactionRepository struct{}

func NewTransactionRepository() domainRepo.TransactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(ctx context.Context, q domainRepo.DBTX, tx *entity.Transaction) error {
	const query = `INSERT INTO ledger.transactions
    (tx_hash, sender_id, receiver_id, amount, currency, converted_amount, target_currency,
     exchange_rate, fee, type, status, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at`

	if tx.Status == "" {
		tx.Status = entity.TransactionStatusCompleted
	}
	return q.QueryRow(ctx, query,
		tx.TxHash, tx.SenderID, tx.ReceiverID, tx.Amount, tx.Currency, tx.ConvertedAmount, tx.TargetCurrency,
		tx.ExchangeRate, tx.Fee, tx.Type, tx.Status, tx.Description,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *transactionRepository) FindByHash(ctx context.Context, q domainRepo.DBTX, hash string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` ` + transactionJoins + ` WHERE LOWER(t.tx_hash) = LOWER($1)`

	tx, err := scanTransaction(q.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

func (r *transactionRepository) List(ctx context.Context, q domainRepo.DBTX, filter entity.TransactionFilter) ([]entity.Transaction, int64, error) {
	where := []string{"TRUE"}
	var args []any
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("(t.sender_id = $%d OR t.receiver_id = $%d)", len(args), len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("t.type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("t.created_at < $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger.transactions t WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY t.created_at DESC, t.id DESC`, transactionColumns, transactionJoins, clause)
	// A negative limit means export: every matching row.
	if filter.Limit >= 0 {
		page, limit := entity.NormalizePage(filter.Page, filter.Limit)
		args = append(args, limit, entity.Offset(page, limit))
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []entity.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, total, rows.Err()
}

func (r *transactionRepository) OutgoingSince(ctx context.Context, q domainRepo.DBTX, since time.Time) ([]domainRepo.OutgoingTotal, error) {
	const query = `SELECT sender_id, SUM(amount)
FROM ledger.transactions
WHERE sender_id IS NOT NULL AND type IN ('transfer', 'international_transfer')
  AND status = 'completed' AND created_at >= $1
GROUP BY sender_id`

	rows, err := q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("sum outgoing transfers: %w", err)
	}
	defer rows.Close()

	var totals []domainRepo.OutgoingTotal
	for rows.Next() {
		var t domainRepo.OutgoingTotal
		if err := rows.Scan(&t.UserID, &t.Total); err != nil {
			return nil, fmt.Errorf("scan outgoing total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *transactionRepository) Summary(ctx context.Context, q domainRepo.DBTX, since time.Time) ([]entity.CurrencyVolume, error) {
	const query = `SELECT currency, COUNT(*), COALESCE(SUM(amount), 0)
FROM ledger.transactions
WHERE created_at >= $1
GROUP BY currency
ORDER BY currency`

	rows, err := q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	defer rows.Close()

	var volumes []entity.CurrencyVolume
	for rows.Next() {
		var v entity.CurrencyVolume
		if err := rows.Scan(&v.Currency, &v.Transactions, &v.Volume); err != nil {
			return nil, fmt.Errorf("scan transaction summary: %w", err)
		}
		v.Currency = strings.TrimSpace(v.Currency)
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var tx entity.Transaction
	err := row.Scan(
		&tx.ID, &tx.TxHash, &tx.SenderID, &tx.ReceiverID, &tx.Amount, &tx.Currency,
		&tx.ConvertedAmount, &tx.TargetCurrency, &tx.ExchangeRate, &tx.Fee, &tx.Type, &tx.Status,
		&tx.Description, &tx.CreatedAt, &tx.SenderName, &tx.ReceiverName,
	)
	if err != nil {
		return nil, err
	}
	tx.Currency = strings.TrimSpace(tx.Currency)
	if tx.TargetCurrency != nil {
		trimmed := strings.TrimSpace(*tx.TargetCurrency)
		tx.TargetCurrency = &trimmed
	}
	return &tx, nil
}

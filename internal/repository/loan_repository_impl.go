package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medledger/internal/domain/entity"
	domainRepo "medledger/internal/domain/repository"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `l.id, l.user_id, l.amount, l.term_months, l.interest_rate, l.purpose, l.status,
       l.rejection_reason, l.repaid_amount, l.reviewed_by, l.reviewed_at, l.created_at, l.updated_at,
       u.full_name`

type loanRepository struct{}

func NewLoanRepository() domainRepo.LoanRepository {
	return &loanRepository{}
}

func (r *loanRepository) Create(ctx context.Context, q domainRepo.DBTX, loan *entity.LoanRequest) error {
	const query = `INSERT INTO ledger.loan_requests (user_id, amount, term_months, interest_rate, purpose, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`

	if loan.Status == "" {
		loan.Status = entity.LoanStatusPending
	}
	return q.QueryRow(ctx, query, loan.UserID, loan.Amount, loan.TermMonths, loan.InterestRate, loan.Purpose, loan.Status).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
}

func (r *loanRepository) FindByID(ctx context.Context, q domainRepo.DBTX, id int64) (*entity.LoanRequest, error) {
	return r.findOne(ctx, q, `WHERE l.id = $1`, id)
}

func (r *loanRepository) FindByIDForUpdate(ctx context.Context, q domainRepo.DBTX, id int64) (*entity.LoanRequest, error) {
	return r.findOne(ctx, q, `WHERE l.id = $1 FOR UPDATE OF l`, id)
}

func (r *loanRepository) findOne(ctx context.Context, q domainRepo.DBTX, where string, args ...any) (*entity.LoanRequest, error) {
	query := `SELECT ` + loanColumns + ` FROM ledger.loan_requests l JOIN ledger.users u ON u.id = l.user_id ` + where

	loan, err := scanLoan(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find loan request: %w", err)
	}
	return loan, nil
}

func (r *loanRepository) List(ctx context.Context, q domainRepo.DBTX, filter entity.LoanFilter) ([]entity.LoanRequest, int64, error) {
	where := []string{"TRUE"}
	var args []any
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("l.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("l.status = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger.loan_requests l WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count loan requests: %w", err)
	}

	page, limit := entity.NormalizePage(filter.Page, filter.Limit)
	args = append(args, limit, entity.Offset(page, limit))
	query := fmt.Sprintf(`SELECT %s FROM ledger.loan_requests l JOIN ledger.users u ON u.id = l.user_id
WHERE %s ORDER BY l.created_at DESC, l.id DESC LIMIT $%d OFFSET $%d`, loanColumns, clause, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list loan requests: %w", err)
	}
	defer rows.Close()

	var loans []entity.LoanRequest
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan loan request: %w", err)
		}
		loans = append(loans, *loan)
	}
	return loans, total, rows.Err()
}

func (r *loanRepository) Review(ctx context.Context, q domainRepo.DBTX, loan *entity.LoanRequest) error {
	const query = `UPDATE ledger.loan_requests
SET status = $2, interest_rate = $3, rejection_reason = $4, reviewed_by = $5, reviewed_at = $6, updated_at = NOW()
WHERE id = $1 AND status = 'pending'`

	tag, err := q.Exec(ctx, query, loan.ID, loan.Status, loan.InterestRate, loan.RejectionReason, loan.ReviewedBy, loan.ReviewedAt)
	if err != nil {
		return fmt.Errorf("review loan request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *loanRepository) RecordRepayment(ctx context.Context, q domainRepo.DBTX, loan *entity.LoanRequest) error {
	const query = `UPDATE ledger.loan_requests SET repaid_amount = $2, status = $3, updated_at = NOW() WHERE id = $1`

	if _, err := q.Exec(ctx, query, loan.ID, loan.RepaidAmount, loan.Status); err != nil {
		return fmt.Errorf("record loan repayment: %w", err)
	}
	return nil
}

func (r *loanRepository) CountPending(ctx context.Context, q domainRepo.DBTX) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger.loan_requests WHERE status = 'pending'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending loans: %w", err)
	}
	return count, nil
}

func scanLoan(row pgx.Row) (*entity.LoanRequest, error) {
	var loan entity.LoanRequest
	err := row.Scan(
		&loan.ID, &loan.UserID, &loan.Amount, &loan.TermMonths, &loan.InterestRate, &loan.Purpose, &loan.Status,
		&loan.RejectionReason, &loan.RepaidAmount, &loan.ReviewedBy, &loan.ReviewedAt, &loan.CreatedAt, &loan.UpdatedAt,
		&loan.UserName,
	)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

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

const ledgerUserColumns = `u.id, u.email, COALESCE(u.password_hash, ''), u.full_name, u.wallet_address,
       u.role, u.is_active, u.created_at, u.updated_at`

type ledgerUserRepository struct{}

func NewLedgerUserRepository() domainRepo.LedgerUserRepository {
	return &ledgerUserRepository{}
}

func (r *ledgerUserRepository) Create(ctx context.Context, q domainRepo.DBTX, user *entity.LedgerUser) error {
	const query = `INSERT INTO ledger.users (email, password_hash, full_name, wallet_address, role, is_active)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
RETURNING id, created_at, updated_at`

	if user.Role == "" {
		user.Role = entity.LedgerRoleUser
	}
	return q.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.FullName, user.WalletAddress, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *ledgerUserRepository) FindByID(ctx context.Context, q domainRepo.DBTX, id int64) (*entity.LedgerUser, error) {
	return r.findOne(ctx, q, `WHERE u.id = $1`, id)
}

func (r *ledgerUserRepository) FindByEmail(ctx context.Context, q domainRepo.DBTX, email string) (*entity.LedgerUser, error) {
	return r.findOne(ctx, q, `WHERE LOWER(u.email) = LOWER($1)`, email)
}

func (r *ledgerUserRepository) FindByWalletAddress(ctx context.Context, q domainRepo.DBTX, address string) (*entity.LedgerUser, error) {
	return r.findOne(ctx, q, `WHERE LOWER(u.wallet_address) = LOWER($1)`, address)
}

func (r *ledgerUserRepository) FindByRecipient(ctx context.Context, q domainRepo.DBTX, identifier string) (*entity.LedgerUser, error) {
	return r.findOne(ctx, q, `LEFT JOIN ledger.wallets w ON w.user_id = u.id
WHERE LOWER(u.email) = LOWER($1)
   OR UPPER(w.account_number) = UPPER($1)
   OR LOWER(u.wallet_address) = LOWER($1)
LIMIT 1`, strings.TrimSpace(identifier))
}

func (r *ledgerUserRepository) findOne(ctx context.Context, q domainRepo.DBTX, where string, args ...any) (*entity.LedgerUser, error) {
	query := `SELECT ` + ledgerUserColumns + ` FROM ledger.users u ` + where

	user, err := scanLedgerUser(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find ledger user: %w", err)
	}
	return user, nil
}

func (r *ledgerUserRepository) List(ctx context.Context, q domainRepo.DBTX, filter entity.LedgerUserFilter) ([]entity.LedgerUser, int64, error) {
	where := []string{"TRUE"}
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(u.email ILIKE $%d OR u.full_name ILIKE $%d OR u.wallet_address ILIKE $%d)", len(args), len(args), len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("u.is_active = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger.users u WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger users: %w", err)
	}

	page, limit := entity.NormalizePage(filter.Page, filter.Limit)
	args = append(args, limit, entity.Offset(page, limit))
	query := fmt.Sprintf(`SELECT %s FROM ledger.users u WHERE %s ORDER BY u.created_at DESC, u.id DESC LIMIT $%d OFFSET $%d`,
		ledgerUserColumns, clause, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger users: %w", err)
	}
	defer rows.Close()

	var users []entity.LedgerUser
	for rows.Next() {
		user, err := scanLedgerUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ledger user: %w", err)
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *ledgerUserRepository) SetActive(ctx context.Context, q domainRepo.DBTX, id int64, active bool) (int64, error) {
	const query = `UPDATE ledger.users SET is_active = $2, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, active)
	if err != nil {
		return 0, fmt.Errorf("set ledger user status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ledgerUserRepository) Count(ctx context.Context, q domainRepo.DBTX) (int64, int64, error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM ledger.users`

	var total, active int64
	if err := q.QueryRow(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count ledger users: %w", err)
	}
	return total, active, nil
}

func scanLedgerUser(row pgx.Row) (*entity.LedgerUser, error) {
	var user entity.LedgerUser
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.WalletAddress,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

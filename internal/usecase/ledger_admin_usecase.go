package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCannotDeactivateSelf  = errors.New("you cannot deactivate your own account")
	ErrInvalidAdjustmentType = errors.New("adjustment type must be deposit or withdrawal")
)

const (
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	transactionSheet    = "Transactions"
	transactionTimeCell = "2006-01-02 15:04:05"
)

// BackupRunner produces and delivers a database backup.
type BackupRunner interface {
	Run(ctx context.Context) (*service.BackupResult, error)
}

type LedgerAdminUsecase interface {
	GetAllUsers(ctx context.Context, search string, isActive *bool, page, limit int) (*dto.Page[dto.LedgerUserResponse], error)
	GetUser(ctx context.Context, id int64) (*dto.LedgerUserResponse, error)
	SetUserStatus(ctx context.Context, id int64, req *dto.SetUserStatusRequest) (*dto.LedgerUserResponse, error)
	AdjustWallet(ctx context.Context, userID int64, req *dto.AdjustWalletRequest) (*dto.AdjustWalletResponse, error)
	GetAllTransactions(ctx context.Context, query *dto.TransactionQuery) (*dto.Page[dto.TransactionResponse], error)
	ExportTransactions(ctx context.Context, query *dto.TransactionQuery) (*dto.ExportFile, error)
	GetStats(ctx context.Context) (*dto.LedgerStatsResponse, error)
	RunBackup(ctx context.Context) (*dto.BackupResponse, error)
}

type ledgerAdminUsecase struct {
	db               repository.TxBeginner
	log              *logrus.Logger
	userRepo         repository.LedgerUserRepository
	walletRepo       repository.WalletRepository
	txRepo           repository.TransactionRepository
	loanRepo         repository.LoanRepository
	notificationRepo repository.LedgerNotificationRepository
	tokenStore       service.TokenStore
	publisher        NotificationPublisher
	backup           BackupRunner
	auditService     service.AuditService
	now              func() time.Time
}

// NewLedgerAdminUsecase builds the back office. backup may be nil when no
// delivery channel is configured.
func NewLedgerAdminUsecase(
	db repository.TxBeginner,
	log *logrus.Logger,
	userRepo repository.LedgerUserRepository,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	loanRepo repository.LoanRepository,
	notificationRepo repository.LedgerNotificationRepository,
	tokenStore service.TokenStore,
	publisher NotificationPublisher,
	backup BackupRunner,
	auditService service.AuditService,
) LedgerAdminUsecase {
	return &ledgerAdminUsecase{
		db:               db,
		log:              log,
		userRepo:         userRepo,
		walletRepo:       walletRepo,
		txRepo:           txRepo,
		loanRepo:         loanRepo,
		notificationRepo: notificationRepo,
		tokenStore:       tokenStore,
		publisher:        publisher,
		backup:           backup,
		auditService:     auditService,
		now:              time.Now,
	}
}

func (u *ledgerAdminUsecase) GetAllUsers(ctx context.Context, search string, isActive *bool, page, limit int) (*dto.Page[dto.LedgerUserResponse], error) {
	page, limit = entity.NormalizePage(page, limit)

	users, total, err := u.userRepo.List(ctx, u.db, entity.LedgerUserFilter{
		Search:   strings.TrimSpace(search),
		IsActive: isActive,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		u.log.Warnf("Failed to list ledger users: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.LedgerUsersToResponses(users), page, limit, total), nil
}

func (u *ledgerAdminUsecase) GetUser(ctx context.Context, id int64) (*dto.LedgerUserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find ledger user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	wallet, err := u.walletRepo.FindByUserID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find wallet: %+v", err)
		return nil, err
	}

	return converter.LedgerUserToResponse(user, wallet), nil
}

func (u *ledgerAdminUsecase) SetUserStatus(ctx context.Context, id int64, req *dto.SetUserStatusRequest) (*dto.LedgerUserResponse, error) {
	adminID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	active := *req.IsActive
	if id == adminID && !active {
		return nil, ErrCannotDeactivateSelf
	}

	affected, err := u.userRepo.SetActive(ctx, u.db, id, active)
	if err != nil {
		u.log.Warnf("Failed to set ledger user status: %+v", err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrUserNotFound
	}

	if !active {
		if err := u.tokenStore.RevokeAll(ctx, ledgerSubject(id)); err != nil {
			u.log.Warnf("Failed to revoke tokens of user %d: %+v", id, err)
			return nil, err
		}
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionUserStatusChange,
		map[string]interface{}{"user_id": id, "is_active": active})

	return u.GetUser(ctx, id)
}

func (u *ledgerAdminUsecase) AdjustWallet(ctx context.Context, userID int64, req *dto.AdjustWalletRequest) (*dto.AdjustWalletResponse, error) {
	var txType entity.TransactionType
	switch req.Type {
	case string(entity.TransactionTypeDeposit):
		txType = entity.TransactionTypeDeposit
	case string(entity.TransactionTypeWithdrawal):
		txType = entity.TransactionTypeWithdrawal
	default:
		return nil, ErrInvalidAdjustmentType
	}

	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)

	var (
		record       *entity.Transaction
		balance      decimal.Decimal
		notification *entity.LedgerNotification
	)

	err := inTx(ctx, u.db, u.log, func(tx pgx.Tx) error {
		var err error
		record, balance, err = bookSystemEntry(ctx, tx, u.walletRepo, u.txRepo, systemEntry{
			userID:      userID,
			credit:      txType == entity.TransactionTypeDeposit,
			amount:      req.Amount,
			txType:      txType,
			description: reason,
		}, u.now())
		if err != nil {
			return err
		}

		notification = adjustmentNotification(userID, record, reason)
		return notify(ctx, tx, u.notificationRepo, notification)
	})
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return nil, ErrUserNotFound
		}
		if !errors.Is(err, ErrInsufficientFunds) {
			u.log.Warnf("Failed to adjust wallet of user %d: %+v", userID, err)
		}
		return nil, err
	}

	u.publisher.Publish(*notification)

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionWalletAdjust, map[string]interface{}{
		"user_id": userID,
		"type":    req.Type,
		"amount":  req.Amount.StringFixed(2),
		"reason":  reason,
		"tx_hash": record.TxHash,
	})

	return &dto.AdjustWalletResponse{
		Transaction: converter.TransactionToResponse(record, userID),
		Balance:     balance,
	}, nil
}

func adjustmentNotification(userID int64, record *entity.Transaction, reason string) *entity.LedgerNotification {
	title, verb := "Wallet credited", "credited to"
	if record.Type == entity.TransactionTypeWithdrawal {
		title, verb = "Wallet debited", "debited from"
	}

	return &entity.LedgerNotification{
		UserID:  userID,
		Title:   title,
		Message: fmt.Sprintf("%s %s was %s your wallet: %s", record.Amount.StringFixed(2), record.Currency, verb, reason),
		Type:    entity.NotificationTypeWallet,
	}
}

func (u *ledgerAdminUsecase) GetAllTransactions(ctx context.Context, query *dto.TransactionQuery) (*dto.Page[dto.TransactionResponse], error) {
	filter := transactionFilter(query)
	filter.Page, filter.Limit = entity.NormalizePage(filter.Page, filter.Limit)

	txs, total, err := u.txRepo.List(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list transactions: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.TransactionsToResponses(txs, 0), filter.Page, filter.Limit, total), nil
}

// ExportTransactions writes every transaction matching the filters to an
// XLSX workbook. Paging is ignored.
func (u *ledgerAdminUsecase) ExportTransactions(ctx context.Context, query *dto.TransactionQuery) (*dto.ExportFile, error) {
	filter := transactionFilter(query)
	filter.Page, filter.Limit = 1, -1

	txs, _, err := u.txRepo.List(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list transactions for export: %+v", err)
		return nil, err
	}

	content, err := transactionsWorkbook(txs)
	if err != nil {
		u.log.Warnf("Failed to build transactions workbook: %+v", err)
		return nil, err
	}

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("transactions-%s.xlsx", u.now().UTC().Format("20060102-150405")),
		ContentType: xlsxContentType,
		Content:     content,
	}, nil
}

func transactionFilter(query *dto.TransactionQuery) entity.TransactionFilter {
	if query == nil {
		return entity.TransactionFilter{}
	}
	return entity.TransactionFilter{
		UserID: query.UserID,
		Type:   strings.TrimSpace(query.Type),
		Status: strings.TrimSpace(query.Status),
		From:   query.From,
		To:     query.To,
		Page:   query.Page,
		Limit:  query.Limit,
	}
}

func transactionsWorkbook(txs []entity.Transaction) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", transactionSheet); err != nil {
		return nil, err
	}

	headers := []interface{}{
		"Tx Hash", "Date", "Type", "Status", "Sender", "Receiver", "Amount", "Currency",
		"Fee", "Converted Amount", "Target Currency", "Exchange Rate", "Description",
	}
	if err := file.SetSheetRow(transactionSheet, "A1", &headers); err != nil {
		return nil, err
	}

	for i := range txs {
		tx := &txs[i]
		row := []interface{}{
			tx.TxHash,
			tx.CreatedAt.UTC().Format(transactionTimeCell),
			string(tx.Type),
			string(tx.Status),
			tx.SenderName,
			tx.ReceiverName,
			tx.Amount.InexactFloat64(),
			tx.Currency,
			tx.Fee.InexactFloat64(),
			optionalDecimal(tx.ConvertedAmount),
			optionalString(tx.TargetCurrency),
			optionalDecimal(tx.ExchangeRate),
			tx.Description,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(transactionSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (u *ledgerAdminUsecase) GetStats(ctx context.Context) (*dto.LedgerStatsResponse, error) {
	today := u.now().UTC().Truncate(24 * time.Hour)
	stats := &entity.LedgerStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalUsers, stats.ActiveUsers, err = u.userRepo.Count(gctx, u.db)
		return err
	})
	g.Go(func() (err error) {
		stats.Balances, err = u.walletRepo.BalancesByCurrency(gctx, u.db)
		return err
	})
	g.Go(func() (err error) {
		if stats.TodayVolume, err = u.txRepo.Summary(gctx, u.db, today); err != nil {
			return err
		}
		for _, v := range stats.TodayVolume {
			stats.TodayTransactions += v.Transactions
		}
		return nil
	})
	g.Go(func() (err error) {
		stats.PendingLoans, err = u.loanRepo.CountPending(gctx, u.db)
		return err
	})

	if err := g.Wait(); err != nil {
		u.log.Warnf("Failed to build ledger stats: %+v", err)
		return nil, err
	}

	return converter.LedgerStatsToResponse(stats), nil
}

func (u *ledgerAdminUsecase) RunBackup(ctx context.Context) (*dto.BackupResponse, error) {
	if u.backup == nil {
		return nil, service.ErrBackupNotConfigured
	}

	result, err := u.backup.Run(ctx)
	if err != nil {
		return nil, err
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionBackupRun,
		map[string]interface{}{"filename": result.Filename, "size_bytes": result.SizeBytes})

	return &dto.BackupResponse{
		Filename:  result.Filename,
		SizeBytes: result.SizeBytes,
		Tables:    result.Tables,
		CreatedAt: result.CreatedAt,
	}, nil
}

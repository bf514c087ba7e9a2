package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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
)

var (
	ErrLoanNotFound            = errors.New("loan request not found")
	ErrLoanPendingExists       = errors.New("you already have a pending loan request")
	ErrLoanNotPending          = errors.New("loan request has already been reviewed")
	ErrLoanNotRepayable        = errors.New("only approved loans can be repaid")
	ErrRepaymentExceedsBalance = errors.New("repayment exceeds the outstanding amount")
	ErrInvalidInterestRate     = errors.New("interest rate must be between 0 and 100")
	ErrInvalidLoanStatus       = errors.New("invalid loan status")
)

type LoanUsecase interface {
	RequestLoan(ctx context.Context, req *dto.LoanRequestRequest) (*dto.LoanResponse, error)
	GetMyLoans(ctx context.Context, page, limit int) (*dto.Page[dto.LoanResponse], error)
	RepayLoan(ctx context.Context, id int64, req *dto.RepayLoanRequest) (*dto.LoanRepaymentResponse, error)

	// Admin
	GetAllLoans(ctx context.Context, status string, page, limit int) (*dto.Page[dto.LoanResponse], error)
	ApproveLoan(ctx context.Context, id int64, req *dto.ApproveLoanRequest) (*dto.LoanResponse, error)
	RejectLoan(ctx context.Context, id int64, req *dto.RejectLoanRequest) (*dto.LoanResponse, error)
}

type loanUsecase struct {
	db                  repository.TxBeginner
	log                 *logrus.Logger
	loanRepo            repository.LoanRepository
	walletRepo          repository.WalletRepository
	txRepo              repository.TransactionRepository
	notificationRepo    repository.LedgerNotificationRepository
	publisher           NotificationPublisher
	auditService        service.AuditService
	defaultInterestRate decimal.Decimal
	now                 func() time.Time
}

func NewLoanUsecase(
	db repository.TxBeginner,
	log *logrus.Logger,
	loanRepo repository.LoanRepository,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	notificationRepo repository.LedgerNotificationRepository,
	publisher NotificationPublisher,
	auditService service.AuditService,
	defaultInterestRate decimal.Decimal,
) LoanUsecase {
	return &loanUsecase{
		db:                  db,
		log:                 log,
		loanRepo:            loanRepo,
		walletRepo:          walletRepo,
		txRepo:              txRepo,
		notificationRepo:    notificationRepo,
		publisher:           publisher,
		auditService:        auditService,
		defaultInterestRate: defaultInterestRate,
		now:                 time.Now,
	}
}

func (u *loanUsecase) RequestLoan(ctx context.Context, req *dto.LoanRequestRequest) (*dto.LoanResponse, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	loan := &entity.LoanRequest{
		UserID:       userID,
		Amount:       req.Amount,
		TermMonths:   req.TermMonths,
		InterestRate: u.defaultInterestRate,
		Purpose:      strings.TrimSpace(req.Purpose),
		Status:       entity.LoanStatusPending,
		RepaidAmount: decimal.Zero,
	}

	if err := u.loanRepo.Create(ctx, u.db, loan); err != nil {
		if isDuplicateKeyError(err, "one_pending") {
			return nil, ErrLoanPendingExists
		}
		u.log.Warnf("Failed to create loan request: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogCreate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionLoanRequest,
		"loan_request", strconv.FormatInt(loan.ID, 10), loan)

	return converter.LoanToResponse(loan), nil
}

func (u *loanUsecase) GetMyLoans(ctx context.Context, page, limit int) (*dto.Page[dto.LoanResponse], error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	return u.list(ctx, entity.LoanFilter{UserID: &userID, Page: page, Limit: limit})
}

func (u *loanUsecase) RepayLoan(ctx context.Context, id int64, req *dto.RepayLoanRequest) (*dto.LoanRepaymentResponse, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	var (
		loan         *entity.LoanRequest
		record       *entity.Transaction
		balance      decimal.Decimal
		notification *entity.LedgerNotification
	)

	err := inTx(ctx, u.db, u.log, func(tx pgx.Tx) error {
		var err error
		loan, err = u.loanRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if loan == nil || loan.UserID != userID {
			return ErrLoanNotFound
		}
		if loan.Status != entity.LoanStatusApproved {
			return ErrLoanNotRepayable
		}
		if req.Amount.GreaterThan(loan.Outstanding()) {
			return ErrRepaymentExceedsBalance
		}

		record, balance, err = bookSystemEntry(ctx, tx, u.walletRepo, u.txRepo, systemEntry{
			userID:      userID,
			amount:      req.Amount,
			txType:      entity.TransactionTypeLoanRepayment,
			description: fmt.Sprintf("Repayment of loan #%d", loan.ID),
		}, u.now())
		if err != nil {
			return err
		}

		loan.RepaidAmount = loan.RepaidAmount.Add(req.Amount)
		if loan.Outstanding().IsZero() {
			loan.Status = entity.LoanStatusRepaid
			notification = &entity.LedgerNotification{
				UserID:  userID,
				Title:   "Loan repaid",
				Message: fmt.Sprintf("Loan #%d is fully repaid.", loan.ID),
				Type:    entity.NotificationTypeLoan,
			}
		}
		if err := u.loanRepo.RecordRepayment(ctx, tx, loan); err != nil {
			return err
		}

		if notification == nil {
			return nil
		}
		return notify(ctx, tx, u.notificationRepo, notification)
	})
	if err != nil {
		if !isLoanRuleError(err) {
			u.log.Warnf("Failed to repay loan %d: %+v", id, err)
		}
		return nil, err
	}

	if notification != nil {
		u.publisher.Publish(*notification)
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionLoanRepay, map[string]interface{}{
		"loan_id": loan.ID,
		"amount":  req.Amount.StringFixed(2),
		"tx_hash": record.TxHash,
		"status":  string(loan.Status),
	})

	return &dto.LoanRepaymentResponse{
		Loan:        converter.LoanToResponse(loan),
		Transaction: converter.TransactionToResponse(record, userID),
		Balance:     balance,
	}, nil
}

func (u *loanUsecase) GetAllLoans(ctx context.Context, status string, page, limit int) (*dto.Page[dto.LoanResponse], error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch entity.LoanStatus(status) {
	case "", entity.LoanStatusPending, entity.LoanStatusApproved, entity.LoanStatusRejected, entity.LoanStatusRepaid:
	default:
		return nil, ErrInvalidLoanStatus
	}

	return u.list(ctx, entity.LoanFilter{Status: status, Page: page, Limit: limit})
}

func (u *loanUsecase) ApproveLoan(ctx context.Context, id int64, req *dto.ApproveLoanRequest) (*dto.LoanResponse, error) {
	adminID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	rate := u.defaultInterestRate
	if req.InterestRate != nil {
		rate = *req.InterestRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidInterestRate
	}

	var (
		loan         *entity.LoanRequest
		record       *entity.Transaction
		notification *entity.LedgerNotification
	)

	err := inTx(ctx, u.db, u.log, func(tx pgx.Tx) error {
		var err error
		if loan, err = u.reviewLocked(ctx, tx, id, adminID, entity.LoanStatusApproved, rate, ""); err != nil {
			return err
		}

		record, _, err = bookSystemEntry(ctx, tx, u.walletRepo, u.txRepo, systemEntry{
			userID:      loan.UserID,
			credit:      true,
			amount:      loan.Amount,
			txType:      entity.TransactionTypeLoanDisbursal,
			description: fmt.Sprintf("Disbursement of loan #%d", loan.ID),
		}, u.now())
		if err != nil {
			return err
		}

		message := fmt.Sprintf("Your loan #%d of %s was approved at %s%% interest. Total due: %s.",
			loan.ID, loan.Amount.StringFixed(2), rate.String(), loan.TotalDue().StringFixed(2))
		notification = &entity.LedgerNotification{
			UserID:  loan.UserID,
			Title:   "Loan approved",
			Message: message,
			Type:    entity.NotificationTypeLoan,
		}
		return notify(ctx, tx, u.notificationRepo, notification)
	})
	if err != nil {
		if !isLoanRuleError(err) {
			u.log.Warnf("Failed to approve loan %d: %+v", id, err)
		}
		return nil, err
	}

	u.publisher.Publish(*notification)

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionLoanApprove, map[string]interface{}{
		"loan_id":       loan.ID,
		"user_id":       loan.UserID,
		"amount":        loan.Amount.StringFixed(2),
		"interest_rate": rate.String(),
		"tx_hash":       record.TxHash,
	})

	return converter.LoanToResponse(loan), nil
}

func (u *loanUsecase) RejectLoan(ctx context.Context, id int64, req *dto.RejectLoanRequest) (*dto.LoanResponse, error) {
	adminID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	reason := strings.TrimSpace(req.Reason)

	var (
		loan         *entity.LoanRequest
		notification *entity.LedgerNotification
	)

	err := inTx(ctx, u.db, u.log, func(tx pgx.Tx) error {
		var err error
		if loan, err = u.reviewLocked(ctx, tx, id, adminID, entity.LoanStatusRejected, decimal.Zero, reason); err != nil {
			return err
		}

		notification = &entity.LedgerNotification{
			UserID:  loan.UserID,
			Title:   "Loan rejected",
			Message: fmt.Sprintf("Your loan #%d was rejected: %s", loan.ID, reason),
			Type:    entity.NotificationTypeLoan,
		}
		return notify(ctx, tx, u.notificationRepo, notification)
	})
	if err != nil {
		if !isLoanRuleError(err) {
			u.log.Warnf("Failed to reject loan %d: %+v", id, err)
		}
		return nil, err
	}

	u.publisher.Publish(*notification)

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionLoanReject, map[string]interface{}{
		"loan_id": loan.ID,
		"user_id": loan.UserID,
		"reason":  reason,
	})

	return converter.LoanToResponse(loan), nil
}

// reviewLocked moves a pending loan to its reviewed state. A rejected loan
// keeps the rate it was requested with.
func (u *loanUsecase) reviewLocked(
	ctx context.Context,
	tx pgx.Tx,
	id, adminID int64,
	status entity.LoanStatus,
	rate decimal.Decimal,
	reason string,
) (*entity.LoanRequest, error) {
	loan, err := u.loanRepo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	if !loan.IsPending() {
		return nil, ErrLoanNotPending
	}

	reviewedAt := u.now()
	loan.Status = status
	loan.ReviewedBy = &adminID
	loan.ReviewedAt = &reviewedAt
	loan.RejectionReason = reason
	if status == entity.LoanStatusApproved {
		loan.InterestRate = rate
	}

	if err := u.loanRepo.Review(ctx, tx, loan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotPending
		}
		return nil, err
	}
	return loan, nil
}

func (u *loanUsecase) list(ctx context.Context, filter entity.LoanFilter) (*dto.Page[dto.LoanResponse], error) {
	filter.Page, filter.Limit = entity.NormalizePage(filter.Page, filter.Limit)

	loans, total, err := u.loanRepo.List(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list loan requests: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.LoansToResponses(loans), filter.Page, filter.Limit, total), nil
}

func isLoanRuleError(err error) bool {
	return errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrLoanNotPending) ||
		errors.Is(err, ErrLoanNotRepayable) ||
		errors.Is(err, ErrRepaymentExceedsBalance) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrWalletNotFound)
}

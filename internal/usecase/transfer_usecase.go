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
	"medledger/pkg/walletsig"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrCurrencyMismatch    = errors.New("recipient wallet uses a different currency, use an international transfer")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrRatesUnavailable    = errors.New("exchange rates are unavailable, try again later")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

type TransferUsecase interface {
	Transfer(ctx context.Context, req *dto.TransferRequest) (*dto.TransferResponse, error)
	// InternationalTransfer converts the amount into the recipient's
	// currency and charges the sender a percentage fee on top.
	InternationalTransfer(ctx context.Context, req *dto.TransferRequest) (*dto.TransferResponse, error)
}

type transferUsecase struct {
	db               repository.TxBeginner
	log              *logrus.Logger
	userRepo         repository.LedgerUserRepository
	walletRepo       repository.WalletRepository
	txRepo           repository.TransactionRepository
	notificationRepo repository.LedgerNotificationRepository
	limiter          service.TransferLimiter
	rates            service.RateProvider
	publisher        NotificationPublisher
	auditService     service.AuditService
	feePercent       decimal.Decimal
	now              func() time.Time
}

func NewTransferUsecase(
	db repository.TxBeginner,
	log *logrus.Logger,
	userRepo repository.LedgerUserRepository,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	notificationRepo repository.LedgerNotificationRepository,
	limiter service.TransferLimiter,
	rates service.RateProvider,
	publisher NotificationPublisher,
	auditService service.AuditService,
	feePercent decimal.Decimal,
) TransferUsecase {
	return &transferUsecase{
		db:               db,
		log:              log,
		userRepo:         userRepo,
		walletRepo:       walletRepo,
		txRepo:           txRepo,
		notificationRepo: notificationRepo,
		limiter:          limiter,
		rates:            rates,
		publisher:        publisher,
		auditService:     auditService,
		feePercent:       feePercent,
		now:              time.Now,
	}
}

// transferPlan is a validated transfer ready to be booked.
type transferPlan struct {
	sender      *entity.LedgerUser
	recipient   *entity.LedgerUser
	currency    string
	amount      decimal.Decimal
	fee         decimal.Decimal
	credit      decimal.Decimal
	rate        *decimal.Decimal
	target      *string
	txType      entity.TransactionType
	description string
}

// debit is what leaves the sender's wallet.
func (p *transferPlan) debit() decimal.Decimal {
	return p.amount.Add(p.fee)
}

func (u *transferUsecase) Transfer(ctx context.Context, req *dto.TransferRequest) (*dto.TransferResponse, error) {
	plan, senderWallet, recipientWallet, err := u.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if senderWallet.Currency != recipientWallet.Currency {
		return nil, ErrCurrencyMismatch
	}

	plan.currency = senderWallet.Currency
	plan.credit = plan.amount
	plan.txType = entity.TransactionTypeTransfer

	return u.execute(ctx, plan, entity.AuditActionTransfer)
}

func (u *transferUsecase) InternationalTransfer(ctx context.Context, req *dto.TransferRequest) (*dto.TransferResponse, error) {
	plan, senderWallet, recipientWallet, err := u.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	rate, err := u.rates.Rate(ctx, senderWallet.Currency, recipientWallet.Currency)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCurrency) {
			return nil, ErrUnsupportedCurrency
		}
		u.log.Warnf("Failed to fetch exchange rate %s->%s: %+v", senderWallet.Currency, recipientWallet.Currency, err)
		return nil, ErrRatesUnavailable
	}

	target := recipientWallet.Currency
	plan.currency = senderWallet.Currency
	plan.fee = plan.amount.Mul(u.feePercent).Div(decimal.NewFromInt(100)).Round(2)
	plan.credit = plan.amount.Mul(rate).Round(2)
	plan.rate = &rate
	plan.target = &target
	plan.txType = entity.TransactionTypeInternational

	if !plan.credit.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return u.execute(ctx, plan, entity.AuditActionIntlTransfer)
}

// prepare resolves both parties and checks everything that does not need
// a lock. Balances are checked again under lock in execute.
func (u *transferUsecase) prepare(ctx context.Context, req *dto.TransferRequest) (*transferPlan, *entity.Wallet, *entity.Wallet, error) {
	senderID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, nil, nil, ErrUnauthenticated
	}

	if err := validateAmount(req.Amount); err != nil {
		return nil, nil, nil, err
	}

	sender, err := u.userRepo.FindByID(ctx, u.db, senderID)
	if err != nil {
		u.log.Warnf("Failed to find sender: %+v", err)
		return nil, nil, nil, err
	}
	if sender == nil {
		return nil, nil, nil, ErrUserNotFound
	}
	if !sender.IsActive {
		return nil, nil, nil, ErrAccountInactive
	}

	recipient, err := u.userRepo.FindByRecipient(ctx, u.db, strings.TrimSpace(req.Recipient))
	if err != nil {
		u.log.Warnf("Failed to resolve recipient: %+v", err)
		return nil, nil, nil, err
	}
	if recipient == nil || !recipient.IsActive {
		return nil, nil, nil, ErrRecipientNotFound
	}
	if recipient.ID == senderID {
		return nil, nil, nil, ErrSelfTransfer
	}

	senderWallet, err := u.walletRepo.FindByUserID(ctx, u.db, senderID)
	if err != nil {
		u.log.Warnf("Failed to find sender wallet: %+v", err)
		return nil, nil, nil, err
	}
	recipientWallet, err := u.walletRepo.FindByUserID(ctx, u.db, recipient.ID)
	if err != nil {
		u.log.Warnf("Failed to find recipient wallet: %+v", err)
		return nil, nil, nil, err
	}
	if senderWallet == nil {
		return nil, nil, nil, ErrWalletNotFound
	}
	if recipientWallet == nil {
		return nil, nil, nil, ErrRecipientNotFound
	}

	plan := &transferPlan{
		sender:      sender,
		recipient:   recipient,
		amount:      req.Amount,
		fee:         decimal.Zero,
		description: strings.TrimSpace(req.Description),
	}
	return plan, senderWallet, recipientWallet, nil
}

// execute books the plan: the daily limit is reserved first, then both
// wallets move in one transaction. Subscribers hear about it after commit.
func (u *transferUsecase) execute(ctx context.Context, plan *transferPlan, auditAction string) (*dto.TransferResponse, error) {
	senderID := plan.sender.ID

	reservation, err := u.limiter.Reserve(ctx, senderID, plan.amount)
	if err != nil {
		return nil, err
	}

	var (
		record        *entity.Transaction
		balance       decimal.Decimal
		notifications []*entity.LedgerNotification
	)

	err = inTx(ctx, u.db, u.log, func(tx pgx.Tx) error {
		wallets, err := u.walletRepo.LockByUserIDs(ctx, tx, senderID, plan.recipient.ID)
		if err != nil {
			return err
		}
		senderWallet, recipientWallet := wallets[senderID], wallets[plan.recipient.ID]
		if senderWallet == nil || recipientWallet == nil {
			return ErrRecipientNotFound
		}
		if !senderWallet.CanDebit(plan.debit()) {
			return ErrInsufficientFunds
		}

		if balance, err = u.walletRepo.AddBalance(ctx, tx, senderWallet.ID, plan.debit().Neg()); err != nil {
			return err
		}
		if _, err = u.walletRepo.AddBalance(ctx, tx, recipientWallet.ID, plan.credit); err != nil {
			return err
		}

		now := u.now()
		hash, err := walletsig.TxHash(senderID, plan.recipient.ID, plan.amount.StringFixed(2), plan.currency, now)
		if err != nil {
			return err
		}

		record = &entity.Transaction{
			TxHash:      hash,
			SenderID:    &senderID,
			ReceiverID:  &plan.recipient.ID,
			Amount:      plan.amount,
			Currency:    plan.currency,
			Fee:         plan.fee,
			Type:        plan.txType,
			Status:      entity.TransactionStatusCompleted,
			Description: plan.description,
		}
		if plan.rate != nil {
			record.ExchangeRate = plan.rate
			record.TargetCurrency = plan.target
			record.ConvertedAmount = &plan.credit
		}
		if err := u.txRepo.Create(ctx, tx, record); err != nil {
			return err
		}
		record.SenderName = plan.sender.FullName
		record.ReceiverName = plan.recipient.FullName

		notifications = transferNotifications(plan, recipientWallet.Currency)
		return notify(ctx, tx, u.notificationRepo, notifications...)
	})
	if err != nil {
		if releaseErr := u.limiter.Release(context.WithoutCancel(ctx), reservation); releaseErr != nil {
			u.log.Warnf("Failed to release transfer limit for user %d: %+v", senderID, releaseErr)
		}
		if isCheckViolation(err, "balance") {
			return nil, ErrInsufficientFunds
		}
		if !errors.Is(err, ErrInsufficientFunds) && !errors.Is(err, ErrRecipientNotFound) {
			u.log.Warnf("Failed to book transfer: %+v", err)
		}
		return nil, err
	}

	u.publisher.Publish(derefNotifications(notifications...)...)

	metadata := map[string]interface{}{
		"tx_hash":      record.TxHash,
		"receiver_id":  plan.recipient.ID,
		"amount":       plan.amount.StringFixed(2),
		"currency":     plan.currency,
		"fee":          plan.fee.StringFixed(2),
		"converted_to": plan.credit.StringFixed(2),
	}
	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), auditAction, metadata)

	return &dto.TransferResponse{
		Transaction: converter.TransactionToResponse(record, senderID),
		Balance:     balance,
	}, nil
}

func transferNotifications(plan *transferPlan, creditCurrency string) []*entity.LedgerNotification {
	sentMessage := fmt.Sprintf("You sent %s %s to %s.", plan.debit().StringFixed(2), plan.currency, plan.recipient.FullName)
	receivedMessage := fmt.Sprintf("You received %s %s from %s.", plan.credit.StringFixed(2), creditCurrency, plan.sender.FullName)

	return []*entity.LedgerNotification{
		{UserID: plan.sender.ID, Title: "Transfer sent", Message: sentMessage, Type: entity.NotificationTypeTransfer},
		{UserID: plan.recipient.ID, Title: "Transfer received", Message: receivedMessage, Type: entity.NotificationTypeTransfer},
	}
}

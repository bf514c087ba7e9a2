package usecase

import (
	"context"
	"errors"
	"strings"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type WalletUsecase interface {
	GetWallet(ctx context.Context) (*dto.WalletResponse, error)
	ListTransactions(ctx context.Context, txType string, page, limit int) (*dto.Page[dto.TransactionResponse], error)
	GetTransaction(ctx context.Context, txHash string) (*dto.TransactionResponse, error)
}

type walletUsecase struct {
	db         repository.DBTX
	log        *logrus.Logger
	walletRepo repository.WalletRepository
	txRepo     repository.TransactionRepository
}

func NewWalletUsecase(
	db repository.DBTX,
	log *logrus.Logger,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
) WalletUsecase {
	return &walletUsecase{
		db:         db,
		log:        log,
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

func (u *walletUsecase) GetWallet(ctx context.Context) (*dto.WalletResponse, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	wallet, err := u.walletRepo.FindByUserID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find wallet: %+v", err)
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	return converter.WalletToResponse(wallet), nil
}

func (u *walletUsecase) ListTransactions(ctx context.Context, txType string, page, limit int) (*dto.Page[dto.TransactionResponse], error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	page, limit = entity.NormalizePage(page, limit)
	txs, total, err := u.txRepo.List(ctx, u.db, entity.TransactionFilter{
		UserID: &userID,
		Type:   strings.TrimSpace(txType),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		u.log.Warnf("Failed to list transactions: %+v", err)
		return nil, err
	}

	return dto.NewPage(converter.TransactionsToResponses(txs, userID), page, limit, total), nil
}

func (u *walletUsecase) GetTransaction(ctx context.Context, txHash string) (*dto.TransactionResponse, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	tx, err := u.txRepo.FindByHash(ctx, u.db, strings.ToLower(strings.TrimSpace(txHash)))
	if err != nil {
		u.log.Warnf("Failed to find transaction: %+v", err)
		return nil, err
	}
	// Someone else's transaction is indistinguishable from a missing one
	if tx == nil || !tx.IsParty(userID) {
		return nil, ErrTransactionNotFound
	}

	return converter.TransactionToResponse(tx, userID), nil
}

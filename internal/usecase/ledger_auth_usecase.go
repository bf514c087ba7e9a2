package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"
	"medledger/pkg/jwt"
	"medledger/pkg/walletsig"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidWalletAddress = errors.New("invalid wallet address")
	ErrWalletNonceExpired   = errors.New("login message expired or was never requested")
	ErrInvalidWalletSig     = errors.New("signature does not match wallet")
	ErrWalletNotFound       = errors.New("wallet not found")
)

type LedgerAuthUsecase interface {
	Register(ctx context.Context, req *dto.LedgerRegisterRequest) (*dto.LedgerUserResponse, error)
	Login(ctx context.Context, req *dto.LedgerLoginRequest) (*dto.LedgerSessionResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context) (*dto.LedgerUserResponse, error)
	WalletNonce(ctx context.Context, req *dto.WalletNonceRequest) (*dto.WalletNonceResponse, error)
	// WalletLogin verifies a personal_sign signature over the issued message
	// and signs in the wallet's user, creating it on first login.
	WalletLogin(ctx context.Context, req *dto.WalletLoginRequest) (*dto.LedgerSessionResponse, error)
}

type ledgerAuthUsecase struct {
	db              repository.TxBeginner
	log             *logrus.Logger
	userRepo        repository.LedgerUserRepository
	walletRepo      repository.WalletRepository
	nonceStore      service.NonceStore
	auditService    service.AuditService
	sessions        *sessionIssuer
	defaultCurrency string
	now             func() time.Time
}

func NewLedgerAuthUsecase(
	db repository.TxBeginner,
	log *logrus.Logger,
	userRepo repository.LedgerUserRepository,
	walletRepo repository.WalletRepository,
	jwtService *jwt.JWTService,
	tokenStore service.TokenStore,
	nonceStore service.NonceStore,
	auditService service.AuditService,
	defaultCurrency string,
) LedgerAuthUsecase {
	return &ledgerAuthUsecase{
		db:           db,
		log:          log,
		userRepo:     userRepo,
		walletRepo:   walletRepo,
		nonceStore:   nonceStore,
		auditService: auditService,
		sessions: &sessionIssuer{
			realm:      jwt.RealmLedger,
			log:        log,
			jwtService: jwtService,
			tokenStore: tokenStore,
		},
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

func (u *ledgerAuthUsecase) Register(ctx context.Context, req *dto.LedgerRegisterRequest) (*dto.LedgerUserResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := &entity.LedgerUser{
		Email:        &email,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         entity.LedgerRoleUser,
		IsActive:     true,
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = u.defaultCurrency
	}

	wallet, err := u.createUserWithWallet(ctx, user, currency)
	if err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	actor := entity.Actor{Realm: entity.RealmLedger, ID: ledgerSubject(user.ID), IP: middleware.GetClientIP(ctx)}
	_ = u.auditService.LogEvent(ctx, actor, entity.AuditActionLedgerRegister,
		map[string]interface{}{"email": email, "account_number": wallet.AccountNumber})

	return converter.LedgerUserToResponse(user, wallet), nil
}

func (u *ledgerAuthUsecase) Login(ctx context.Context, req *dto.LedgerLoginRequest) (*dto.LedgerSessionResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, u.db, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find ledger user by email: %+v", err)
		return nil, err
	}
	// Wallet-only accounts have no password
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := u.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	actor := entity.Actor{Realm: entity.RealmLedger, ID: ledgerSubject(user.ID), IP: middleware.GetClientIP(ctx)}
	_ = u.auditService.LogEvent(ctx, actor, entity.AuditActionLedgerLogin, nil)

	return session, nil
}

func (u *ledgerAuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	if err := u.sessions.logout(ctx, refreshToken); err != nil {
		u.log.Warnf("Failed to logout ledger user: %+v", err)
		return err
	}
	return nil
}

func (u *ledgerAuthUsecase) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := u.sessions.consumeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := u.userRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find ledger user: %+v", err)
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidToken
	}

	return u.sessions.issue(ctx, ledgerIdentity(user))
}

func (u *ledgerAuthUsecase) GetCurrentUser(ctx context.Context) (*dto.LedgerUserResponse, error) {
	userID, ok := middleware.GetLedgerUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	user, err := u.userRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find ledger user: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	wallet, err := u.walletRepo.FindByUserID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find wallet: %+v", err)
		return nil, err
	}

	return converter.LedgerUserToResponse(user, wallet), nil
}

func (u *ledgerAuthUsecase) WalletNonce(ctx context.Context, req *dto.WalletNonceRequest) (*dto.WalletNonceResponse, error) {
	address, err := walletsig.NormalizeAddress(req.Address)
	if err != nil {
		return nil, ErrInvalidWalletAddress
	}

	nonce, err := walletsig.NewNonce()
	if err != nil {
		u.log.Warnf("Failed to generate wallet nonce: %+v", err)
		return nil, err
	}

	issuedAt := u.now()
	message := walletsig.LoginMessage(address, nonce, issuedAt)
	if err := u.nonceStore.Put(ctx, address, message); err != nil {
		return nil, err
	}

	return &dto.WalletNonceResponse{
		Address:   address,
		Message:   message,
		ExpiresAt: issuedAt.Add(service.WalletNonceTTL).UTC(),
	}, nil
}

func (u *ledgerAuthUsecase) WalletLogin(ctx context.Context, req *dto.WalletLoginRequest) (*dto.LedgerSessionResponse, error) {
	address, err := walletsig.NormalizeAddress(req.Address)
	if err != nil {
		return nil, ErrInvalidWalletAddress
	}

	// One attempt per message: a failed signature burns the nonce too
	message, err := u.nonceStore.Consume(ctx, address)
	if err != nil {
		return nil, err
	}
	if message == "" {
		return nil, ErrWalletNonceExpired
	}

	if err := walletsig.Verify(address, message, req.Signature); err != nil {
		return nil, ErrInvalidWalletSig
	}

	user, err := u.userRepo.FindByWalletAddress(ctx, u.db, address)
	if err != nil {
		u.log.Warnf("Failed to find ledger user by wallet: %+v", err)
		return nil, err
	}

	if user == nil {
		user = &entity.LedgerUser{
			FullName:      shortAddress(address),
			WalletAddress: &address,
			Role:          entity.LedgerRoleUser,
			IsActive:      true,
		}
		if _, err := u.createUserWithWallet(ctx, user, u.defaultCurrency); err != nil {
			// Lost a race with a concurrent first login of the same wallet
			if !isDuplicateKeyError(err, "wallet_address") {
				return nil, err
			}
			if user, err = u.userRepo.FindByWalletAddress(ctx, u.db, address); err != nil || user == nil {
				return nil, errors.Join(ErrUserNotFound, err)
			}
		}
	}

	session, err := u.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	actor := entity.Actor{Realm: entity.RealmLedger, ID: ledgerSubject(user.ID), IP: middleware.GetClientIP(ctx)}
	_ = u.auditService.LogEvent(ctx, actor, entity.AuditActionWalletLogin, map[string]interface{}{"wallet_address": address})

	return session, nil
}

func (u *ledgerAuthUsecase) startSession(ctx context.Context, user *entity.LedgerUser) (*dto.LedgerSessionResponse, error) {
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	wallet, err := u.walletRepo.FindByUserID(ctx, u.db, user.ID)
	if err != nil {
		u.log.Warnf("Failed to find wallet: %+v", err)
		return nil, err
	}

	tokens, err := u.sessions.issue(ctx, ledgerIdentity(user))
	if err != nil {
		return nil, err
	}

	return &dto.LedgerSessionResponse{
		User:   converter.LedgerUserToResponse(user, wallet),
		Tokens: tokens,
	}, nil
}

// createUserWithWallet inserts the user and its wallet atomically.
func (u *ledgerAuthUsecase) createUserWithWallet(ctx context.Context, user *entity.LedgerUser, currency string) (*entity.Wallet, error) {
	wallet := &entity.Wallet{Currency: currency}

	err := inTx(ctx, u.db, u.log, func(tx pgx.Tx) error {
		if err := u.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		wallet.UserID = user.ID
		return createWallet(ctx, tx, u.walletRepo, wallet)
	})
	if err != nil {
		if !isDuplicateKeyError(err, "email") && !isDuplicateKeyError(err, "wallet_address") {
			u.log.Warnf("Failed to create ledger user: %+v", err)
		}
		return nil, err
	}

	return wallet, nil
}

func ledgerIdentity(user *entity.LedgerUser) jwt.Identity {
	id := jwt.Identity{
		Subject: ledgerSubject(user.ID),
		Realm:   jwt.RealmLedger,
		Role:    user.Role,
	}
	if user.Email != nil {
		id.Email = *user.Email
	}
	return id
}

// shortAddress labels wallet-only accounts, e.g. 0x71C7…976F.
func shortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"medledger/config"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/pkg/jwt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNonceStore struct {
	mu       sync.Mutex
	messages map[string]string
}

func (s *fakeNonceStore) Put(_ context.Context, address, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		s.messages = make(map[string]string)
	}
	s.messages[address] = message
	return nil
}

func (s *fakeNonceStore) Consume(_ context.Context, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message := s.messages[address]
	delete(s.messages, address)
	return message, nil
}

func testJWTService() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		Issuer:        "medledger-test",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	})
}

type ledgerAuthFixture struct {
	state   *ledgerState
	db      *fakeDB
	tokens  *fakeTokenStore
	nonces  *fakeNonceStore
	audit   *fakeAudit
	usecase LedgerAuthUsecase
}

func newLedgerAuthFixture() *ledgerAuthFixture {
	f := &ledgerAuthFixture{
		state:  newLedgerState(),
		db:     &fakeDB{},
		tokens: newFakeTokenStore(),
		nonces: &fakeNonceStore{},
		audit:  &fakeAudit{},
	}
	f.usecase = NewLedgerAuthUsecase(
		f.db,
		quietLogger(),
		&fakeLedgerUserRepo{f.state},
		&fakeWalletRepo{f.state},
		testJWTService(),
		f.tokens,
		f.nonces,
		f.audit,
		"USD",
	)
	return f
}

func TestLedgerRegisterCreatesUserWithWallet(t *testing.T) {
	f := newLedgerAuthFixture()

	user, err := f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
		FullName: "Alice",
		Currency: "eur",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, entity.LedgerRoleUser, user.Role)
	require.NotNil(t, user.Wallet)
	assert.Equal(t, "EUR", user.Wallet.Currency)
	assert.Regexp(t, `^MW\d{10}$`, user.Wallet.AccountNumber)
	assert.True(t, user.Wallet.Balance.IsZero())
	assert.True(t, f.db.lastTx().committed)
	assert.Contains(t, f.audit.actions, entity.AuditActionLedgerRegister)

	_, err = f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "alice@example.com",
		Password: "another-pass",
		FullName: "Alice Again",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.True(t, f.db.lastTx().rolledBack)
}

func TestLedgerRegisterRetriesAccountNumberCollision(t *testing.T) {
	f := newLedgerAuthFixture()
	f.state.accountN = 2

	user, err := f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "bob@example.com",
		Password: "s3cret-pass",
		FullName: "Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", user.Wallet.Currency)

	tx := f.db.lastTx()
	require.Len(t, tx.savepoints, 3)
	assert.True(t, tx.savepoints[0].rolledBack)
	assert.True(t, tx.savepoints[1].rolledBack)
	assert.True(t, tx.savepoints[2].committed)
	assert.True(t, tx.committed)
}

func TestLedgerRegisterGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newLedgerAuthFixture()
	f.state.accountN = accountNumberAttempts

	_, err := f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "carol@example.com",
		Password: "s3cret-pass",
		FullName: "Carol",
	})
	require.Error(t, err)
	assert.True(t, isDuplicateKeyError(err, "account_number"))
	assert.True(t, f.db.lastTx().rolledBack)
}

func TestLedgerLoginAndRefresh(t *testing.T) {
	f := newLedgerAuthFixture()
	_, err := f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "dana@example.com",
		Password: "s3cret-pass",
		FullName: "Dana",
	})
	require.NoError(t, err)

	_, err = f.usecase.Login(context.Background(), &dto.LedgerLoginRequest{Email: "dana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.usecase.Login(context.Background(), &dto.LedgerLoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := f.usecase.Login(context.Background(), &dto.LedgerLoginRequest{Email: " DANA@example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotNil(t, session.User.Wallet)
	assert.Equal(t, 2, f.tokens.count())

	claims, err := testJWTService().ValidateToken(session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwt.RealmLedger, claims.Realm)
	assert.Equal(t, ledgerSubject(session.User.ID), claims.Subject)

	rotated, err := f.usecase.RefreshToken(context.Background(), session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.Tokens.RefreshToken, rotated.RefreshToken)

	_, err = f.usecase.RefreshToken(context.Background(), session.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked, "a refresh token is single use")

	_, err = f.usecase.RefreshToken(context.Background(), session.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLedgerLoginRejectsInactiveUser(t *testing.T) {
	f := newLedgerAuthFixture()
	user, err := f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "erin@example.com",
		Password: "s3cret-pass",
		FullName: "Erin",
	})
	require.NoError(t, err)
	f.state.users[user.ID].IsActive = false

	_, err = f.usecase.Login(context.Background(), &dto.LedgerLoginRequest{Email: "erin@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Zero(t, f.tokens.count())
}

func TestLedgerLogoutRevokesBothTokens(t *testing.T) {
	f := newLedgerAuthFixture()
	_, err := f.usecase.Register(context.Background(), &dto.LedgerRegisterRequest{
		Email:    "finn@example.com",
		Password: "s3cret-pass",
		FullName: "Finn",
	})
	require.NoError(t, err)
	session, err := f.usecase.Login(context.Background(), &dto.LedgerLoginRequest{Email: "finn@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := testJWTService().ValidateToken(session.Tokens.AccessToken)
	require.NoError(t, err)
	ctx := middleware.WithIdentity(context.Background(), claims.Identity(), claims.TokenID)

	require.NoError(t, f.usecase.Logout(ctx, session.Tokens.RefreshToken))
	assert.Zero(t, f.tokens.count())
}

// signLogin signs message the way a browser wallet's personal_sign does.
func signLogin(t *testing.T, message string) (address, signature string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestWalletLoginCreatesUserOnFirstSignIn(t *testing.T) {
	f := newLedgerAuthFixture()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sign := func(message string) string {
		sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
		require.NoError(t, err)
		sig[crypto.RecoveryIDOffset] += 27
		return hexutil.Encode(sig)
	}

	nonce, err := f.usecase.WalletNonce(context.Background(), &dto.WalletNonceRequest{Address: address})
	require.NoError(t, err)
	assert.Equal(t, address, nonce.Address)
	assert.Contains(t, nonce.Message, address)
	assert.True(t, nonce.ExpiresAt.After(time.Now()))

	session, err := f.usecase.WalletLogin(context.Background(), &dto.WalletLoginRequest{Address: address, Signature: sign(nonce.Message)})
	require.NoError(t, err)
	assert.Equal(t, address, session.User.WalletAddress)
	assert.Empty(t, session.User.Email)
	require.NotNil(t, session.User.Wallet)
	assert.Equal(t, "USD", session.User.Wallet.Currency)
	assert.Contains(t, f.audit.actions, entity.AuditActionWalletLogin)

	// Replaying the same signature fails: the nonce is gone.
	_, err = f.usecase.WalletLogin(context.Background(), &dto.WalletLoginRequest{Address: address, Signature: sign(nonce.Message)})
	assert.ErrorIs(t, err, ErrWalletNonceExpired)

	// A second sign-in finds the same account.
	nonce, err = f.usecase.WalletNonce(context.Background(), &dto.WalletNonceRequest{Address: address})
	require.NoError(t, err)
	again, err := f.usecase.WalletLogin(context.Background(), &dto.WalletLoginRequest{Address: address, Signature: sign(nonce.Message)})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
}

func TestWalletLoginRejectsForeignSignature(t *testing.T) {
	f := newLedgerAuthFixture()
	victim, _ := signLogin(t, "unused")

	nonce, err := f.usecase.WalletNonce(context.Background(), &dto.WalletNonceRequest{Address: victim})
	require.NoError(t, err)

	_, forged := signLogin(t, nonce.Message)
	_, err = f.usecase.WalletLogin(context.Background(), &dto.WalletLoginRequest{Address: victim, Signature: forged})
	assert.ErrorIs(t, err, ErrInvalidWalletSig)
	assert.Empty(t, f.state.users)

	_, err = f.usecase.WalletNonce(context.Background(), &dto.WalletNonceRequest{Address: "0x123"})
	assert.ErrorIs(t, err, ErrInvalidWalletAddress)
}

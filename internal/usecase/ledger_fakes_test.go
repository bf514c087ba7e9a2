package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"
	"medledger/pkg/jwt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func ledgerCtx(userID int64, role string) context.Context {
	id := jwt.Identity{Subject: strconv.FormatInt(userID, 10), Realm: jwt.RealmLedger, Role: role}
	return middleware.WithIdentity(context.Background(), id, "access-"+id.Subject)
}

func pgError(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

// fakeTx stands in for a pgx transaction. Repositories are fakes too, so
// only the transaction control methods are ever called.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	savepoints []*fakeTx
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	sp := &fakeTx{}
	t.savepoints = append(t.savepoints, sp)
	return sp, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	repository.DBTX
	txs      []*fakeTx
	beginErr error
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	tx := &fakeTx{}
	d.txs = append(d.txs, tx)
	return tx, nil
}

func (d *fakeDB) lastTx() *fakeTx {
	if len(d.txs) == 0 {
		return nil
	}
	return d.txs[len(d.txs)-1]
}

// ledgerState is the in-memory ledger shared by the fake repositories.
type ledgerState struct {
	mu       sync.Mutex
	users    map[int64]*entity.LedgerUser
	wallets  map[int64]*entity.Wallet // by user id
	txs      []*entity.Transaction
	loans    map[int64]*entity.LoanRequest
	notes    []*entity.LedgerNotification
	nextID   int64
	txErr    error
	accountN int // pending account number collisions
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		users:   make(map[int64]*entity.LedgerUser),
		wallets: make(map[int64]*entity.Wallet),
		loans:   make(map[int64]*entity.LoanRequest),
	}
}

func (s *ledgerState) id() int64 {
	s.nextID++
	return s.nextID
}

// addUser seeds an active user with a wallet.
func (s *ledgerState) addUser(name, currency, balance string) *entity.LedgerUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	email := strings.ToLower(name) + "@example.com"
	user := &entity.LedgerUser{ID: id, Email: &email, FullName: name, Role: entity.LedgerRoleUser, IsActive: true}
	s.users[id] = user
	s.wallets[id] = &entity.Wallet{
		ID:            id * 100,
		UserID:        id,
		AccountNumber: fmt.Sprintf("MW%010d", id),
		Balance:       decimal.RequireFromString(balance),
		Currency:      currency,
	}
	return user
}

func (s *ledgerState) balance(userID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[userID].Balance
}

type fakeLedgerUserRepo struct{ s *ledgerState }

func (r *fakeLedgerUserRepo) Create(_ context.Context, _ repository.DBTX, user *entity.LedgerUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return pgError("23505", "users_email_key")
		}
		if user.WalletAddress != nil && u.WalletAddress != nil && *u.WalletAddress == *user.WalletAddress {
			return pgError("23505", "users_wallet_address_key")
		}
	}
	user.ID = r.s.id()
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *fakeLedgerUserRepo) FindByID(_ context.Context, _ repository.DBTX, id int64) (*entity.LedgerUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeLedgerUserRepo) find(match func(*entity.LedgerUser) bool) *entity.LedgerUser {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			copied := *u
			return &copied
		}
	}
	return nil
}

func (r *fakeLedgerUserRepo) FindByEmail(_ context.Context, _ repository.DBTX, email string) (*entity.LedgerUser, error) {
	return r.find(func(u *entity.LedgerUser) bool { return u.Email != nil && *u.Email == email }), nil
}

func (r *fakeLedgerUserRepo) FindByWalletAddress(_ context.Context, _ repository.DBTX, address string) (*entity.LedgerUser, error) {
	return r.find(func(u *entity.LedgerUser) bool { return u.WalletAddress != nil && *u.WalletAddress == address }), nil
}

func (r *fakeLedgerUserRepo) FindByRecipient(_ context.Context, _ repository.DBTX, identifier string) (*entity.LedgerUser, error) {
	r.s.mu.Lock()
	accounts := make(map[string]int64, len(r.s.wallets))
	for userID, w := range r.s.wallets {
		accounts[w.AccountNumber] = userID
	}
	r.s.mu.Unlock()

	return r.find(func(u *entity.LedgerUser) bool {
		if u.Email != nil && strings.EqualFold(*u.Email, identifier) {
			return true
		}
		if u.WalletAddress != nil && strings.EqualFold(*u.WalletAddress, identifier) {
			return true
		}
		owner, ok := accounts[strings.ToUpper(identifier)]
		return ok && owner == u.ID
	}), nil
}

func (r *fakeLedgerUserRepo) List(_ context.Context, _ repository.DBTX, _ entity.LedgerUserFilter) ([]entity.LedgerUser, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.LedgerUser
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLedgerUserRepo) SetActive(_ context.Context, _ repository.DBTX, id int64, active bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return 0, nil
	}
	u.IsActive = active
	return 1, nil
}

func (r *fakeLedgerUserRepo) Count(context.Context, repository.DBTX) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var active int64
	for _, u := range r.s.users {
		if u.IsActive {
			active++
		}
	}
	return int64(len(r.s.users)), active, nil
}

type fakeWalletRepo struct{ s *ledgerState }

func (r *fakeWalletRepo) Create(_ context.Context, _ repository.DBTX, wallet *entity.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.accountN > 0 {
		r.s.accountN--
		return pgError("23505", "wallets_account_number_key")
	}
	wallet.ID = r.s.id()
	copied := *wallet
	r.s.wallets[wallet.UserID] = &copied
	return nil
}

func (r *fakeWalletRepo) FindByUserID(_ context.Context, _ repository.DBTX, userID int64) (*entity.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w, ok := r.s.wallets[userID]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeWalletRepo) LockByUserIDs(_ context.Context, _ repository.DBTX, userIDs ...int64) (map[int64]*entity.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int64]*entity.Wallet, len(userIDs))
	for _, id := range userIDs {
		if w, ok := r.s.wallets[id]; ok {
			copied := *w
			out[id] = &copied
		}
	}
	return out, nil
}

func (r *fakeWalletRepo) AddBalance(_ context.Context, _ repository.DBTX, walletID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.ID != walletID {
			continue
		}
		next := w.Balance.Add(delta)
		if next.IsNegative() {
			return decimal.Zero, pgError("23514", "wallets_balance_non_negative")
		}
		w.Balance = next
		return next, nil
	}
	return decimal.Zero, pgx.ErrNoRows
}

func (r *fakeWalletRepo) BalancesByCurrency(context.Context, repository.DBTX) ([]entity.CurrencyBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := map[string]*entity.CurrencyBalance{}
	for _, w := range r.s.wallets {
		b, ok := totals[w.Currency]
		if !ok {
			b = &entity.CurrencyBalance{Currency: w.Currency}
			totals[w.Currency] = b
		}
		b.Total = b.Total.Add(w.Balance)
		b.Wallets++
	}
	var out []entity.CurrencyBalance
	for _, b := range totals {
		out = append(out, *b)
	}
	return out, nil
}

type fakeTransactionRepo struct{ s *ledgerState }

func (r *fakeTransactionRepo) Create(_ context.Context, _ repository.DBTX, tx *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.txErr != nil {
		return r.s.txErr
	}
	tx.ID = r.s.id()
	tx.CreatedAt = time.Now()
	copied := *tx
	r.s.txs = append(r.s.txs, &copied)
	return nil
}

func (r *fakeTransactionRepo) FindByHash(_ context.Context, _ repository.DBTX, hash string) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.txs {
		if strings.EqualFold(tx.TxHash, hash) {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) List(_ context.Context, _ repository.DBTX, filter entity.TransactionFilter) ([]entity.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Transaction
	for _, tx := range r.s.txs {
		if filter.UserID != nil && !tx.IsParty(*filter.UserID) {
			continue
		}
		if filter.Type != "" && string(tx.Type) != filter.Type {
			continue
		}
		out = append(out, *tx)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTransactionRepo) OutgoingSince(context.Context, repository.DBTX, time.Time) ([]repository.OutgoingTotal, error) {
	return nil, nil
}

func (r *fakeTransactionRepo) Summary(context.Context, repository.DBTX, time.Time) ([]entity.CurrencyVolume, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byCurrency := map[string]*entity.CurrencyVolume{}
	var order []string
	for _, tx := range r.s.txs {
		v, ok := byCurrency[tx.Currency]
		if !ok {
			v = &entity.CurrencyVolume{Currency: tx.Currency}
			byCurrency[tx.Currency] = v
			order = append(order, tx.Currency)
		}
		v.Transactions++
		v.Volume = v.Volume.Add(tx.Amount)
	}
	sort.Strings(order)
	out := make([]entity.CurrencyVolume, len(order))
	for i, currency := range order {
		out[i] = *byCurrency[currency]
	}
	return out, nil
}

type fakeLoanRepo struct{ s *ledgerState }

func (r *fakeLoanRepo) Create(_ context.Context, _ repository.DBTX, loan *entity.LoanRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.loans {
		if l.UserID == loan.UserID && l.IsPending() {
			return pgError("23505", "loan_requests_one_pending_idx")
		}
	}
	loan.ID = r.s.id()
	copied := *loan
	r.s.loans[loan.ID] = &copied
	return nil
}

func (r *fakeLoanRepo) FindByID(_ context.Context, _ repository.DBTX, id int64) (*entity.LoanRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.loans[id]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeLoanRepo) FindByIDForUpdate(ctx context.Context, q repository.DBTX, id int64) (*entity.LoanRequest, error) {
	return r.FindByID(ctx, q, id)
}

func (r *fakeLoanRepo) List(_ context.Context, _ repository.DBTX, filter entity.LoanFilter) ([]entity.LoanRequest, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.LoanRequest
	for _, l := range r.s.loans {
		if filter.UserID != nil && l.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && string(l.Status) != filter.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLoanRepo) Review(_ context.Context, _ repository.DBTX, loan *entity.LoanRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.loans[loan.ID]
	if !ok || !stored.IsPending() {
		return pgx.ErrNoRows
	}
	copied := *loan
	r.s.loans[loan.ID] = &copied
	return nil
}

func (r *fakeLoanRepo) RecordRepayment(_ context.Context, _ repository.DBTX, loan *entity.LoanRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *loan
	r.s.loans[loan.ID] = &copied
	return nil
}

func (r *fakeLoanRepo) CountPending(context.Context, repository.DBTX) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, l := range r.s.loans {
		if l.IsPending() {
			n++
		}
	}
	return n, nil
}

type fakeLedgerNotificationRepo struct{ s *ledgerState }

func (r *fakeLedgerNotificationRepo) Create(_ context.Context, _ repository.DBTX, n *entity.LedgerNotification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	n.CreatedAt = time.Now()
	copied := *n
	r.s.notes = append(r.s.notes, &copied)
	return nil
}

func (r *fakeLedgerNotificationRepo) FindByUser(_ context.Context, _ repository.DBTX, userID int64, unreadOnly bool, _, _ int) ([]entity.LedgerNotification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.LedgerNotification
	for _, n := range r.s.notes {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeLedgerNotificationRepo) MarkRead(_ context.Context, _ repository.DBTX, id, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notes {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeLedgerNotificationRepo) MarkAllRead(_ context.Context, _ repository.DBTX, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, note := range r.s.notes {
		if note.UserID == userID && !note.IsRead {
			note.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeLedgerNotificationRepo) CountUnread(_ context.Context, _ repository.DBTX, userID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, note := range r.s.notes {
		if note.UserID == userID && !note.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeLimiter struct {
	mu       sync.Mutex
	limit    decimal.Decimal
	used     map[int64]decimal.Decimal
	releases int
}

func newFakeLimiter(limit string) *fakeLimiter {
	return &fakeLimiter{limit: decimal.RequireFromString(limit), used: make(map[int64]decimal.Decimal)}
}

func (l *fakeLimiter) Reserve(_ context.Context, userID int64, amount decimal.Decimal) (*service.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.used[userID].Add(amount)
	if next.GreaterThan(l.limit) {
		return nil, service.ErrDailyLimitExceeded
	}
	l.used[userID] = next
	return &service.Reservation{UserID: userID, Amount: amount}, nil
}

func (l *fakeLimiter) Release(_ context.Context, reservation *service.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.used[reservation.UserID] = l.used[reservation.UserID].Sub(reservation.Amount)
	l.releases++
	return nil
}

type fakeRates struct {
	rates map[string]decimal.Decimal // "FROM>TO"
	err   error
}

func (f *fakeRates) Rates(_ context.Context, base string) (*service.RateTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	table := &service.RateTable{Base: base, Rates: map[string]decimal.Decimal{}, FetchedAt: time.Now()}
	for pair, rate := range f.rates {
		from, to, _ := strings.Cut(pair, ">")
		if from == base {
			table.Rates[to] = rate
		}
	}
	return table, nil
}

func (f *fakeRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := f.rates[from+">"+to]
	if !ok {
		return decimal.Zero, service.ErrUnknownCurrency
	}
	return rate, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []entity.LedgerNotification
}

func (p *fakePublisher) Publish(notifications ...entity.LedgerNotification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, notifications...)
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAudit) record(action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *fakeAudit) LogCreate(_ context.Context, _ entity.Actor, action string, _ string, _ string, _ interface{}) error {
	return a.record(action)
}

func (a *fakeAudit) LogUpdate(_ context.Context, _ entity.Actor, action string, _ string, _ string, _, _ interface{}) error {
	return a.record(action)
}

func (a *fakeAudit) LogDelete(_ context.Context, _ entity.Actor, action string, _ string, _ string, _ interface{}) error {
	return a.record(action)
}

func (a *fakeAudit) LogEvent(_ context.Context, _ entity.Actor, action string, _ map[string]interface{}) error {
	return a.record(action)
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]bool)}
}

func (s *fakeTokenStore) Store(_ context.Context, subject string, tokenType jwt.TokenType, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[service.TokenKey(subject, tokenType, tokenID)] = true
	return nil
}

func (s *fakeTokenStore) Exists(_ context.Context, subject string, tokenType jwt.TokenType, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[service.TokenKey(subject, tokenType, tokenID)], nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, subject string, tokenType jwt.TokenType, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, service.TokenKey(subject, tokenType, tokenID))
	return nil
}

func (s *fakeTokenStore) RevokeAll(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.tokens {
		if strings.Contains(key, ":"+subject+":") {
			delete(s.tokens, key)
		}
	}
	return nil
}

func (s *fakeTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

//go:build !integration

package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/model"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/adapter"
	"github.com/Franklin-pro/Cinemarwa-BN-sub001/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxManager runs the closure without a real transaction; the in-memory
// repositories ignore the tx handle anyway.
type memTxManager struct{}

var _ repository.TransactionManager = (*memTxManager)(nil)

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// --- payments ---

type memPaymentRepo struct {
	mu       sync.RWMutex
	store    map[string]*model.Payment
	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByReference(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.ReferenceID == ref && ref != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, finTxID, reason string, paidAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if finTxID != "" {
		p.FinTxID = finTxID
	}
	p.FailureReason = reason
	p.PaidAt = paidAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) MarkLedgerApplied(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.LedgerApplied = true
	return nil
}

func (m *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- payment events ---

type memEventRepo struct {
	mu     sync.Mutex
	events []*model.PaymentEvent
}

var _ repository.PaymentEventRepository = (*memEventRepo)(nil)

func newMemEventRepo() *memEventRepo { return &memEventRepo{} }

func (m *memEventRepo) Append(ctx context.Context, tx repository.Tx, ev *model.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.events = append(m.events, &cp)
	return nil
}

func (m *memEventRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentEvent
	for _, ev := range m.events {
		if ev.PaymentID == paymentID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- withdrawals ---

type memWithdrawalRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Withdrawal
}

var _ repository.WithdrawalRepository = (*memWithdrawalRepo)(nil)

func newMemWithdrawalRepo() *memWithdrawalRepo {
	return &memWithdrawalRepo{store: make(map[string]*model.Withdrawal)}
}

func (m *memWithdrawalRepo) Save(ctx context.Context, tx repository.Tx, w *model.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.store[w.ID] = &cp
	return nil
}

func (m *memWithdrawalRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Withdrawal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWithdrawalRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.WithdrawalStatus, referenceID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	w.Status = status
	if referenceID != "" {
		w.ReferenceID = referenceID
	}
	w.FailureReason = reason
	if status == model.WithdrawalStatusCompleted {
		now := time.Now()
		w.CompletedAt = &now
	}
	return nil
}

func (m *memWithdrawalRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Withdrawal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Withdrawal
	for _, w := range m.store {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memWithdrawalRepo) SumByPaymentAndType(ctx context.Context, tx repository.Tx, paymentID string, wt model.WithdrawalType) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, w := range m.store {
		if w.PaymentID == nil || *w.PaymentID != paymentID || w.Type != wt {
			continue
		}
		switch w.Status {
		case model.WithdrawalStatusFailed, model.WithdrawalStatusCancelled, model.WithdrawalStatusRejected:
		default:
			sum += w.AmountRWF
		}
	}
	return sum, nil
}

func (m *memWithdrawalRepo) all() []*model.Withdrawal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Withdrawal
	for _, w := range m.store {
		cp := *w
		out = append(out, &cp)
	}
	return out
}

// --- entitlements ---

type memEntitlementRepo struct {
	mu   sync.RWMutex
	rows []*model.Entitlement

	FindActiveSeriesFunc func(ctx context.Context, tx repository.Tx, userID, seriesID string) (*model.Entitlement, error)
}

var _ repository.EntitlementRepository = (*memEntitlementRepo)(nil)

func newMemEntitlementRepo() *memEntitlementRepo { return &memEntitlementRepo{} }

func (m *memEntitlementRepo) Save(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memEntitlementRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Entitlement
	for _, e := range m.rows {
		if e.PaymentID == paymentID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEntitlementRepo) FindActiveSeries(ctx context.Context, tx repository.Tx, userID, seriesID string) (*model.Entitlement, error) {
	if m.FindActiveSeriesFunc != nil {
		return m.FindActiveSeriesFunc(ctx, tx, userID, seriesID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	for _, e := range m.rows {
		if e.UserID == userID && e.SeriesID == seriesID && e.Scope == model.EntitlementScopeSeries && e.Active(now) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEntitlementRepo) FindActiveContent(ctx context.Context, tx repository.Tx, userID, contentID string) (*model.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	for _, e := range m.rows {
		if e.UserID == userID && e.ContentID == contentID && e.Active(now) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEntitlementRepo) ExtendExpiry(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.ID == id {
			if e.ExpiresAt == nil || expiresAt.After(*e.ExpiresAt) {
				exp := expiresAt
				e.ExpiresAt = &exp
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memEntitlementRepo) ExtendSeries(ctx context.Context, tx repository.Tx, userID, seriesID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.UserID == userID && e.SeriesID == seriesID {
			if e.ExpiresAt == nil || expiresAt.After(*e.ExpiresAt) {
				exp := expiresAt
				e.ExpiresAt = &exp
			}
		}
	}
	return nil
}

func (m *memEntitlementRepo) DeleteExpired(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*model.Entitlement
	var n int64
	for _, e := range m.rows {
		if e.ExpiresAt != nil && e.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.rows = kept
	return n, nil
}

// --- contents ---

type memContentRepo struct {
	mu       sync.RWMutex
	contents map[string]*model.Content
	tiers    map[string]*model.SeriesTier // key seriesID|period
}

var _ repository.ContentRepository = (*memContentRepo)(nil)

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{
		contents: make(map[string]*model.Content),
		tiers:    make(map[string]*model.SeriesTier),
	}
}

func (m *memContentRepo) add(c *model.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contents[c.ID] = &cp
}

func (m *memContentRepo) addTier(t *model.SeriesTier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tiers[t.SeriesID+"|"+string(t.Period)] = &cp
}

func (m *memContentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memContentRepo) ListApprovedEpisodes(ctx context.Context, tx repository.Tx, seriesID string) ([]*model.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Content
	for _, c := range m.contents {
		if c.SeriesID == seriesID && c.Type == model.ContentTypeEpisode && c.Approved {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memContentRepo) ListTiers(ctx context.Context, tx repository.Tx, seriesID string) ([]*model.SeriesTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.SeriesTier
	for _, t := range m.tiers {
		if t.SeriesID == seriesID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memContentRepo) FindTier(ctx context.Context, tx repository.Tx, seriesID string, period model.AccessPeriod) (*model.SeriesTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tiers[seriesID+"|"+string(period)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memContentRepo) AddRevenue(ctx context.Context, tx repository.Tx, id string, amount int64, views int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contents[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.TotalRevenueRWF += amount
	c.TotalViews += views
	return nil
}

// --- filmmaker finance ---

type memFinanceRepo struct {
	mu    sync.RWMutex
	store map[string]*model.FilmmakerFinance
}

var _ repository.FinanceRepository = (*memFinanceRepo)(nil)

func newMemFinanceRepo() *memFinanceRepo {
	return &memFinanceRepo{store: make(map[string]*model.FilmmakerFinance)}
}

func (m *memFinanceRepo) put(f *model.FilmmakerFinance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.store[f.UserID] = &cp
}

func (m *memFinanceRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.FilmmakerFinance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFinanceRepo) FindForUpdate(ctx context.Context, tx repository.Tx, userID string) (*model.FilmmakerFinance, error) {
	return m.Find(ctx, tx, userID)
}

func (m *memFinanceRepo) CreditPending(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.store[userID]
	if !ok {
		f = &model.FilmmakerFinance{UserID: userID, PayoutMethod: "mobile_money"}
		m.store[userID] = f
	}
	f.PendingBalance += amount
	f.TotalEarned += amount
	f.UpdatedAt = time.Now()
	return nil
}

func (m *memFinanceRepo) MovePendingToAvailable(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	moved := amount
	if moved > f.PendingBalance {
		moved = f.PendingBalance
	}
	f.PendingBalance -= moved
	f.AvailableBalance += moved
	f.UpdatedAt = time.Now()
	return nil
}

func (m *memFinanceRepo) DebitAvailable(ctx context.Context, tx repository.Tx, userID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.AvailableBalance < amount {
		return domain.ErrNegativeBalance
	}
	f.AvailableBalance -= amount
	f.WithdrawnBalance += amount
	f.UpdatedAt = time.Now()
	return nil
}

// --- users ---

type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, userID string, sub model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Subscription = sub
	return nil
}

// --- gateway ---

type mockGateway struct {
	mu           sync.Mutex
	seq          int
	ChargeFunc   func(ctx context.Context, req adapter.ChargeRequest) (*adapter.ChargeResult, error)
	PollFunc     func(ctx context.Context, referenceID string) (adapter.GatewayStatus, error)
	DisburseFunc func(ctx context.Context, req adapter.DisburseRequest) (*adapter.ChargeResult, error)
	Disbursed    []adapter.DisburseRequest
}

var _ adapter.MomoGateway = (*mockGateway)(nil)

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) next() string {
	g.seq++
	return fmt.Sprintf("ref-%d", g.seq)
}

func (g *mockGateway) Charge(ctx context.Context, req adapter.ChargeRequest) (*adapter.ChargeResult, error) {
	if g.ChargeFunc != nil {
		return g.ChargeFunc(ctx, req)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ref := g.next()
	return &adapter.ChargeResult{
		Success:       true,
		ReferenceID:   ref,
		FinTxID:       "fin-" + ref,
		GatewayStatus: adapter.GatewayStatusSuccessful,
	}, nil
}

func (g *mockGateway) PollStatus(ctx context.Context, referenceID string) (adapter.GatewayStatus, error) {
	if g.PollFunc != nil {
		return g.PollFunc(ctx, referenceID)
	}
	return adapter.GatewayStatusPending, nil
}

func (g *mockGateway) Disburse(ctx context.Context, req adapter.DisburseRequest) (*adapter.ChargeResult, error) {
	g.mu.Lock()
	g.Disbursed = append(g.Disbursed, req)
	g.mu.Unlock()
	if g.DisburseFunc != nil {
		return g.DisburseFunc(ctx, req)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return &adapter.ChargeResult{
		Success:       true,
		ReferenceID:   g.next(),
		GatewayStatus: adapter.GatewayStatusSuccessful,
	}, nil
}

// --- cache, translator, signer ---

type memCache struct {
	mu    sync.RWMutex
	store map[string]string
}

var _ StatusCache = (*memCache)(nil)

func newMemCache() *memCache { return &memCache{store: make(map[string]string)} }

func (c *memCache) Get(ctx context.Context, paymentID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.store[paymentID]
	return v, ok
}

func (c *memCache) Put(ctx context.Context, paymentID, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[paymentID] = status
}

type stubTranslator map[string]string

func (t stubTranslator) T(key string, args ...interface{}) string {
	if v, ok := t[key]; ok {
		return v
	}
	return key
}

type stubSigner struct{}

var _ adapter.URLSigner = (*stubSigner)(nil)

func (stubSigner) SignedURL(p *model.Payment, op adapter.SignedOp) (string, error) {
	return fmt.Sprintf("https://api.test/movies/%s/%s?token=t", op, p.ID), nil
}

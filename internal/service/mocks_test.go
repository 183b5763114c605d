package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/registration-service/internal/domain"
	"github.com/spec-kit/registration-service/internal/events"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeRegistrationRepo struct {
	mu   sync.Mutex
	regs map[string]*domain.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{regs: make(map[string]*domain.Registration)}
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	copied := *reg
	r.regs[reg.ID] = &copied
	return nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id string) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) ApplyDecision(_ context.Context, id string, status domain.RegistrationStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok || reg.Status != domain.RegistrationPending {
		return pgx.ErrNoRows
	}
	now := time.Now()
	reg.Status = status
	reg.DecisionReason = reason
	reg.DecidedAt = &now
	reg.UpdatedAt = now
	return nil
}

func (r *fakeRegistrationRepo) ListByStatus(_ context.Context, status domain.RegistrationStatus) ([]domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Registration
	for _, reg := range r.regs {
		if reg.Status == status {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) status(id string) domain.RegistrationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.regs[id]; ok {
		return reg.Status
	}
	return ""
}

type fakeAccountRepo struct {
	mu         sync.Mutex
	byEmail    map[string]*domain.Account
	patchCalls []map[string]any
	created    []*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byEmail: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	r.byEmail[account.Email] = &copied
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) PatchByEmail(_ context.Context, email string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.byEmail[email]
	if !ok {
		return pgx.ErrNoRows
	}
	if hash, ok := fields["password_hash"].(string); ok {
		account.PasswordHash = hash
	}
	r.patchCalls = append(r.patchCalls, fields)
	return nil
}

type fakeAffiliateRepo struct {
	mu          sync.Mutex
	byEmail     map[string]*domain.Affiliate
	credUpdates []string
}

func newFakeAffiliateRepo() *fakeAffiliateRepo {
	return &fakeAffiliateRepo{byEmail: make(map[string]*domain.Affiliate)}
}

func (r *fakeAffiliateRepo) GetByContactEmail(_ context.Context, email string) (*domain.Affiliate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	affiliate, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *affiliate
	return &copied, nil
}

func (r *fakeAffiliateRepo) UpdateCredential(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, affiliate := range r.byEmail {
		if affiliate.ID == id {
			affiliate.PasswordHash = passwordHash
			r.credUpdates = append(r.credUpdates, id)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, ev := range d.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type countingHasher struct {
	mu    sync.Mutex
	calls int
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return "hashed:" + plaintext, nil
}

func (h *countingHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

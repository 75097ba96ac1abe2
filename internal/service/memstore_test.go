package service_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/repository"

	"github.com/shopspring/decimal"
)

var errInjected = fmt.Errorf("%w: injected storage failure", repository.ErrTransient)

type memState struct {
	nextID    int32
	tasks     map[int32]domain.Task
	steps     map[int32][]domain.TaskStep
	wallets   map[int32]domain.WalletLedger
	recharges map[int32]domain.WalletRechargeRequest
	payments  []domain.PaymentTransaction
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:    s.nextID,
		tasks:     make(map[int32]domain.Task, len(s.tasks)),
		steps:     make(map[int32][]domain.TaskStep, len(s.steps)),
		wallets:   make(map[int32]domain.WalletLedger, len(s.wallets)),
		recharges: make(map[int32]domain.WalletRechargeRequest, len(s.recharges)),
		payments:  slices.Clone(s.payments),
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.steps {
		c.steps[k] = slices.Clone(v)
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.recharges {
		c.recharges[k] = v
	}
	return c
}

func (s *memState) id() int32 {
	s.nextID++
	return s.nextID
}

// memStore is a Transactor whose units of work run one at a time on a copy
// of the state that replaces the committed state only when fn succeeds.
type memStore struct {
	mu    sync.Mutex
	state *memState

	failMu      sync.Mutex
	failCredits int
	failInserts int
	creditErr   error
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		tasks:     map[int32]domain.Task{},
		steps:     map[int32][]domain.TaskStep{},
		wallets:   map[int32]domain.WalletLedger{},
		recharges: map[int32]domain.WalletRechargeRequest{},
	}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memUoW{store: m, st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

// snapshot returns a copy of the committed state.
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// committed runs fn against the committed state, outside any unit of work.
func (m *memStore) committed() repository.UnitOfWork {
	return &autoCommitUoW{store: m}
}

func (m *memStore) injectCreditFailures(n int) {
	m.failMu.Lock()
	m.failCredits = n
	m.failMu.Unlock()
}

// injectCreditError makes the next n credits fail with err instead of the
// default transient failure.
func (m *memStore) injectCreditError(err error, n int) {
	m.failMu.Lock()
	m.failCredits = n
	m.creditErr = err
	m.failMu.Unlock()
}

func (m *memStore) pendingCreditFailures() int {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.failCredits
}

func (m *memStore) injectInsertFailures(n int) {
	m.failMu.Lock()
	m.failInserts = n
	m.failMu.Unlock()
}

func (m *memStore) takeFailure(counter *int) bool {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	if *counter > 0 {
		*counter--
		return true
	}
	return false
}

type memUoW struct {
	store *memStore
	st    *memState
}

func (u *memUoW) Tasks() repository.TaskRepository         { return &memTasks{st: u.st} }
func (u *memUoW) Wallets() repository.WalletRepository     { return &memWallets{store: u.store, st: u.st} }
func (u *memUoW) Recharges() repository.RechargeRepository { return &memRecharges{st: u.st} }
func (u *memUoW) Payments() repository.PaymentRepository   { return &memPayments{store: u.store, st: u.st} }

// autoCommitUoW exposes repositories whose every call is its own unit of work.
type autoCommitUoW struct {
	store *memStore
}

func (a *autoCommitUoW) Tasks() repository.TaskRepository {
	return &autoTasks{a.store}
}
func (a *autoCommitUoW) Wallets() repository.WalletRepository {
	return &memWallets{store: a.store, st: a.store.state, locked: true}
}
func (a *autoCommitUoW) Recharges() repository.RechargeRepository {
	return &autoRecharges{a.store}
}
func (a *autoCommitUoW) Payments() repository.PaymentRepository {
	return &memPayments{store: a.store, st: a.store.state, locked: true}
}

type memTasks struct {
	st *memState
}

func (r *memTasks) CreateWithSteps(ctx context.Context, t *domain.Task) ([]domain.TaskStep, error) {
	now := time.Now()
	t.ID = r.st.id()
	t.Status = domain.TaskStatusPending
	t.CreatedAt, t.UpdatedAt = now, now
	r.st.tasks[t.ID] = *t

	steps := make([]domain.TaskStep, 0, domain.StepCount)
	for n := 1; n <= domain.StepCount; n++ {
		steps = append(steps, domain.TaskStep{ID: r.st.id(), TaskID: t.ID, StepNumber: n, Status: domain.StepStatusPending, CreatedAt: now})
	}
	r.st.steps[t.ID] = steps
	return slices.Clone(steps), nil
}

func (r *memTasks) GetByID(ctx context.Context, id int32) (*domain.Task, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (r *memTasks) GetForUpdate(ctx context.Context, id int32) (*domain.Task, error) {
	return r.GetByID(ctx, id)
}

func (r *memTasks) GetSteps(ctx context.Context, taskID int32) ([]domain.TaskStep, error) {
	return slices.Clone(r.st.steps[taskID]), nil
}

func (r *memTasks) UpdateStep(ctx context.Context, taskID int32, stepNumber int, f domain.StepFields) (*domain.TaskStep, error) {
	steps := r.st.steps[taskID]
	for i := range steps {
		if steps[i].StepNumber != stepNumber {
			continue
		}
		if steps[i].Status != domain.StepStatusPending {
			return nil, fmt.Errorf("step %d: %w", stepNumber, domain.ErrOutOfOrderTransition)
		}
		if stepNumber == domain.StepRefundRequested && f.Status == domain.StepStatusCompleted && f.Payload.PaymentScreenshotRef == "" {
			return nil, errors.New("check constraint violated")
		}
		steps[i].Status = f.Status
		steps[i].SubmittedByAdmin = f.SubmittedByAdmin
		steps[i].Payload = f.Payload
		steps[i].ApprovedBy = f.ApprovedBy
		steps[i].ApprovedAt = f.ApprovedAt
		steps[i].SubmittedAt = f.SubmittedAt
		s := steps[i]
		return &s, nil
	}
	return nil, fmt.Errorf("step %d: %w", stepNumber, domain.ErrOutOfOrderTransition)
}

func (r *memTasks) update(taskID int32, fn func(t *domain.Task)) error {
	t, ok := r.st.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&t)
	t.UpdatedAt = time.Now()
	r.st.tasks[taskID] = t
	return nil
}

func (r *memTasks) UpdateStatus(ctx context.Context, taskID int32, status domain.TaskStatus) error {
	return r.update(taskID, func(t *domain.Task) { t.Status = status })
}

func (r *memTasks) SetRefundRequested(ctx context.Context, taskID int32) error {
	return r.update(taskID, func(t *domain.Task) { t.RefundRequested = true })
}

func (r *memTasks) Reject(ctx context.Context, taskID int32, reason string) error {
	t, ok := r.st.tasks[taskID]
	if !ok || t.IsClosed() {
		return domain.ErrAlreadyProcessed
	}
	return r.update(taskID, func(t *domain.Task) {
		t.Status = domain.TaskStatusRejected
		t.RejectionReason = reason
	})
}

func (r *memTasks) List(ctx context.Context, f domain.TaskFilter) ([]domain.Task, int32, error) {
	var out []domain.Task
	for _, t := range r.st.tasks {
		if f.AssignedUserID > 0 && t.AssignedUserID != f.AssignedUserID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.Task) int { return int(a.ID - b.ID) })
	return out, int32(len(out)), nil
}

func (r *memTasks) CountPendingRefunds(ctx context.Context) (int32, error) {
	var n int32
	for _, t := range r.st.tasks {
		if t.RefundRequested && !t.IsClosed() {
			n++
		}
	}
	return n, nil
}

func (r *memTasks) ListCompletedIDs(ctx context.Context) ([]int32, error) {
	var ids []int32
	for id, t := range r.st.tasks {
		if t.Status == domain.TaskStatusCompleted {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// autoTasks runs each read against the committed state.
type autoTasks struct {
	store *memStore
}

func (a *autoTasks) run(fn func(r *memTasks) error) error {
	return a.store.WithinTx(context.Background(), func(uow repository.UnitOfWork) error {
		return fn(uow.Tasks().(*memTasks))
	})
}

func (a *autoTasks) CreateWithSteps(ctx context.Context, t *domain.Task) (steps []domain.TaskStep, err error) {
	err = a.run(func(r *memTasks) error { steps, err = r.CreateWithSteps(ctx, t); return err })
	return steps, err
}
func (a *autoTasks) GetByID(ctx context.Context, id int32) (t *domain.Task, err error) {
	err = a.run(func(r *memTasks) error { t, err = r.GetByID(ctx, id); return err })
	return t, err
}
func (a *autoTasks) GetForUpdate(ctx context.Context, id int32) (*domain.Task, error) {
	return a.GetByID(ctx, id)
}
func (a *autoTasks) GetSteps(ctx context.Context, taskID int32) (steps []domain.TaskStep, err error) {
	err = a.run(func(r *memTasks) error { steps, err = r.GetSteps(ctx, taskID); return err })
	return steps, err
}
func (a *autoTasks) UpdateStep(ctx context.Context, taskID int32, n int, f domain.StepFields) (s *domain.TaskStep, err error) {
	err = a.run(func(r *memTasks) error { s, err = r.UpdateStep(ctx, taskID, n, f); return err })
	return s, err
}
func (a *autoTasks) UpdateStatus(ctx context.Context, taskID int32, status domain.TaskStatus) error {
	return a.run(func(r *memTasks) error { return r.UpdateStatus(ctx, taskID, status) })
}
func (a *autoTasks) SetRefundRequested(ctx context.Context, taskID int32) error {
	return a.run(func(r *memTasks) error { return r.SetRefundRequested(ctx, taskID) })
}
func (a *autoTasks) Reject(ctx context.Context, taskID int32, reason string) error {
	return a.run(func(r *memTasks) error { return r.Reject(ctx, taskID, reason) })
}
func (a *autoTasks) List(ctx context.Context, f domain.TaskFilter) (ts []domain.Task, n int32, err error) {
	err = a.run(func(r *memTasks) error { ts, n, err = r.List(ctx, f); return err })
	return ts, n, err
}
func (a *autoTasks) CountPendingRefunds(ctx context.Context) (n int32, err error) {
	err = a.run(func(r *memTasks) error { n, err = r.CountPendingRefunds(ctx); return err })
	return n, err
}
func (a *autoTasks) ListCompletedIDs(ctx context.Context) (ids []int32, err error) {
	err = a.run(func(r *memTasks) error { ids, err = r.ListCompletedIDs(ctx); return err })
	return ids, err
}

type memWallets struct {
	store  *memStore
	st     *memState
	locked bool
}

func (r *memWallets) lock() func() {
	if !r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	r.st = r.store.state
	return r.store.mu.Unlock
}

func (r *memWallets) GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error) {
	defer r.lock()()
	return r.st.wallets[userID].Balance, nil
}

func (r *memWallets) GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error) {
	defer r.lock()()
	w := r.st.wallets[userID]
	w.UserID = userID
	return &w, nil
}

func (r *memWallets) Credit(ctx context.Context, userID int32, amount decimal.Decimal) (decimal.Decimal, error) {
	if r.store.takeFailure(&r.store.failCredits) {
		r.store.failMu.Lock()
		err := r.store.creditErr
		r.store.failMu.Unlock()
		if err == nil {
			err = errInjected
		}
		return decimal.Zero, err
	}
	defer r.lock()()
	w := r.st.wallets[userID]
	w.UserID = userID
	w.Balance = w.Balance.Add(amount)
	w.TotalCredited = w.TotalCredited.Add(amount)
	w.UpdatedAt = time.Now()
	r.st.wallets[userID] = w
	return w.Balance, nil
}

func (r *memWallets) ListLedgers(ctx context.Context) ([]domain.WalletLedger, error) {
	defer r.lock()()
	var out []domain.WalletLedger
	for _, w := range r.st.wallets {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b domain.WalletLedger) int { return int(a.UserID - b.UserID) })
	return out, nil
}

type memRecharges struct {
	st *memState
}

func (r *memRecharges) Create(ctx context.Context, req *domain.WalletRechargeRequest) error {
	req.ID = r.st.id()
	req.Status = domain.RechargeStatusPending
	req.CreatedAt = time.Now()
	r.st.recharges[req.ID] = *req
	return nil
}

func (r *memRecharges) GetByID(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error) {
	req, ok := r.st.recharges[id]
	if !ok {
		return nil, fmt.Errorf("recharge request %d: %w", id, domain.ErrNotFound)
	}
	return &req, nil
}

func (r *memRecharges) GetForUpdate(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *memRecharges) Decide(ctx context.Context, req *domain.WalletRechargeRequest) (bool, error) {
	cur, ok := r.st.recharges[req.ID]
	if !ok || cur.Status != domain.RechargeStatusPending {
		return false, nil
	}
	r.st.recharges[req.ID] = *req
	return true, nil
}

func (r *memRecharges) ListBySeller(ctx context.Context, sellerID int32, page, pageSize int32) ([]domain.WalletRechargeRequest, int32, error) {
	var out []domain.WalletRechargeRequest
	for _, req := range r.st.recharges {
		if req.SellerID == sellerID {
			out = append(out, req)
		}
	}
	return out, int32(len(out)), nil
}

func (r *memRecharges) CountPending(ctx context.Context) (int32, error) {
	var n int32
	for _, req := range r.st.recharges {
		if req.Status == domain.RechargeStatusPending {
			n++
		}
	}
	return n, nil
}

func (r *memRecharges) ListApprovedIDs(ctx context.Context) ([]int32, error) {
	var ids []int32
	for id, req := range r.st.recharges {
		if req.Status == domain.RechargeStatusApproved {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

type autoRecharges struct {
	store *memStore
}

func (a *autoRecharges) run(fn func(r *memRecharges) error) error {
	return a.store.WithinTx(context.Background(), func(uow repository.UnitOfWork) error {
		return fn(uow.Recharges().(*memRecharges))
	})
}

func (a *autoRecharges) Create(ctx context.Context, req *domain.WalletRechargeRequest) error {
	return a.run(func(r *memRecharges) error { return r.Create(ctx, req) })
}
func (a *autoRecharges) GetByID(ctx context.Context, id int32) (req *domain.WalletRechargeRequest, err error) {
	err = a.run(func(r *memRecharges) error { req, err = r.GetByID(ctx, id); return err })
	return req, err
}
func (a *autoRecharges) GetForUpdate(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error) {
	return a.GetByID(ctx, id)
}
func (a *autoRecharges) Decide(ctx context.Context, req *domain.WalletRechargeRequest) (ok bool, err error) {
	err = a.run(func(r *memRecharges) error { ok, err = r.Decide(ctx, req); return err })
	return ok, err
}
func (a *autoRecharges) ListBySeller(ctx context.Context, sellerID int32, page, pageSize int32) (out []domain.WalletRechargeRequest, n int32, err error) {
	err = a.run(func(r *memRecharges) error { out, n, err = r.ListBySeller(ctx, sellerID, page, pageSize); return err })
	return out, n, err
}
func (a *autoRecharges) CountPending(ctx context.Context) (n int32, err error) {
	err = a.run(func(r *memRecharges) error { n, err = r.CountPending(ctx); return err })
	return n, err
}
func (a *autoRecharges) ListApprovedIDs(ctx context.Context) (ids []int32, err error) {
	err = a.run(func(r *memRecharges) error { ids, err = r.ListApprovedIDs(ctx); return err })
	return ids, err
}

type memPayments struct {
	store  *memStore
	st     *memState
	locked bool
}

func (r *memPayments) lock() func() {
	if !r.locked {
		return func() {}
	}
	r.store.mu.Lock()
	r.st = r.store.state
	return r.store.mu.Unlock
}

func (r *memPayments) Insert(ctx context.Context, tx *domain.PaymentTransaction) (bool, error) {
	if r.store.takeFailure(&r.store.failInserts) {
		return false, errInjected
	}
	defer r.lock()()
	for _, p := range r.st.payments {
		if p.SourceReference == tx.SourceReference {
			return false, nil
		}
	}
	tx.ID = r.st.id()
	r.st.payments = append(r.st.payments, *tx)
	return true, nil
}

func (r *memPayments) GetByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	defer r.lock()()
	for _, p := range r.st.payments {
		if p.SourceReference == reference {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPayments) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error) {
	defer r.lock()()
	var out []domain.PaymentTransaction
	for _, p := range r.st.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, int32(len(out)), nil
}

func (r *memPayments) CountByReferencePrefix(ctx context.Context, prefix string) (map[string]int32, error) {
	defer r.lock()()
	counts := map[string]int32{}
	for _, p := range r.st.payments {
		if strings.HasPrefix(p.SourceReference, prefix) {
			counts[p.SourceReference]++
		}
	}
	return counts, nil
}

func (r *memPayments) SumByUser(ctx context.Context) (map[int32]decimal.Decimal, error) {
	defer r.lock()()
	sums := map[int32]decimal.Decimal{}
	for _, p := range r.st.payments {
		sums[p.UserID] = sums[p.UserID].Add(p.Amount)
	}
	return sums, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(evt domain.Event) {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
}

func (p *recordingPublisher) kinds() []domain.NotificationKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []domain.NotificationKind
	for _, e := range p.events {
		if e.Kind != "" {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

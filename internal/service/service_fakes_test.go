package service

import (
	"context"
	"sync"
	"time"

	"tem-backend/internal/model"
	"tem-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory collaborators for service tests. Services under test are
// constructed directly so the tests can pin the clock and run dispatched
// fan-outs synchronously.

func syncDispatch(fn func()) { fn() }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, activeFilter *bool, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		if activeFilter != nil && u.IsActive != *activeFilter {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ListActiveAdmins(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == model.RoleAdmin && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByManager(ctx context.Context, managerID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

// --- travel requests ---

type fakeTravelRepo struct {
	requests map[uuid.UUID]*model.TravelRequest
}

func newFakeTravelRepo(requests ...*model.TravelRequest) *fakeTravelRepo {
	r := &fakeTravelRepo{requests: make(map[uuid.UUID]*model.TravelRequest)}
	for _, req := range requests {
		r.requests[req.ID] = req
	}
	return r
}

func (r *fakeTravelRepo) Create(ctx context.Context, req *model.TravelRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeTravelRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TravelRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeTravelRepo) List(ctx context.Context, filter repository.RequestFilter) ([]model.TravelRequest, int64, error) {
	var out []model.TravelRequest
	for _, req := range r.requests {
		if filter.EmployeeIDs != nil && !containsID(filter.EmployeeIDs, req.EmployeeID) {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *fakeTravelRepo) ApplyReview(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	req, ok := r.requests[id]
	if !ok {
		return false, nil
	}
	if req.AdminStatus != model.StatusPending {
		return false, nil
	}
	applyReviewFields(&req.Approval, fields)
	return true, nil
}

// --- expense claims ---

type fakeExpenseRepo struct {
	claims map[uuid.UUID]*model.ExpenseClaim
}

func newFakeExpenseRepo(claims ...*model.ExpenseClaim) *fakeExpenseRepo {
	r := &fakeExpenseRepo{claims: make(map[uuid.UUID]*model.ExpenseClaim)}
	for _, c := range claims {
		r.claims[c.ID] = c
	}
	return r
}

func (r *fakeExpenseRepo) Create(ctx context.Context, claim *model.ExpenseClaim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	r.claims[claim.ID] = claim
	return nil
}

func (r *fakeExpenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ExpenseClaim, error) {
	claim, ok := r.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *claim
	return &copied, nil
}

func (r *fakeExpenseRepo) List(ctx context.Context, filter repository.RequestFilter) ([]model.ExpenseClaim, int64, error) {
	var out []model.ExpenseClaim
	for _, claim := range r.claims {
		if filter.EmployeeIDs != nil && !containsID(filter.EmployeeIDs, claim.EmployeeID) {
			continue
		}
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		out = append(out, *claim)
	}
	return out, int64(len(out)), nil
}

func (r *fakeExpenseRepo) ApplyReview(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	claim, ok := r.claims[id]
	if !ok {
		return false, nil
	}
	if claim.AdminStatus != model.StatusPending {
		return false, nil
	}
	applyReviewFields(&claim.Approval, fields)
	return true, nil
}

// applyReviewFields mirrors the column map onto the struct the way the
// guarded UPDATE would.
func applyReviewFields(a *model.Approval, fields map[string]interface{}) {
	if v, ok := fields["status"].(string); ok {
		a.Status = v
	}
	if v, ok := fields["manager_status"].(string); ok {
		a.ManagerStatus = v
	}
	if v, ok := fields["manager_reviewed_by"].(uuid.UUID); ok {
		a.ManagerReviewedBy = &v
	}
	if v, ok := fields["manager_comments"].(string); ok {
		a.ManagerComments = v
	}
	if v, ok := fields["manager_reviewed_at"].(time.Time); ok {
		a.ManagerReviewedAt = &v
	}
	if v, ok := fields["admin_status"].(string); ok {
		a.AdminStatus = v
	}
	if v, ok := fields["admin_reviewed_by"].(uuid.UUID); ok {
		a.AdminReviewedBy = &v
	}
	if v, ok := fields["admin_comments"].(string); ok {
		a.AdminComments = v
	}
	if v, ok := fields["admin_reviewed_at"].(time.Time); ok {
		a.AdminReviewedAt = &v
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// --- notifications ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	insertErr     error
}

func (r *fakeNotificationRepo) Insert(ctx context.Context, notif *model.Notification) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	r.notifications = append(r.notifications, *notif)
	return nil
}

func (r *fakeNotificationRepo) InsertBatch(ctx context.Context, notifs []model.Notification) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notifs...)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].RecipientID == recipientID {
			r.notifications[i].IsRead = true
			copied := r.notifications[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) byRecipient(recipientID uuid.UUID) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AuditLog(nil), r.entries...), int64(len(r.entries)), nil
}

// --- transactions ---

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- websocket registry ---

type fakeRegistry struct {
	mu        sync.Mutex
	connected map[uuid.UUID]bool
	pushes    []uuid.UUID
}

func newFakeRegistry(connected ...uuid.UUID) *fakeRegistry {
	r := &fakeRegistry{connected: make(map[uuid.UUID]bool)}
	for _, id := range connected {
		r.connected[id] = true
	}
	return r
}

func (r *fakeRegistry) PushIfConnected(userID uuid.UUID, payload interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connected[userID] {
		return false
	}
	r.pushes = append(r.pushes, userID)
	return true
}

// --- email ---

type fakeEmailSender struct {
	mu      sync.Mutex
	sent    []Email
	sendErr error
}

func (s *fakeEmailSender) Send(ctx context.Context, msg Email) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// --- notifier spy for submit/review services ---

type notifierCall struct {
	event    string
	related  uuid.UUID
	decision string
}

type spyNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (n *spyNotifier) TravelSubmitted(ctx context.Context, req *model.TravelRequest) {
	n.record(notifierCall{event: "travel_submitted", related: req.ID})
}

func (n *spyNotifier) ExpenseSubmitted(ctx context.Context, claim *model.ExpenseClaim) {
	n.record(notifierCall{event: "expense_submitted", related: claim.ID})
}

func (n *spyNotifier) TravelReviewed(ctx context.Context, req *model.TravelRequest, reviewer *model.User, decision, comments string) {
	n.record(notifierCall{event: "travel_reviewed", related: req.ID, decision: decision})
}

func (n *spyNotifier) ExpenseReviewed(ctx context.Context, claim *model.ExpenseClaim, reviewer *model.User, decision, comments string) {
	n.record(notifierCall{event: "expense_reviewed", related: claim.ID, decision: decision})
}

func (n *spyNotifier) UserRegistered(ctx context.Context, user *model.User) {
	n.record(notifierCall{event: "user_registered", related: user.ID})
}

func (n *spyNotifier) record(call notifierCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
}

// --- common fixtures ---

func newEmployee(manager *model.User) *model.User {
	u := &model.User{
		ID:        uuid.New(),
		Email:     "employee@example.com",
		FirstName: "Erin",
		LastName:  "Employee",
		Role:      model.RoleEmployee,
		IsActive:  true,
	}
	if manager != nil {
		u.ManagerID = &manager.ID
		u.Manager = manager
	}
	return u
}

func newManager() *model.User {
	return &model.User{
		ID:        uuid.New(),
		Email:     "manager@example.com",
		FirstName: "Mara",
		LastName:  "Manager",
		Role:      model.RoleManager,
		IsActive:  true,
	}
}

func newAdmin() *model.User {
	return &model.User{
		ID:        uuid.New(),
		Email:     "admin@example.com",
		FirstName: "Ada",
		LastName:  "Admin",
		Role:      model.RoleAdmin,
		IsActive:  true,
	}
}

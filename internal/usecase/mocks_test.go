package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveOTP(ctx context.Context, id string, rec domain.OTPRecord) error {
	args := m.Called(ctx, id, rec)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementOTPAttempts(ctx context.Context, id string, limit int) error {
	args := m.Called(ctx, id, limit)
	return args.Error(0)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

type MockRiderRepository struct {
	mock.Mock
}

func (m *MockRiderRepository) Create(ctx context.Context, r *domain.Rider) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRiderRepository) FindByID(ctx context.Context, id string) (*domain.Rider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) FindByEmail(ctx context.Context, email string) (*domain.Rider, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) SaveOTP(ctx context.Context, id string, rec domain.OTPRecord) error {
	return m.Called(ctx, id, rec).Error(0)
}

func (m *MockRiderRepository) IncrementOTPAttempts(ctx context.Context, id string, limit int) error {
	return m.Called(ctx, id, limit).Error(0)
}

func (m *MockRiderRepository) MarkVerified(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRiderRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockRiderRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *MockRiderRepository) ListByStatus(ctx context.Context, status domain.RiderStatus) ([]*domain.Rider, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) ListAvailable(ctx context.Context) ([]*domain.Rider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) SetStatus(ctx context.Context, id string, from, to domain.RiderStatus, approvedBy string) error {
	return m.Called(ctx, id, from, to, approvedBy).Error(0)
}

func (m *MockRiderRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	return m.Called(ctx, id, available).Error(0)
}

func (m *MockRiderRepository) IncrementDeliveries(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Create(ctx context.Context, d *domain.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeliveryRepository) FindByID(ctx context.Context, id string) (*domain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) FindByTrackingID(ctx context.Context, trackingID string) (*domain.Delivery, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Delivery, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Delivery, error) {
	args := m.Called(ctx, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) UpdateStatus(ctx context.Context, d *domain.Delivery, from domain.DeliveryStatus) error {
	return m.Called(ctx, d, from).Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int64) ([]*domain.Notification, error) {
	args := m.Called(ctx, recipientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

// memCounter is an in-memory CounterRepository.
type memCounter struct {
	mu  sync.Mutex
	seq map[string]int64
}

func newMemCounter() *memCounter { return &memCounter{seq: map[string]int64{}} }

func (c *memCounter) Next(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[name]++
	return c.seq[name], nil
}

// memLocations is an in-memory LocationStore.
type memLocations struct {
	mu   sync.Mutex
	last map[string]domain.RiderLocation
}

func newMemLocations() *memLocations {
	return &memLocations{last: map[string]domain.RiderLocation{}}
}

func (l *memLocations) Save(_ context.Context, loc domain.RiderLocation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[loc.RiderID] = loc
	return nil
}

func (l *memLocations) Get(_ context.Context, riderID string) (*domain.RiderLocation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loc, ok := l.last[riderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &loc, nil
}

type mail struct {
	kind string
	to   string
	code string
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []mail
	fail  error
	alert []*domain.Delivery
}

func (f *fakeMailer) record(kind, to, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, mail{kind: kind, to: to, code: code})
	return nil
}

func (f *fakeMailer) SendVerificationCode(_ context.Context, to, _, code string, _ time.Duration) error {
	return f.record("verify", to, code)
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, _, code string, _ time.Duration) error {
	return f.record("reset", to, code)
}

func (f *fakeMailer) SendWeekendDeliveryAlert(_ context.Context, d *domain.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alert = append(f.alert, d)
	return nil
}

type fakeSessions struct {
	issued  []time.Duration
	revoked []string
}

func (f *fakeSessions) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	f.issued = append(f.issued, ttl)
	return "token-" + p.Account().ID.Hex(), nil
}

func (f *fakeSessions) Revoke(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

type published struct {
	subject string
	message any
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (f *fakePublisher) Publish(_ context.Context, subject string, message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{subject: subject, message: message})
	return nil
}

func (f *fakePublisher) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.subject)
	}
	return out
}

type fakeStorage struct {
	uploaded []string
}

func (f *fakeStorage) Upload(_ context.Context, name string, _ []byte) (string, error) {
	f.uploaded = append(f.uploaded, name)
	return "https://files.example.com/" + name, nil
}

// chanFeed hands out one pre-built channel per Subscribe call.
type chanFeed struct {
	ch      chan []byte
	subject string
}

func (f *chanFeed) Subscribe(_ context.Context, subject string) (<-chan []byte, error) {
	f.subject = subject
	return f.ch, nil
}

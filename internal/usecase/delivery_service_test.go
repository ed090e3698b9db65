package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var lagos = time.FixedZone("WAT", 60*60)

type deliveryFixture struct {
	deliveries    *MockDeliveryRepository
	riders        *MockRiderRepository
	notifications *MockNotificationRepository
	counters      *memCounter
	mailer        *fakeMailer
	events        *fakePublisher
	clock         *testClock
	svc           *DeliveryService
}

func newDeliveryFixture() *deliveryFixture {
	f := &deliveryFixture{
		deliveries:    new(MockDeliveryRepository),
		riders:        new(MockRiderRepository),
		notifications: new(MockNotificationRepository),
		counters:      newMemCounter(),
		mailer:        &fakeMailer{},
		events:        &fakePublisher{},
		// Wednesday 1 May 2024, 10:00 in Lagos.
		clock: &testClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, lagos)},
	}
	log := logger.NewNop()
	f.svc = NewDeliveryService(f.deliveries, f.riders, f.counters,
		NewNotificationService(f.notifications, log), f.mailer, lagos, log,
		WithDeliveryClock(f.clock.Now),
		WithDeliveryEvents(f.events, "deliveries"),
	)
	return f
}

func deliveryRequest(zone, pickupDate string) domain.DeliveryRequest {
	var r domain.DeliveryRequest
	r.Sender.FullName = "Ada Obi"
	r.Sender.PhoneNumber = "08031234567"
	r.Sender.PickupLocation = zone
	r.Sender.Address = "1 Allen Avenue"
	r.Sender.PickupDate = pickupDate
	r.Sender.PackageDescription = "Documents"
	r.Receiver.FullName = "Tunde Bello"
	r.Receiver.PhoneNumber = "+2347012345678"
	r.Receiver.Email = "Tunde@Example.com"
	r.Receiver.DeliveryLocation = "surulere"
	return r
}

func TestDeliveryCreate_PricingAndTrackingIDs(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	f.deliveries.On("Create", mock.Anything, mock.AnythingOfType("*domain.Delivery")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Delivery).ID = primitive.NewObjectID() }).
		Return(nil)

	weekday, err := f.svc.Create(ctx, deliveryRequest("Ikeja", "01/05/2024"), "")
	require.NoError(t, err)
	assert.Equal(t, "20240501-001", weekday.TrackingID)
	assert.Equal(t, 2000.0, weekday.Price)
	assert.Equal(t, domain.DeliveryExpress, weekday.DeliveryType)
	assert.Equal(t, domain.DeliveryPending, weekday.Status)
	assert.Equal(t, "Surulere", weekday.Receiver.DeliveryLocation)
	assert.Equal(t, "tunde@example.com", weekday.Receiver.Email)
	assert.Empty(t, f.mailer.alert)

	// Pickup date does not drive the tracking prefix; today does.
	weekend, err := f.svc.Create(ctx, deliveryRequest("ikeja", "2024-05-04"), "")
	require.NoError(t, err)
	assert.Equal(t, "20240501-002", weekend.TrackingID)
	assert.Equal(t, 3000.0, weekend.Price)
	assert.Equal(t, domain.DeliveryStandard, weekend.DeliveryType)
	require.Len(t, f.mailer.alert, 1)
	assert.Equal(t, "20240501-002", f.mailer.alert[0].TrackingID)

	f.clock.Advance(24 * time.Hour)
	next, err := f.svc.Create(ctx, deliveryRequest("Mushin", "02/05/2024"), "")
	require.NoError(t, err)
	assert.Equal(t, "20240502-001", next.TrackingID)

	assert.Equal(t, []string{"deliveries.created", "deliveries.created", "deliveries.created"}, f.events.subjects())
	f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeliveryCreate_NotifiesOwner(t *testing.T) {
	f := newDeliveryFixture()
	f.deliveries.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.RecipientID == "u1" && n.Type == domain.NotificationSuccess
	})).Return(nil).Once()

	d, err := f.svc.Create(context.Background(), deliveryRequest("Ikeja", "01/05/2024"), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", d.UserID)
	f.notifications.AssertExpectations(t)
}

func TestDeliveryCreate_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *domain.DeliveryRequest)
	}{
		{name: "unknown pickup zone", mutate: func(r *domain.DeliveryRequest) { r.Sender.PickupLocation = "Abuja" }},
		{name: "unknown delivery zone", mutate: func(r *domain.DeliveryRequest) { r.Receiver.DeliveryLocation = "Kano" }},
		{name: "bad pickup date", mutate: func(r *domain.DeliveryRequest) { r.Sender.PickupDate = "next tuesday" }},
		{name: "bad phone", mutate: func(r *domain.DeliveryRequest) { r.Sender.PhoneNumber = "12345" }},
		{name: "missing receiver email", mutate: func(r *domain.DeliveryRequest) { r.Receiver.Email = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDeliveryFixture()
			req := deliveryRequest("Ikeja", "01/05/2024")
			tc.mutate(&req)

			_, err := f.svc.Create(context.Background(), req, "")
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			f.deliveries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.counters.seq)
		})
	}
}

func TestDeliveryLookups(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	d := &domain.Delivery{ID: primitive.NewObjectID(), TrackingID: "20240501-001"}
	f.deliveries.On("FindByTrackingID", mock.Anything, "20240501-001").Return(d, nil)
	f.deliveries.On("FindByTrackingID", mock.Anything, "20240501-999").Return(nil, repository.ErrNotFound)
	f.deliveries.On("ListByUser", mock.Anything, "u1").Return([]*domain.Delivery{d}, nil)

	got, err := f.svc.Track(ctx, "20240501-001")
	require.NoError(t, err)
	assert.Same(t, d, got)

	_, err = f.svc.Track(ctx, "20240501-999")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Equal(t, "Delivery not found", domain.MessageOf(err))

	list, err := f.svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func approvedRider(available bool) *domain.Rider {
	r := &domain.Rider{RiderID: "RID-001", FullName: "Tunde Bello", Status: domain.RiderApproved, IsAvailable: available}
	r.ID = primitive.NewObjectID()
	r.Verified = true
	return r
}

func pendingDelivery() *domain.Delivery {
	return &domain.Delivery{ID: primitive.NewObjectID(), TrackingID: "20240501-001", UserID: "u1", Status: domain.DeliveryPending}
}

func TestDeliveryAssignAndAdvance(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	d := pendingDelivery()
	rider := approvedRider(true)
	riderID := rider.ID.Hex()
	id := d.ID.Hex()

	f.deliveries.On("FindByID", mock.Anything, id).Return(d, nil)
	f.riders.On("FindByID", mock.Anything, riderID).Return(rider, nil)
	f.deliveries.On("UpdateStatus", mock.Anything, d, domain.DeliveryPending).Return(nil).Once()
	f.deliveries.On("UpdateStatus", mock.Anything, d, domain.DeliveryAssigned).Return(nil).Once()
	f.deliveries.On("UpdateStatus", mock.Anything, d, domain.DeliveryPickedUp).Return(nil).Once()
	f.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.riders.On("IncrementDeliveries", mock.Anything, riderID).Return(nil).Once()

	got, err := f.svc.Assign(ctx, id, riderID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryAssigned, got.Status)
	assert.Equal(t, riderID, got.RiderID)

	_, err = f.svc.AdvanceStatus(ctx, id, "someone-else", "picked_up")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.AdvanceStatus(ctx, id, riderID, "cancelled")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.svc.AdvanceStatus(ctx, id, riderID, "delivered")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "cannot skip picked_up")

	_, err = f.svc.AdvanceStatus(ctx, id, riderID, "picked_up")
	require.NoError(t, err)
	got, err = f.svc.AdvanceStatus(ctx, id, riderID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryDelivered, got.Status)

	_, err = f.svc.Cancel(ctx, id, &domain.Claims{Subject: "u1", Role: domain.RoleUser})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "delivered cannot be cancelled")

	f.deliveries.AssertExpectations(t)
	f.riders.AssertExpectations(t)
	assert.Equal(t, []string{"deliveries.status", "deliveries.status", "deliveries.status"}, f.events.subjects())
}

func TestDeliveryAssign_RiderChecks(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	d := pendingDelivery()
	busy := approvedRider(false)
	pending := approvedRider(true)
	pending.Status = domain.RiderPending

	f.deliveries.On("FindByID", mock.Anything, d.ID.Hex()).Return(d, nil)
	f.riders.On("FindByID", mock.Anything, busy.ID.Hex()).Return(busy, nil)
	f.riders.On("FindByID", mock.Anything, pending.ID.Hex()).Return(pending, nil)
	f.riders.On("FindByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Assign(ctx, d.ID.Hex(), busy.ID.Hex())
	assert.Contains(t, domain.MessageOf(err), "not available")
	_, err = f.svc.Assign(ctx, d.ID.Hex(), pending.ID.Hex())
	assert.Contains(t, domain.MessageOf(err), "not approved")
	_, err = f.svc.Assign(ctx, d.ID.Hex(), "missing")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	_, err = f.svc.Assign(ctx, d.ID.Hex(), "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	f.deliveries.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliveryAssign_ConcurrentChangeIsConflict(t *testing.T) {
	f := newDeliveryFixture()
	d := pendingDelivery()
	rider := approvedRider(true)
	f.deliveries.On("FindByID", mock.Anything, d.ID.Hex()).Return(d, nil)
	f.riders.On("FindByID", mock.Anything, rider.ID.Hex()).Return(rider, nil)
	f.deliveries.On("UpdateStatus", mock.Anything, d, domain.DeliveryPending).Return(repository.ErrUpdateFailed)

	_, err := f.svc.Assign(context.Background(), d.ID.Hex(), rider.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrStaleWrite)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestDeliveryCancel_Authorization(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		caller  *domain.Claims
		allowed bool
	}{
		{name: "owner", caller: &domain.Claims{Subject: "u1", Role: domain.RoleUser}, allowed: true},
		{name: "company", caller: &domain.Claims{Subject: "c1", Role: domain.RoleAdmin}, allowed: true},
		{name: "other user", caller: &domain.Claims{Subject: "u2", Role: domain.RoleUser}},
		{name: "rider", caller: &domain.Claims{Subject: "r1", Role: domain.RoleRider}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDeliveryFixture()
			d := pendingDelivery()
			f.deliveries.On("FindByID", mock.Anything, d.ID.Hex()).Return(d, nil)
			f.deliveries.On("UpdateStatus", mock.Anything, d, domain.DeliveryPending).Return(nil)
			f.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)

			got, err := f.svc.Cancel(ctx, d.ID.Hex(), tc.caller)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, domain.DeliveryCancelled, got.Status)
			} else {
				assert.ErrorIs(t, err, domain.ErrAccessDenied)
				f.deliveries.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/platform/metrics"
	"github.com/el-rey08/EDHF-logistics/internal/pricing"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const deliveryNotFound = "Delivery not found"

// DeliveryEvent is published on every delivery state change.
type DeliveryEvent struct {
	Event      string                `json:"event"`
	DeliveryID string                `json:"deliveryId"`
	TrackingID string                `json:"trackingId"`
	Status     domain.DeliveryStatus `json:"status"`
	UserID     string                `json:"userId,omitempty"`
	RiderID    string                `json:"riderId,omitempty"`
	At         time.Time             `json:"at"`
}

type DeliveryService struct {
	deliveries    repository.DeliveryRepository
	riders        repository.RiderRepository
	counters      repository.CounterRepository
	notifications *NotificationService
	mailer        Mailer
	events        Publisher
	subject       string
	loc           *time.Location
	now           func() time.Time
	metrics       *metrics.MetricsManager
	log           *logger.Logger
}

type DeliveryOption func(*DeliveryService)

func WithDeliveryClock(now func() time.Time) DeliveryOption {
	return func(s *DeliveryService) { s.now = now }
}

// WithDeliveryEvents publishes lifecycle events under subject ("deliveries.created", ...).
func WithDeliveryEvents(p Publisher, subject string) DeliveryOption {
	return func(s *DeliveryService) {
		s.events = p
		s.subject = subject
	}
}

func WithDeliveryMetrics(m *metrics.MetricsManager) DeliveryOption {
	return func(s *DeliveryService) { s.metrics = m }
}

// NewDeliveryService computes "today" and pickup days in loc.
func NewDeliveryService(
	deliveries repository.DeliveryRepository,
	riders repository.RiderRepository,
	counters repository.CounterRepository,
	notifications *NotificationService,
	mailer Mailer,
	loc *time.Location,
	log *logger.Logger,
	opts ...DeliveryOption,
) *DeliveryService {
	if loc == nil {
		loc = time.UTC
	}
	s := &DeliveryService{
		deliveries:    deliveries,
		riders:        riders,
		counters:      counters,
		notifications: notifications,
		mailer:        mailer,
		loc:           loc,
		now:           time.Now,
		log:           log.Named("DeliveryService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DeliveryService) emit(ctx context.Context, event string, d *domain.Delivery) {
	if s.subject == "" {
		return
	}
	publish(ctx, s.events, s.subject+"."+event, DeliveryEvent{
		Event:      event,
		DeliveryID: d.ID.Hex(),
		TrackingID: d.TrackingID,
		Status:     d.Status,
		UserID:     d.UserID,
		RiderID:    d.RiderID,
		At:         d.UpdatedAt,
	}, s.log)
}

func (s *DeliveryService) nextTrackingID(ctx context.Context, today time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, "delivery:"+pricing.DayKey(today))
	if err != nil {
		return "", domain.Dependency("Failed to allocate tracking id", err)
	}
	return pricing.TrackingID(today, seq), nil
}

// Create validates and prices a delivery request and stores it as pending.
// userID is empty for anonymous bookings.
func (s *DeliveryService) Create(ctx context.Context, req domain.DeliveryRequest, userID string) (*domain.Delivery, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.Create")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pickupZone, ok := pricing.CanonicalZone(req.Sender.PickupLocation)
	if !ok {
		return nil, domain.Validation("Invalid pickup location %q", req.Sender.PickupLocation)
	}
	dropZone, ok := pricing.CanonicalZone(req.Receiver.DeliveryLocation)
	if !ok {
		return nil, domain.Validation("Invalid delivery location %q", req.Receiver.DeliveryLocation)
	}
	pickup, err := pricing.ParsePickupDate(req.Sender.PickupDate, s.loc)
	if err != nil {
		return nil, err
	}
	quote := pricing.QuoteFor(pickupZone, pickup)

	now := s.now()
	trackingID, err := s.nextTrackingID(ctx, now.In(s.loc))
	if err != nil {
		return nil, err
	}

	d := &domain.Delivery{
		TrackingID: trackingID,
		UserID:     userID,
		Sender: domain.Sender{
			FullName:           req.Sender.FullName,
			PhoneNumber:        req.Sender.PhoneNumber,
			Email:              req.Sender.Email,
			PickupLocation:     pickupZone,
			Address:            req.Sender.Address,
			PickupDate:         pickup,
			PackageDescription: req.Sender.PackageDescription,
			PickupInstructions: req.Sender.PickupInstructions,
		},
		Receiver: domain.Receiver{
			FullName:         req.Receiver.FullName,
			PhoneNumber:      req.Receiver.PhoneNumber,
			PhoneNumber2:     req.Receiver.PhoneNumber2,
			Email:            req.Receiver.Email,
			DeliveryLocation: dropZone,
			Address:          req.Receiver.Address,
		},
		Price:        quote.Price,
		DeliveryType: quote.Type,
		Status:       domain.DeliveryPending,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, storageError(err, deliveryNotFound)
	}
	span.SetAttributes(attribute.String("delivery.tracking_id", trackingID), attribute.String("delivery.type", string(quote.Type)))
	s.metrics.DeliveryCreated(string(quote.Type))
	s.log.Info("Delivery created", zap.String("tracking_id", trackingID), zap.Float64("price", quote.Price), zap.String("type", string(quote.Type)))

	if quote.Type == domain.DeliveryStandard {
		if err := s.mailer.SendWeekendDeliveryAlert(ctx, d); err != nil {
			s.log.Error("Failed to send weekend delivery alert", zap.String("tracking_id", trackingID), zap.Error(err))
		}
	}
	s.notifications.Notify(ctx, userID, "Delivery created",
		fmt.Sprintf("Your delivery %s has been booked for %s.", trackingID, pickup.Format("02/01/2006")),
		domain.NotificationSuccess, d.ID.Hex())
	s.emit(ctx, "created", d)
	return d, nil
}

func (s *DeliveryService) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	d, err := s.deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, deliveryNotFound)
	}
	return d, nil
}

func (s *DeliveryService) Track(ctx context.Context, trackingID string) (*domain.Delivery, error) {
	d, err := s.deliveries.FindByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, storageError(err, deliveryNotFound)
	}
	return d, nil
}

func (s *DeliveryService) ListForUser(ctx context.Context, userID string) ([]*domain.Delivery, error) {
	out, err := s.deliveries.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError(err, deliveryNotFound)
	}
	return out, nil
}

func (s *DeliveryService) ListForRider(ctx context.Context, riderID string) ([]*domain.Delivery, error) {
	out, err := s.deliveries.ListByRider(ctx, riderID)
	if err != nil {
		return nil, storageError(err, deliveryNotFound)
	}
	return out, nil
}

// transition moves d to next and stores it only if nobody moved it first.
func (s *DeliveryService) transition(ctx context.Context, d *domain.Delivery, next domain.DeliveryStatus) error {
	from := d.Status
	if err := d.Transition(next, s.now().UTC()); err != nil {
		return err
	}
	if err := s.deliveries.UpdateStatus(ctx, d, from); err != nil {
		return storageError(err, deliveryNotFound)
	}
	return nil
}

// Assign gives a pending delivery to an approved, available rider.
func (s *DeliveryService) Assign(ctx context.Context, id, riderID string) (*domain.Delivery, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.Assign", trace.WithAttributes(attribute.String("delivery.id", id)))
	defer span.End()

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if riderID == "" {
		return nil, domain.Validation("Rider id is required")
	}
	rider, err := s.riders.FindByID(ctx, riderID)
	if err != nil {
		return nil, storageError(err, "Rider not found")
	}
	if !rider.CanWork() {
		return nil, domain.Validation("Rider %s is not approved", rider.RiderID)
	}
	if !rider.IsAvailable {
		return nil, domain.Validation("Rider %s is not available", rider.RiderID)
	}

	d.RiderID = rider.ID.Hex()
	if err := s.transition(ctx, d, domain.DeliveryAssigned); err != nil {
		return nil, err
	}
	s.log.Info("Delivery assigned", zap.String("tracking_id", d.TrackingID), zap.String("rider_id", rider.RiderID))

	s.notifications.Notify(ctx, d.UserID, "Rider assigned",
		fmt.Sprintf("%s will handle your delivery %s.", rider.FullName, d.TrackingID),
		domain.NotificationInfo, d.ID.Hex())
	s.notifications.Notify(ctx, d.RiderID, "New delivery",
		fmt.Sprintf("You have been assigned delivery %s from %s.", d.TrackingID, d.Sender.PickupLocation),
		domain.NotificationInfo, d.ID.Hex())
	s.emit(ctx, "status", d)
	return d, nil
}

// AdvanceStatus lets the assigned rider mark a delivery picked up or delivered.
func (s *DeliveryService) AdvanceStatus(ctx context.Context, id, riderID, status string) (*domain.Delivery, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.AdvanceStatus", trace.WithAttributes(attribute.String("delivery.id", id)))
	defer span.End()

	next, ok := domain.ParseDeliveryStatus(status)
	if !ok || (next != domain.DeliveryPickedUp && next != domain.DeliveryDelivered) {
		return nil, domain.Validation("Status must be one of %s, %s", domain.DeliveryPickedUp, domain.DeliveryDelivered)
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.RiderID == "" || d.RiderID != riderID {
		return nil, domain.ErrAccessDenied
	}
	if err := s.transition(ctx, d, next); err != nil {
		return nil, err
	}

	if next == domain.DeliveryDelivered {
		if err := s.riders.IncrementDeliveries(ctx, riderID); err != nil {
			s.log.Warn("Failed to increment rider delivery count", zap.String("rider_id", riderID), zap.Error(err))
		}
	}
	s.notifications.Notify(ctx, d.UserID, "Delivery update",
		fmt.Sprintf("Your delivery %s is now %s.", d.TrackingID, d.Status),
		domain.NotificationInfo, d.ID.Hex())
	s.emit(ctx, "status", d)
	return d, nil
}

// Cancel is allowed for the owning user and for any company.
func (s *DeliveryService) Cancel(ctx context.Context, id string, caller *domain.Claims) (*domain.Delivery, error) {
	ctx, span := tracer.Start(ctx, "DeliveryService.Cancel", trace.WithAttributes(attribute.String("delivery.id", id)))
	defer span.End()

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		if d.UserID == "" || d.UserID != caller.Subject {
			return nil, domain.ErrAccessDenied
		}
	default:
		return nil, domain.ErrAccessDenied
	}
	if err := s.transition(ctx, d, domain.DeliveryCancelled); err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, d.UserID, "Delivery cancelled",
		fmt.Sprintf("Delivery %s has been cancelled.", d.TrackingID), domain.NotificationWarning, d.ID.Hex())
	s.notifications.Notify(ctx, d.RiderID, "Delivery cancelled",
		fmt.Sprintf("Delivery %s has been cancelled.", d.TrackingID), domain.NotificationWarning, d.ID.Hex())
	s.emit(ctx, "status", d)
	return d, nil
}

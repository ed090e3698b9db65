package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/platform/metrics"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const riderNotFound = "Rider not found"

// RiderService covers what happens to a rider after signup: company
// approval, availability and live location.
type RiderService struct {
	riders        repository.RiderRepository
	locations     repository.LocationStore
	notifications *NotificationService
	events        Publisher
	feed          LocationFeed
	subject       string
	now           func() time.Time
	metrics       *metrics.MetricsManager
	log           *logger.Logger
}

type RiderOption func(*RiderService)

func WithRiderClock(now func() time.Time) RiderOption {
	return func(s *RiderService) { s.now = now }
}

func WithRiderMetrics(m *metrics.MetricsManager) RiderOption {
	return func(s *RiderService) { s.metrics = m }
}

// WithLocationBroadcast publishes location updates on subject and lets
// StreamLocations follow them through feed.
func WithLocationBroadcast(p Publisher, feed LocationFeed, subject string) RiderOption {
	return func(s *RiderService) {
		s.events = p
		s.feed = feed
		s.subject = subject
	}
}

func NewRiderService(
	riders repository.RiderRepository,
	locations repository.LocationStore,
	notifications *NotificationService,
	log *logger.Logger,
	opts ...RiderOption,
) *RiderService {
	s := &RiderService{
		riders:        riders,
		locations:     locations,
		notifications: notifications,
		now:           time.Now,
		log:           log.Named("RiderService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RiderService) ListPending(ctx context.Context) ([]*domain.Rider, error) {
	out, err := s.riders.ListByStatus(ctx, domain.RiderPending)
	if err != nil {
		return nil, storageError(err, riderNotFound)
	}
	return out, nil
}

func (s *RiderService) ListAvailable(ctx context.Context) ([]*domain.Rider, error) {
	out, err := s.riders.ListAvailable(ctx)
	if err != nil {
		return nil, storageError(err, riderNotFound)
	}
	return out, nil
}

func (s *RiderService) Approve(ctx context.Context, riderID, companyID string) (*domain.Rider, error) {
	r, err := s.decide(ctx, riderID, domain.RiderApproved, companyID)
	if err != nil {
		return nil, err
	}
	s.notifications.Notify(ctx, riderID, "Account approved",
		"Your rider account has been approved. You can now go online and receive deliveries.",
		domain.NotificationSuccess, companyID)
	return r, nil
}

func (s *RiderService) Decline(ctx context.Context, riderID, companyID string) (*domain.Rider, error) {
	r, err := s.decide(ctx, riderID, domain.RiderSuspended, "")
	if err != nil {
		return nil, err
	}
	s.notifications.Notify(ctx, riderID, "Account declined",
		"Your rider application has been declined.", domain.NotificationError, companyID)
	return r, nil
}

// decide moves a pending rider to status. Anything not pending is refused.
func (s *RiderService) decide(ctx context.Context, riderID string, status domain.RiderStatus, approvedBy string) (*domain.Rider, error) {
	ctx, span := tracer.Start(ctx, "RiderService.Decide", trace.WithAttributes(
		attribute.String("rider.id", riderID), attribute.String("rider.status", string(status))))
	defer span.End()

	r, err := s.riders.FindByID(ctx, riderID)
	if err != nil {
		return nil, storageError(err, riderNotFound)
	}
	if r.Status != domain.RiderPending {
		return nil, domain.Validation("Rider %s is already %s", r.RiderID, r.Status)
	}
	if err := s.riders.SetStatus(ctx, riderID, domain.RiderPending, status, approvedBy); err != nil {
		return nil, storageError(err, riderNotFound)
	}
	r.Status = status
	if approvedBy != "" {
		r.ApprovedBy = approvedBy
	}
	if status != domain.RiderApproved {
		r.IsAvailable = false
	}
	s.log.Info("Rider status decided", zap.String("rider_id", r.RiderID), zap.String("status", string(status)), zap.String("by", approvedBy))
	return r, nil
}

func (s *RiderService) SetAvailability(ctx context.Context, riderID string, available bool) (*domain.Rider, error) {
	r, err := s.riders.FindByID(ctx, riderID)
	if err != nil {
		return nil, storageError(err, riderNotFound)
	}
	if available && !r.CanWork() {
		return nil, domain.Forbidden("Your account must be verified and approved before going online")
	}
	if err := s.riders.SetAvailability(ctx, riderID, available); err != nil {
		return nil, storageError(err, riderNotFound)
	}
	r.IsAvailable = available
	return r, nil
}

// UpdateLocation stores the rider's position and broadcasts it.
func (s *RiderService) UpdateLocation(ctx context.Context, riderID string, lat, lng float64) (*domain.RiderLocation, error) {
	ctx, span := tracer.Start(ctx, "RiderService.UpdateLocation", trace.WithAttributes(attribute.String("rider.id", riderID)))
	defer span.End()

	loc := domain.RiderLocation{RiderID: riderID, Lat: lat, Lng: lng, UpdatedAt: s.now().UTC()}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	r, err := s.riders.FindByID(ctx, riderID)
	if err != nil {
		return nil, storageError(err, riderNotFound)
	}
	if !r.CanWork() {
		return nil, domain.Forbidden("Your account must be verified and approved before sharing location")
	}
	loc.PublicID = r.RiderID

	if err := s.locations.Save(ctx, loc); err != nil {
		return nil, domain.Dependency("Failed to store location", err)
	}
	s.metrics.LocationUpdated()
	publish(ctx, s.events, s.subject, loc, s.log)
	return &loc, nil
}

func (s *RiderService) LastLocation(ctx context.Context, riderID string) (*domain.RiderLocation, error) {
	loc, err := s.locations.Get(ctx, riderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("No location reported for this rider")
		}
		return nil, domain.Dependency("Failed to read location", err)
	}
	return loc, nil
}

// StreamLocations follows broadcast location updates until ctx is done.
// Malformed messages are skipped.
func (s *RiderService) StreamLocations(ctx context.Context) (<-chan domain.RiderLocation, error) {
	if s.feed == nil || s.subject == "" {
		return nil, domain.Dependency("Location stream unavailable", fmt.Errorf("no location feed configured"))
	}
	raw, err := s.feed.Subscribe(ctx, s.subject)
	if err != nil {
		return nil, domain.Dependency("Location stream unavailable", err)
	}

	out := make(chan domain.RiderLocation)
	go func() {
		defer close(out)
		for data := range raw {
			var loc domain.RiderLocation
			if err := json.Unmarshal(data, &loc); err != nil {
				s.log.Debug("Skipping malformed location message", zap.Error(err))
				continue
			}
			select {
			case out <- loc:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

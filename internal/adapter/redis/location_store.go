package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"github.com/redis/go-redis/v9"
)

const locationKeyPrefix = "rider:location:"

// LocationStore keeps each rider's last reported position with a TTL, so a
// rider who stops reporting drops off on their own.
type LocationStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ repository.LocationStore = (*LocationStore)(nil)

func NewLocationStore(client redis.UniversalClient, ttl time.Duration) *LocationStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LocationStore{client: client, ttl: ttl}
}

func locationKey(riderID string) string {
	return locationKeyPrefix + riderID
}

func (s *LocationStore) Save(ctx context.Context, loc domain.RiderLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal rider location: %w", err)
	}
	if err := s.client.Set(ctx, locationKey(loc.RiderID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store rider location %s: %w", loc.RiderID, err)
	}
	return nil
}

func (s *LocationStore) Get(ctx context.Context, riderID string) (*domain.RiderLocation, error) {
	data, err := s.client.Get(ctx, locationKey(riderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read rider location %s: %w", riderID, err)
	}
	var loc domain.RiderLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rider location %s: %w", riderID, err)
	}
	return &loc, nil
}

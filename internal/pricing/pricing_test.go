package pricing

import (
	"testing"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lagos(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)
	return loc
}

func TestQuoteFor(t *testing.T) {
	loc := lagos(t)
	testCases := []struct {
		name      string
		zone      string
		pickup    time.Time
		wantPrice float64
		wantType  domain.DeliveryType
	}{
		{"Ikeja on a Wednesday", "Ikeja", time.Date(2024, 5, 1, 10, 0, 0, 0, loc), 2000, domain.DeliveryExpress},
		{"Ikeja on a Saturday", "Ikeja", time.Date(2024, 5, 4, 10, 0, 0, 0, loc), 3000, domain.DeliveryStandard},
		{"Epe on a Sunday", "Epe", time.Date(2024, 5, 5, 10, 0, 0, 0, loc), 6750, domain.DeliveryStandard},
		{"Badagry on a Friday", "badagry", time.Date(2024, 5, 3, 10, 0, 0, 0, loc), 5000, domain.DeliveryExpress},
		{"unknown zone falls back", "Atlantis", time.Date(2024, 5, 1, 10, 0, 0, 0, loc), FallbackPrice, domain.DeliveryExpress},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := QuoteFor(tc.zone, tc.pickup)
			assert.Equal(t, tc.wantPrice, q.Price)
			assert.Equal(t, tc.wantType, q.Type)
		})
	}
}

func TestCanonicalZone(t *testing.T) {
	z, ok := CanonicalZone("  lagos island ")
	require.True(t, ok)
	assert.Equal(t, "Lagos Island", z)

	_, ok = CanonicalZone("Abuja")
	assert.False(t, ok)

	zones := Zones()
	assert.Len(t, zones, 20)
	assert.Equal(t, "Agege", zones[0])
}

func TestParsePickupDate(t *testing.T) {
	loc := lagos(t)

	d, err := ParsePickupDate("04/05/2024", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, d.Weekday())
	assert.Equal(t, time.May, d.Month())

	d, err = ParsePickupDate("2024-05-01", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d.Weekday())

	// 23:30 UTC Friday is already Saturday in Lagos.
	d, err = ParsePickupDate("2024-05-03T23:30:00Z", loc)
	require.NoError(t, err)
	assert.True(t, IsWeekend(d))

	for _, bad := range []string{"", "tomorrow", "31/02/2024", "2024/05/01"} {
		_, err := ParsePickupDate(bad, loc)
		assert.Error(t, err, bad)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	}
}

func TestTrackingID(t *testing.T) {
	day := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "20240501-001", TrackingID(day, 1))
	assert.Equal(t, "20240501-002", TrackingID(day, 2))
	assert.Equal(t, "20240501-1000", TrackingID(day, 1000))
	assert.Equal(t, "20240501", DayKey(day))
}

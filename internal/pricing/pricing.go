// Package pricing holds the Lagos delivery zone table, the weekend rule and
// tracking-id formatting.
package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
)

// FallbackPrice applies to a zone missing from the table.
const FallbackPrice = 2500.0

// WeekendMultiplier applies to Saturday and Sunday pickups.
const WeekendMultiplier = 1.5

var zonePrices = map[string]float64{
	"Agege":            2000,
	"Ajeromi-Ifelodun": 2500,
	"Alimosho":         3000,
	"Amuwo-Odofin":     2500,
	"Apapa":            3000,
	"Badagry":          5000,
	"Epe":              4500,
	"Eti-Osa":          3500,
	"Ibeju-Lekki":      4000,
	"Ifako-Ijaiye":     2500,
	"Ikeja":            2000,
	"Ikorodu":          3500,
	"Kosofe":           2500,
	"Lagos Island":     3000,
	"Lagos Mainland":   2500,
	"Mushin":           2000,
	"Ojo":              3500,
	"Oshodi-Isolo":     2500,
	"Shomolu":          2500,
	"Surulere":         2500,
}

var zoneIndex = func() map[string]string {
	idx := make(map[string]string, len(zonePrices))
	for z := range zonePrices {
		idx[strings.ToLower(z)] = z
	}
	return idx
}()

// CanonicalZone returns the table spelling of zone, matched case-insensitively.
func CanonicalZone(zone string) (string, bool) {
	z, ok := zoneIndex[strings.ToLower(strings.TrimSpace(zone))]
	return z, ok
}

// Zones lists every known zone in alphabetical order.
func Zones() []string {
	out := make([]string, 0, len(zonePrices))
	for z := range zonePrices {
		out = append(out, z)
	}
	sort.Strings(out)
	return out
}

func BasePrice(zone string) float64 {
	if z, ok := CanonicalZone(zone); ok {
		return zonePrices[z]
	}
	return FallbackPrice
}

type Quote struct {
	Price float64
	Type  domain.DeliveryType
}

// QuoteFor prices a delivery to zone picked up on pickup's calendar day.
func QuoteFor(zone string, pickup time.Time) Quote {
	base := BasePrice(zone)
	if IsWeekend(pickup) {
		return Quote{Price: base * WeekendMultiplier, Type: domain.DeliveryStandard}
	}
	return Quote{Price: base, Type: domain.DeliveryExpress}
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

var pickupLayouts = []string{"02/01/2006", "2006-01-02", time.RFC3339}

// ParsePickupDate accepts DD/MM/YYYY, YYYY-MM-DD or RFC 3339. Dates without a
// zone are read in loc.
func ParsePickupDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range pickupLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, domain.Validation("Invalid pickup date %q, expected DD/MM/YYYY or YYYY-MM-DD", s)
}

// DayKey is the YYYYMMDD prefix of tracking ids issued on day.
func DayKey(day time.Time) string {
	return day.Format("20060102")
}

// TrackingID renders YYYYMMDD-NNN. Sequences above 999 keep all their digits.
func TrackingID(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%03d", DayKey(day), seq)
}

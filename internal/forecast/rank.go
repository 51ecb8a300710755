package forecast

import (
	"math"
	"sort"

	"github.com/lox/sunsetcast/internal/models"
)

const earthRadiusKm = 6371.0

// RankedSpot is a viewing spot with its bonus for a given day.
type RankedSpot struct {
	models.Spot
	Bonus      int        `json:"bonus"`
	DistanceKm *float64   `json:"distance_km"`
	Expected   SunsetKind `json:"expected_type,omitempty"`
}

// SpotBonus scores how well a spot suits the day's conditions.
func SpotBonus(s models.Spot, d models.DayRecord) int {
	bonus := 0
	if d.CloudLow < 30 && s.Type == models.SpotBeach {
		bonus += 20
	}
	if (d.CloudMid > 20 || d.CloudHigh > 20) && s.Type == models.SpotLake {
		bonus += 25
	}
	if d.WindSpeed > 15 && s.Type == models.SpotTower {
		bonus += 20
	}
	if s.Type == models.SpotBeach || s.Type == models.SpotLake {
		bonus += 10
	}
	return bonus
}

// Rank orders spots by bonus, highest first, keeping input order for ties.
// Distance is attached when user is non-nil and the sunset kind when kind is
// non-empty; neither affects order.
func Rank(spots []models.Spot, d models.DayRecord, user *models.Coordinate, kind SunsetKind) []RankedSpot {
	ranked := make([]RankedSpot, len(spots))
	for i, s := range spots {
		ranked[i] = RankedSpot{Spot: s, Bonus: SpotBonus(s, d), Expected: kind}
		if user != nil {
			km := DistanceKm(*user, models.Coordinate{Lat: s.Lat, Lng: s.Lng})
			ranked[i].DistanceKm = &km
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Bonus > ranked[j].Bonus
	})
	return ranked
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b models.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Pow(math.Sin(dLng/2), 2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

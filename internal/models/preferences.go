package models

import (
	"time"

	"github.com/ternarybob/veloroute/internal/geo"
)

// UserRoutingPreferences holds a user's home coordinate and routing
// constraints. Exactly one row per user; created with defaults on first
// access.
type UserRoutingPreferences struct {
	UserID           string  `json:"user_id" badgerhold:"key"`
	HomeLat          float64 `json:"home_lat"`
	HomeLon          float64 `json:"home_lon"`
	AvoidHighways    bool    `json:"avoid_highways"`
	PreferBikePaths  bool    `json:"prefer_bike_paths"`
	AvoidHighTraffic bool    `json:"avoid_high_traffic"`
	MaxGradePercent  float64 `json:"max_grade_percent"`
	SearchRadiusKm   float64 `json:"search_radius_km"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultPreferences returns the row created on a user's first access
func DefaultPreferences(userID string) *UserRoutingPreferences {
	return &UserRoutingPreferences{
		UserID:          userID,
		AvoidHighways:   true,
		PreferBikePaths: true,
		MaxGradePercent: 12,
		SearchRadiusKm:  25,
	}
}

// Home returns the user's home coordinate
func (p *UserRoutingPreferences) Home() geo.Point {
	return geo.Point{Lat: p.HomeLat, Lon: p.HomeLon}
}

// HasHome reports whether a home coordinate has been set
func (p *UserRoutingPreferences) HasHome() bool {
	return p.HomeLat != 0 || p.HomeLon != 0
}

package models

import "time"

// Sighting represents a single roach sighting record
type Sighting struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	RoomType    string    `json:"room_type,omitempty"`
	RoachCount  int       `json:"roach_count"`
	RoachSize   string    `json:"roach_size,omitempty"`
	RoachType   string    `json:"roach_type,omitempty"`
	PhotoPath   string    `json:"photo_path,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Weather     string    `json:"weather,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TimeOfDay   string    `json:"time_of_day,omitempty"`
	UserID      *int64    `json:"user_id,omitempty"`
	PropertyID  *int64    `json:"property_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CountBucket is one row of a grouped distribution, e.g. sightings per location.
type CountBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TrendPoint is one day of the recent sighting trend.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Statistics aggregates sighting data for reporting.
type Statistics struct {
	TotalSightings int           `json:"total_sightings"`
	TotalRoaches   int           `json:"total_roaches"`
	Locations      []CountBucket `json:"locations"`
	Sizes          []CountBucket `json:"sizes"`
	TimesOfDay     []CountBucket `json:"times_of_day"`
	RecentTrend    []TrendPoint  `json:"recent_trend"`
}

// TimeOfDay returns the categorical time bucket for t.
func TimeOfDay(t time.Time) string {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}

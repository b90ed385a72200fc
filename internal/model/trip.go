package model

import (
	"time"

	"github.com/google/uuid"
)

type TripStatus string

const (
	TripStatusCreated    TripStatus = "CREATED"
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusCreated, TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return true
	default:
		return false
	}
}

type Conduct string

const (
	ConductNormal     Conduct = "NORMAL"
	ConductAggressive Conduct = "AGGRESSIVE"
	ConductUnknown    Conduct = "UNKNOWN"
)

func (c Conduct) Valid() bool {
	switch c {
	case ConductNormal, ConductAggressive, ConductUnknown:
		return true
	default:
		return false
	}
}

type Trip struct {
	ID                uuid.UUID     `json:"id"`
	CompanyID         uuid.UUID     `json:"company_id"`
	UserID            uuid.UUID     `json:"user_id"`
	OriginCityID      uuid.UUID     `json:"origin_city_id"`
	DestinationCityID uuid.UUID     `json:"destination_city_id"`
	StartDate         time.Time     `json:"start_date"`
	EndDate           *time.Time    `json:"end_date,omitempty"`
	Status            TripStatus    `json:"status"`
	Conduct           Conduct       `json:"conduct"`
	Details           []AlertDetail `json:"details"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// AlertDetail is an event raised while the trip is active. Details are only
// ever appended to a trip.
type AlertDetail struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`
	Responded  bool      `json:"responded"`
}

// TripRecord is a trip joined with the names of its origin and destination.
type TripRecord struct {
	Trip
	OriginName      string `json:"origin_name"`
	DestinationName string `json:"destination_name"`
}

func (r TripRecord) Route() string {
	return RouteLabel(r.OriginName, r.DestinationName)
}

type DecoratedTrip struct {
	TripRecord
	TotalAlerts     int `json:"total_alerts"`
	RespondedAlerts int `json:"responded_alerts"`
}

func RouteLabel(origin, destination string) string {
	return origin + " - " + destination
}

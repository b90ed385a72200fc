package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripScope restricts a query to one tenant or one driver. Exactly one of
// the fields is set.
type TripScope struct {
	CompanyID *uuid.UUID
	UserID    *uuid.UUID
}

// TripFilters are optional and combined with AND.
type TripFilters struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	DriverID    *uuid.UUID
	Destination string
	Status      *TripStatus
}

type TripQuery struct {
	Scope   TripScope
	Filters TripFilters
}

// Matches reports whether the record satisfies scope and filters. Stores
// that cannot push the query down to a database use it directly.
func (q TripQuery) Matches(r TripRecord) bool {
	if q.Scope.CompanyID != nil && r.CompanyID != *q.Scope.CompanyID {
		return false
	}
	if q.Scope.UserID != nil && r.UserID != *q.Scope.UserID {
		return false
	}
	f := q.Filters
	if f.DateFrom != nil && r.StartDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.StartDate.After(*f.DateTo) {
		return false
	}
	if f.DriverID != nil && r.UserID != *f.DriverID {
		return false
	}
	if f.Destination != "" && !strings.Contains(strings.ToLower(r.Route()), strings.ToLower(f.Destination)) {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	return true
}

package service

import (
	"fmt"

	"github.com/nurpe/fleet-trips/internal/model"
)

// ScopeFor limits company principals to their tenant and everyone else to
// their own trips.
func ScopeFor(principal model.Principal) model.TripScope {
	if principal.IsCompany() {
		companyID := principal.CompanyID
		return model.TripScope{CompanyID: &companyID}
	}
	userID := principal.UserID
	return model.TripScope{UserID: &userID}
}

func BuildQuery(principal model.Principal, filters model.TripFilters) (model.TripQuery, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return model.TripQuery{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *filters.Status)
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateFrom.After(*filters.DateTo) {
		return model.TripQuery{}, fmt.Errorf("%w: dateFrom must be before or equal to dateTo", ErrInvalidInput)
	}
	return model.TripQuery{Scope: ScopeFor(principal), Filters: filters}, nil
}

// Decorate derives alert counters from the details of each record. The
// records themselves are not modified.
func Decorate(records []model.TripRecord) []model.DecoratedTrip {
	result := make([]model.DecoratedTrip, 0, len(records))
	for _, record := range records {
		responded := 0
		for _, detail := range record.Details {
			if detail.Responded {
				responded++
			}
		}
		result = append(result, model.DecoratedTrip{
			TripRecord:      record,
			TotalAlerts:     len(record.Details),
			RespondedAlerts: responded,
		})
	}
	return result
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleet-trips/internal/model"
)

// Memory is an in-process store used with DB_DRIVER=memory and in tests. It
// mirrors the constraints of the postgres schema: trips must reference known
// cities and referenced cities cannot be deleted.
type Memory struct {
	mu     sync.RWMutex
	trips  map[uuid.UUID]model.Trip
	cities map[uuid.UUID]model.City
}

func NewMemory() *Memory {
	return &Memory{
		trips:  map[uuid.UUID]model.Trip{},
		cities: map[uuid.UUID]model.City{},
	}
}

func (m *Memory) Save(_ context.Context, trip *model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cities[trip.OriginCityID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := m.cities[trip.DestinationCityID]; !ok {
		return gorm.ErrForeignKeyViolated
	}

	stored := *trip
	if trip.EndDate != nil {
		end := *trip.EndDate
		stored.EndDate = &end
	}
	var details []model.AlertDetail
	known := map[uuid.UUID]struct{}{}
	if existing, ok := m.trips[trip.ID]; ok {
		details = append(details, existing.Details...)
		for _, d := range existing.Details {
			known[d.ID] = struct{}{}
		}
	}
	for _, d := range trip.Details {
		if _, ok := known[d.ID]; ok {
			continue
		}
		details = append(details, d)
	}
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].OccurredAt.Before(details[j].OccurredAt)
	})
	stored.Details = details
	m.trips[trip.ID] = stored
	return nil
}

func (m *Memory) FindByID(_ context.Context, id uuid.UUID) (*model.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trip, ok := m.trips[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	record := m.record(trip)
	return &record, nil
}

func (m *Memory) Search(_ context.Context, query model.TripQuery) ([]model.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []model.TripRecord{}
	for _, trip := range m.trips {
		record := m.record(trip)
		if query.Matches(record) {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (m *Memory) CountByCompanyBetween(_ context.Context, companyID uuid.UUID, from, to time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, trip := range m.trips {
		if trip.CompanyID != companyID {
			continue
		}
		if trip.StartDate.Before(from) || trip.StartDate.After(to) {
			continue
		}
		count++
	}
	return count, nil
}

func (m *Memory) CountByDriver(_ context.Context, companyID, userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, trip := range m.trips {
		if trip.CompanyID == companyID && trip.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.trips, id)
	return nil
}

func (m *Memory) DistinctRoutes(_ context.Context, scope model.TripScope) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := model.TripQuery{Scope: scope}
	seen := map[string]struct{}{}
	for _, trip := range m.trips {
		origin, okOrigin := m.cities[trip.OriginCityID]
		destination, okDestination := m.cities[trip.DestinationCityID]
		if !okOrigin || !okDestination {
			continue
		}
		record := m.record(trip)
		if !query.Matches(record) {
			continue
		}
		seen[model.RouteLabel(origin.Name, destination.Name)] = struct{}{}
	}

	routes := make([]string, 0, len(seen))
	for route := range seen {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes, nil
}

func (m *Memory) CreateCity(_ context.Context, city *model.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cities[city.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.cities[city.ID] = *city
	return nil
}

func (m *Memory) GetCity(_ context.Context, id uuid.UUID) (*model.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	city, ok := m.cities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &city, nil
}

func (m *Memory) ListCities(_ context.Context, companyID uuid.UUID) ([]model.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cities := []model.City{}
	for _, city := range m.cities {
		if city.CompanyID == companyID {
			cities = append(cities, city)
		}
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities, nil
}

func (m *Memory) CountCities(ctx context.Context, companyID uuid.UUID) (int64, error) {
	cities, err := m.ListCities(ctx, companyID)
	return int64(len(cities)), err
}

func (m *Memory) UpdateCity(_ context.Context, city *model.City) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.cities[city.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name = city.Name
	m.cities[city.ID] = stored
	return nil
}

func (m *Memory) DeleteCity(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cities[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, trip := range m.trips {
		if trip.OriginCityID == id || trip.DestinationCityID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(m.cities, id)
	return nil
}

// record copies the trip so callers cannot mutate stored details.
func (m *Memory) record(trip model.Trip) model.TripRecord {
	details := make([]model.AlertDetail, len(trip.Details))
	copy(details, trip.Details)
	trip.Details = details
	if trip.EndDate != nil {
		end := *trip.EndDate
		trip.EndDate = &end
	}
	return model.TripRecord{
		Trip:            trip,
		OriginName:      m.cities[trip.OriginCityID].Name,
		DestinationName: m.cities[trip.DestinationCityID].Name,
	}
}

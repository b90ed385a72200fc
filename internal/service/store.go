package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fleet-trips/internal/classifier"
	"github.com/nurpe/fleet-trips/internal/model"
)

// TripStore persists trips with their alert details. Lookups of a missing
// trip return gorm.ErrRecordNotFound.
type TripStore interface {
	// Save inserts or updates the trip row and inserts details that are not
	// stored yet, in one atomic write.
	Save(ctx context.Context, trip *model.Trip) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TripRecord, error)
	Search(ctx context.Context, query model.TripQuery) ([]model.TripRecord, error)
	CountByCompanyBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) (int64, error)
	CountByDriver(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DistinctRoutes(ctx context.Context, scope model.TripScope) ([]string, error)
}

type CityStore interface {
	CreateCity(ctx context.Context, city *model.City) error
	GetCity(ctx context.Context, id uuid.UUID) (*model.City, error)
	ListCities(ctx context.Context, companyID uuid.UUID) ([]model.City, error)
	CountCities(ctx context.Context, companyID uuid.UUID) (int64, error)
	UpdateCity(ctx context.Context, city *model.City) error
	DeleteCity(ctx context.Context, id uuid.UUID) error
}

type ConductClassifier interface {
	Classify(ctx context.Context, payload json.RawMessage) classifier.Result
}

// RouteCache holds route summaries. Implementations are best effort: a miss
// or a cache error falls through to the store. Entries are registered under
// a tenant so InvalidateTenant drops all of them at once.
type RouteCache interface {
	GetRoutes(ctx context.Context, key string) ([]string, bool)
	SetRoutes(ctx context.Context, tenant, key string, routes []string)
	Invalidate(ctx context.Context, keys ...string)
	InvalidateTenant(ctx context.Context, tenant string)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleet-trips/internal/model"
)

// CityService manages the cities a company routes its trips between.
type CityService struct {
	store  CityStore
	routes RouteCache
	now    func() time.Time
}

// NewCityService builds the service. routes may be nil; when set, renaming or
// deleting a city drops the tenant's cached route summaries.
func NewCityService(store CityStore, routes RouteCache) *CityService {
	if routes == nil {
		routes = noopRouteCache{}
	}
	return &CityService{store: store, routes: routes, now: time.Now}
}

func (s *CityService) Create(ctx context.Context, principal model.Principal, name string) (*model.City, error) {
	if !principal.IsCompany() {
		return nil, ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	city := &model.City{
		ID:        uuid.New(),
		CompanyID: principal.CompanyID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

func (s *CityService) List(ctx context.Context, principal model.Principal) ([]model.City, error) {
	return s.store.ListCities(ctx, principal.CompanyID)
}

func (s *CityService) Count(ctx context.Context, principal model.Principal) (int64, error) {
	return s.store.CountCities(ctx, principal.CompanyID)
}

func (s *CityService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.City, error) {
	city, err := s.store.GetCity(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if city.CompanyID != principal.CompanyID {
		return nil, ErrNotFound
	}
	return city, nil
}

func (s *CityService) Rename(ctx context.Context, principal model.Principal, id uuid.UUID, name string) (*model.City, error) {
	if !principal.IsCompany() {
		return nil, ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	city, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	city.Name = name
	if err := s.store.UpdateCity(ctx, city); err != nil {
		return nil, err
	}
	s.routes.InvalidateTenant(ctx, principal.CompanyID.String())
	return city, nil
}

func (s *CityService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsCompany() {
		return ErrPermissionDenied
	}
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	if err := s.store.DeleteCity(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrNotFound
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return ErrCityInUse
		}
		return err
	}
	s.routes.InvalidateTenant(ctx, principal.CompanyID.String())
	return nil
}

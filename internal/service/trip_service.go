package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/fleet-trips/internal/config"
	"github.com/nurpe/fleet-trips/internal/model"
)

type ReportGenerator interface {
	Generate(report model.TripReport) ([]byte, error)
}

type TripService struct {
	store      TripStore
	cities     CityStore
	classifier ConductClassifier
	routes     RouteCache
	excel      ReportGenerator
	pdf        ReportGenerator
	location   *time.Location
	now        func() time.Time
	log        zerolog.Logger
}

type CreateTripInput struct {
	Principal         model.Principal
	UserID            uuid.UUID
	OriginCityID      uuid.UUID
	DestinationCityID uuid.UUID
	StartDate         time.Time
	ConductInput      json.RawMessage
}

// TripPatch carries the fields of an update. Nil fields are left untouched.
type TripPatch struct {
	Status            *model.TripStatus
	StartDate         *time.Time
	EndDate           *time.Time
	OriginCityID      *uuid.UUID
	DestinationCityID *uuid.UUID
	ConductInput      json.RawMessage
	Details           []AlertDetailInput
}

type AlertDetailInput struct {
	OccurredAt time.Time
	Type       string
	Responded  bool
}

type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

func NewTripService(
	store TripStore,
	cities CityStore,
	classifier ConductClassifier,
	routes RouteCache,
	excel ReportGenerator,
	pdf ReportGenerator,
	cfg *config.Config,
	log zerolog.Logger,
) *TripService {
	if routes == nil {
		routes = noopRouteCache{}
	}
	loc := time.UTC
	if cfg != nil && cfg.Reports.Location != nil {
		loc = cfg.Reports.Location
	}
	return &TripService{
		store:      store,
		cities:     cities,
		classifier: classifier,
		routes:     routes,
		excel:      excel,
		pdf:        pdf,
		location:   loc,
		now:        time.Now,
		log:        log.With().Str("component", "trip_service").Logger(),
	}
}

// Location is the time zone reports and week windows are computed in.
func (s *TripService) Location() *time.Location {
	return s.location
}

func (s *TripService) Create(ctx context.Context, input CreateTripInput) (*model.Trip, error) {
	userID := input.UserID
	if input.Principal.IsDriver() {
		if userID != uuid.Nil && userID != input.Principal.UserID {
			return nil, ErrPermissionDenied
		}
		userID = input.Principal.UserID
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if input.OriginCityID == uuid.Nil || input.DestinationCityID == uuid.Nil {
		return nil, fmt.Errorf("%w: origin and destination are required", ErrInvalidInput)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	if err := s.checkCities(ctx, input.Principal.CompanyID, input.OriginCityID, input.DestinationCityID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	trip := &model.Trip{
		ID:                uuid.New(),
		CompanyID:         input.Principal.CompanyID,
		UserID:            userID,
		OriginCityID:      input.OriginCityID,
		DestinationCityID: input.DestinationCityID,
		StartDate:         input.StartDate,
		Status:            model.TripStatusCreated,
		Details:           []model.AlertDetail{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	payload := input.ConductInput
	if len(payload) == 0 {
		payload = legacyConductPayload(trip)
	}
	trip.Conduct = s.resolveConduct(ctx, payload)

	if err := s.store.Save(ctx, trip); err != nil {
		return nil, saveError(err)
	}
	s.invalidateRoutes(ctx, trip.CompanyID, trip.UserID)

	s.log.Info().
		Str("trip_id", trip.ID.String()).
		Str("company_id", trip.CompanyID.String()).
		Str("conduct", string(trip.Conduct)).
		Msg("trip created")
	return trip, nil
}

func (s *TripService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, patch TripPatch) (*model.Trip, error) {
	record, err := s.find(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	trip := record.Trip
	previousUser := trip.UserID

	if len(patch.ConductInput) > 0 {
		trip.Conduct = s.resolveConduct(ctx, patch.ConductInput)
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
		}
		trip.Status = *patch.Status
	}
	if patch.StartDate != nil {
		trip.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		end := *patch.EndDate
		trip.EndDate = &end
	}
	if patch.OriginCityID != nil {
		trip.OriginCityID = *patch.OriginCityID
	}
	if patch.DestinationCityID != nil {
		trip.DestinationCityID = *patch.DestinationCityID
	}
	if patch.OriginCityID != nil || patch.DestinationCityID != nil {
		if err := s.checkCities(ctx, trip.CompanyID, trip.OriginCityID, trip.DestinationCityID); err != nil {
			return nil, err
		}
	}
	if trip.EndDate != nil && trip.EndDate.Before(trip.StartDate) {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidInput)
	}

	now := s.now().UTC()
	details := make([]model.AlertDetail, len(trip.Details), len(trip.Details)+len(patch.Details))
	copy(details, trip.Details)
	for _, in := range patch.Details {
		if strings.TrimSpace(in.Type) == "" {
			return nil, fmt.Errorf("%w: alert type is required", ErrInvalidInput)
		}
		occurred := in.OccurredAt
		if occurred.IsZero() {
			occurred = now
		}
		details = append(details, model.AlertDetail{
			ID:         uuid.New(),
			OccurredAt: occurred,
			Type:       in.Type,
			Responded:  in.Responded,
		})
	}
	trip.Details = details
	trip.UpdatedAt = now

	if err := s.store.Save(ctx, &trip); err != nil {
		return nil, saveError(err)
	}
	s.invalidateRoutes(ctx, trip.CompanyID, previousUser, trip.UserID)
	return &trip, nil
}

func (s *TripService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.TripRecord, error) {
	return s.find(ctx, principal, id)
}

// Delete removes the trip and its details. Only company principals may
// delete.
func (s *TripService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsCompany() {
		return ErrPermissionDenied
	}
	record, err := s.find(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateRoutes(ctx, record.CompanyID, record.UserID)
	return nil
}

// List returns every trip in the principal's scope, newest first.
func (s *TripService) List(ctx context.Context, principal model.Principal) ([]model.TripRecord, error) {
	return s.store.Search(ctx, model.TripQuery{Scope: ScopeFor(principal)})
}

func (s *TripService) Search(ctx context.Context, principal model.Principal, filters model.TripFilters) ([]model.DecoratedTrip, error) {
	query, err := BuildQuery(principal, filters)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return Decorate(records), nil
}

func (s *TripService) CountCurrentWeek(ctx context.Context, principal model.Principal) (model.WeeklyCount, error) {
	from, to := WeekWindow(s.now().In(s.location))
	return s.countBetween(ctx, principal.CompanyID, from, to)
}

func (s *TripService) CountPreviousWeek(ctx context.Context, principal model.Principal) (model.WeeklyCount, error) {
	from, to := PreviousWeekWindow(s.now().In(s.location))
	return s.countBetween(ctx, principal.CompanyID, from, to)
}

func (s *TripService) countBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) (model.WeeklyCount, error) {
	count, err := s.store.CountByCompanyBetween(ctx, companyID, from, to)
	if err != nil {
		return model.WeeklyCount{}, err
	}
	return model.WeeklyCount{From: from, To: to, Count: count}, nil
}

// CountByDriver counts the trips of one driver within the caller's tenant.
// Drivers count their own trips; company principals must name the driver.
func (s *TripService) CountByDriver(ctx context.Context, principal model.Principal, driverID *uuid.UUID) (int64, error) {
	userID := principal.UserID
	switch {
	case principal.IsCompany():
		if driverID == nil {
			return 0, fmt.Errorf("%w: driver is required", ErrInvalidInput)
		}
		userID = *driverID
	case driverID != nil && *driverID != principal.UserID:
		return 0, ErrPermissionDenied
	}
	return s.store.CountByDriver(ctx, principal.CompanyID, userID)
}

func (s *TripService) UniqueRoutes(ctx context.Context, principal model.Principal) ([]string, error) {
	scope := ScopeFor(principal)
	key := routesKey(principal.CompanyID, scope)
	if cached, ok := s.routes.GetRoutes(ctx, key); ok {
		return cached, nil
	}
	routes, err := s.store.DistinctRoutes(ctx, scope)
	if err != nil {
		return nil, err
	}
	s.routes.SetRoutes(ctx, principal.CompanyID.String(), key, routes)
	return routes, nil
}

func (s *TripService) Export(ctx context.Context, principal model.Principal, filters model.TripFilters, format model.ExportFormat) (*ExportResult, error) {
	var (
		generator   ReportGenerator
		contentType string
		extension   string
	)
	switch format {
	case model.ExportFormatXLSX:
		generator = s.excel
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		extension = "xlsx"
	case model.ExportFormatPDF:
		generator = s.pdf
		contentType = "application/pdf"
		extension = "pdf"
	default:
		return nil, fmt.Errorf("%w: invalid export format", ErrInvalidInput)
	}

	trips, err := s.Search(ctx, principal, filters)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().In(s.location)
	report := model.TripReport{
		Scope:       scopeLabel(principal),
		GeneratedAt: generatedAt,
		Filters:     filters,
		Trips:       trips,
	}
	content, err := generator.Generate(report)
	if err != nil {
		return nil, err
	}

	role := model.RoleDriver
	if principal.IsCompany() {
		role = model.RoleCompany
	}
	return &ExportResult{
		FileName:    fmt.Sprintf("trips-%s-%s.%s", role, generatedAt.Format("20060102-150405"), extension),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *TripService) find(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.TripRecord, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !visible(principal, record.Trip) {
		return nil, ErrNotFound
	}
	return record, nil
}

// resolveConduct never fails: classifier errors, labels outside the enum
// and a panicking classifier all resolve to UNKNOWN.
func (s *TripService) resolveConduct(ctx context.Context, payload json.RawMessage) (conduct model.Conduct) {
	conduct = model.ConductUnknown
	if s.classifier == nil {
		return conduct
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("conduct classifier panicked")
			conduct = model.ConductUnknown
		}
	}()

	res := s.classifier.Classify(ctx, payload)
	if res.Err != nil || !res.Label.Valid() {
		return model.ConductUnknown
	}
	return res.Label
}

func (s *TripService) invalidateRoutes(ctx context.Context, companyID uuid.UUID, userIDs ...uuid.UUID) {
	keys := []string{routesKey(companyID, model.TripScope{CompanyID: &companyID})}
	for i := range userIDs {
		keys = append(keys, routesKey(companyID, model.TripScope{UserID: &userIDs[i]}))
	}
	s.routes.Invalidate(ctx, keys...)
}

// checkCities rejects city references that are missing or belong to another
// tenant.
func (s *TripService) checkCities(ctx context.Context, companyID uuid.UUID, ids ...uuid.UUID) error {
	if s.cities == nil {
		return nil
	}
	for _, id := range ids {
		city, err := s.cities.GetCity(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownCity
			}
			return err
		}
		if city.CompanyID != companyID {
			return ErrUnknownCity
		}
	}
	return nil
}

func saveError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrUnknownCity
	}
	return err
}

type noopRouteCache struct{}

func (noopRouteCache) GetRoutes(context.Context, string) ([]string, bool)  { return nil, false }
func (noopRouteCache) SetRoutes(context.Context, string, string, []string) {}
func (noopRouteCache) Invalidate(context.Context, ...string)               {}
func (noopRouteCache) InvalidateTenant(context.Context, string)            {}

func visible(principal model.Principal, trip model.Trip) bool {
	if principal.IsCompany() {
		return trip.CompanyID == principal.CompanyID
	}
	return trip.UserID == principal.UserID
}

// routesKey groups every cache entry under its tenant so city changes can
// drop them together.
func routesKey(tenant uuid.UUID, scope model.TripScope) string {
	prefix := "routes:" + tenant.String()
	if scope.UserID != nil {
		return prefix + ":user:" + scope.UserID.String()
	}
	return prefix + ":company"
}

func scopeLabel(principal model.Principal) string {
	if principal.IsCompany() {
		return "Company " + principal.CompanyID.String()
	}
	return "Driver " + principal.UserID.String()
}

// legacyConductPayload is sent to the model when the request carries no
// explicit classification input.
func legacyConductPayload(trip *model.Trip) json.RawMessage {
	payload, err := json.Marshal(struct {
		CompanyID     uuid.UUID `json:"companyId"`
		UserID        uuid.UUID `json:"userId"`
		OriginID      uuid.UUID `json:"originId"`
		DestinationID uuid.UUID `json:"destinationId"`
		StartDate     time.Time `json:"startDate"`
	}{
		CompanyID:     trip.CompanyID,
		UserID:        trip.UserID,
		OriginID:      trip.OriginCityID,
		DestinationID: trip.DestinationCityID,
		StartDate:     trip.StartDate,
	})
	if err != nil {
		return nil
	}
	return payload
}

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/fleet-trips/internal/model"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Save upserts the trip row and inserts the details it does not know yet.
// Stored details are never rewritten.
func (r *TripRepository) Save(ctx context.Context, trip *model.Trip) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toTripRow(trip)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		if len(trip.Details) == 0 {
			return nil
		}
		details := toDetailRows(trip.ID, trip.Details)
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&details).Error
	})
}

func (r *TripRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TripRecord, error) {
	var row tripRecordRow
	if err := r.joined(ctx).Where("t.id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	details, err := r.loadDetails(ctx, []uuid.UUID{row.ID})
	if err != nil {
		return nil, err
	}
	record := row.toRecord(details[row.ID])
	return &record, nil
}

func (r *TripRepository) Search(ctx context.Context, query model.TripQuery) ([]model.TripRecord, error) {
	q := r.joined(ctx)

	if query.Scope.CompanyID != nil {
		q = q.Where("t.company_id = ?", *query.Scope.CompanyID)
	}
	if query.Scope.UserID != nil {
		q = q.Where("t.user_id = ?", *query.Scope.UserID)
	}

	f := query.Filters
	if f.DateFrom != nil {
		q = q.Where("t.start_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("t.start_date <= ?", *f.DateTo)
	}
	if f.DriverID != nil {
		q = q.Where("t.user_id = ?", *f.DriverID)
	}
	if f.Destination != "" {
		q = q.Where("CONCAT(o.name, ' - ', d.name) ILIKE ?", "%"+escapeLike(f.Destination)+"%")
	}
	if f.Status != nil {
		q = q.Where("t.status = ?", string(*f.Status))
	}

	var rows []tripRecordRow
	if err := q.Order("t.start_date DESC").Order("t.id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []model.TripRecord{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	details, err := r.loadDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]model.TripRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toRecord(details[row.ID]))
	}
	return result, nil
}

func (r *TripRepository) CountByCompanyBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&tripRow{}).
		Where("company_id = ? AND start_date BETWEEN ? AND ?", companyID, from, to).
		Count(&count).Error
	return count, err
}

func (r *TripRepository) CountByDriver(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&tripRow{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error
	return count, err
}

func (r *TripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", id).Delete(&alertDetailRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&tripRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *TripRepository) DistinctRoutes(ctx context.Context, scope model.TripScope) ([]string, error) {
	baseQuery := `
		SELECT DISTINCT CONCAT(o.name, ' - ', d.name) AS route
		FROM trips t
		JOIN cities o ON o.id = t.origin_city_id
		JOIN cities d ON d.id = t.destination_city_id
	`
	var args []interface{}
	switch {
	case scope.CompanyID != nil:
		baseQuery += " WHERE t.company_id = ?"
		args = append(args, *scope.CompanyID)
	case scope.UserID != nil:
		baseQuery += " WHERE t.user_id = ?"
		args = append(args, *scope.UserID)
	}

	var routes []string
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&routes).Error; err != nil {
		return nil, err
	}
	if routes == nil {
		routes = []string{}
	}
	return routes, nil
}

func (r *TripRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("trips AS t").
		Select("t.*, COALESCE(o.name, '') AS origin_name, COALESCE(d.name, '') AS destination_name").
		Joins("LEFT JOIN cities o ON o.id = t.origin_city_id").
		Joins("LEFT JOIN cities d ON d.id = t.destination_city_id")
}

func (r *TripRepository) loadDetails(ctx context.Context, tripIDs []uuid.UUID) (map[uuid.UUID][]model.AlertDetail, error) {
	var rows []alertDetailRow
	if err := r.db.WithContext(ctx).
		Where("trip_id IN ?", tripIDs).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID][]model.AlertDetail, len(tripIDs))
	for _, row := range rows {
		result[row.TripID] = append(result[row.TripID], row.toModel())
	}
	return result, nil
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return replacer.Replace(value)
}

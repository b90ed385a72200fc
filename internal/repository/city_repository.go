package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fleet-trips/internal/model"
)

type CityRepository struct {
	db *gorm.DB
}

func NewCityRepository(db *gorm.DB) *CityRepository {
	return &CityRepository{db: db}
}

func (r *CityRepository) CreateCity(ctx context.Context, city *model.City) error {
	row := cityRow{
		ID:        city.ID,
		CompanyID: city.CompanyID,
		Name:      city.Name,
		CreatedAt: city.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *CityRepository) GetCity(ctx context.Context, id uuid.UUID) (*model.City, error) {
	var row cityRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	city := row.toModel()
	return &city, nil
}

func (r *CityRepository) ListCities(ctx context.Context, companyID uuid.UUID) ([]model.City, error) {
	var rows []cityRow
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	cities := make([]model.City, 0, len(rows))
	for _, row := range rows {
		cities = append(cities, row.toModel())
	}
	return cities, nil
}

func (r *CityRepository) CountCities(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&cityRow{}).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}

func (r *CityRepository) UpdateCity(ctx context.Context, city *model.City) error {
	res := r.db.WithContext(ctx).Model(&cityRow{}).Where("id = ?", city.ID).Update("name", city.Name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CityRepository) DeleteCity(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&cityRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

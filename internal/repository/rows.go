package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fleet-trips/internal/model"
)

type tripRow struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID         uuid.UUID `gorm:"type:uuid"`
	UserID            uuid.UUID `gorm:"type:uuid"`
	OriginCityID      uuid.UUID `gorm:"type:uuid"`
	DestinationCityID uuid.UUID `gorm:"type:uuid"`
	StartDate         time.Time
	EndDate           *time.Time
	Status            string
	Conduct           string
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false"`
}

func (tripRow) TableName() string { return "trips" }

type tripRecordRow struct {
	tripRow
	OriginName      string
	DestinationName string
}

type alertDetailRow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TripID     uuid.UUID `gorm:"type:uuid"`
	OccurredAt time.Time
	Type       string
	Responded  bool
}

func (alertDetailRow) TableName() string { return "trip_details" }

type cityRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid"`
	Name      string
	CreatedAt time.Time
}

func (cityRow) TableName() string { return "cities" }

func toTripRow(trip *model.Trip) tripRow {
	return tripRow{
		ID:                trip.ID,
		CompanyID:         trip.CompanyID,
		UserID:            trip.UserID,
		OriginCityID:      trip.OriginCityID,
		DestinationCityID: trip.DestinationCityID,
		StartDate:         trip.StartDate,
		EndDate:           trip.EndDate,
		Status:            string(trip.Status),
		Conduct:           string(trip.Conduct),
		CreatedAt:         trip.CreatedAt,
		UpdatedAt:         trip.UpdatedAt,
	}
}

func toDetailRows(tripID uuid.UUID, details []model.AlertDetail) []alertDetailRow {
	rows := make([]alertDetailRow, 0, len(details))
	for _, d := range details {
		rows = append(rows, alertDetailRow{
			ID:         d.ID,
			TripID:     tripID,
			OccurredAt: d.OccurredAt,
			Type:       d.Type,
			Responded:  d.Responded,
		})
	}
	return rows
}

func (r tripRecordRow) toRecord(details []model.AlertDetail) model.TripRecord {
	conduct := model.Conduct(r.Conduct)
	if !conduct.Valid() {
		conduct = model.ConductUnknown
	}
	if details == nil {
		details = []model.AlertDetail{}
	}
	return model.TripRecord{
		Trip: model.Trip{
			ID:                r.ID,
			CompanyID:         r.CompanyID,
			UserID:            r.UserID,
			OriginCityID:      r.OriginCityID,
			DestinationCityID: r.DestinationCityID,
			StartDate:         r.StartDate,
			EndDate:           r.EndDate,
			Status:            model.TripStatus(r.Status),
			Conduct:           conduct,
			Details:           details,
			CreatedAt:         r.CreatedAt,
			UpdatedAt:         r.UpdatedAt,
		},
		OriginName:      r.OriginName,
		DestinationName: r.DestinationName,
	}
}

func (r alertDetailRow) toModel() model.AlertDetail {
	return model.AlertDetail{
		ID:         r.ID,
		OccurredAt: r.OccurredAt,
		Type:       r.Type,
		Responded:  r.Responded,
	}
}

func (r cityRow) toModel() model.City {
	return model.City{
		ID:        r.ID,
		CompanyID: r.CompanyID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
	}
}

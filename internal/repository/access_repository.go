package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gate-access-service/internal/domain/access"
)

// AccessRepository is the gorm-backed Store. Append ordering relies on the
// access_events BIGSERIAL primary key: each insert receives the next id, so
// concurrent appends serialize in the database.
type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

type AccessEvent struct {
	ID          int64          `gorm:"primaryKey"`
	Plate       string         `gorm:"not null"`
	VehicleType string         `gorm:"not null"`
	Owner       string         `gorm:"not null"`
	Status      string         `gorm:"not null"`
	Timestamp   time.Time      `gorm:"not null"`
	RawPayload  datatypes.JSON
	CreatedAt   time.Time
}

type WhitelistEntry struct {
	Plate       string `gorm:"primaryKey"`
	VehicleType string `gorm:"not null"`
	Owner       string `gorm:"not null"`
	CreatedAt   time.Time
}

func (r *AccessRepository) Append(ctx context.Context, event *access.AccessEvent) error {
	dbEvent := AccessEvent{
		Plate:       event.Plate,
		VehicleType: event.VehicleType,
		Owner:       event.Owner,
		Status:      string(event.Status),
		Timestamp:   event.Timestamp,
		CreatedAt:   time.Now(),
	}

	if len(event.RawPayload) > 0 {
		raw, err := json.Marshal(event.RawPayload)
		if err != nil {
			return err
		}
		dbEvent.RawPayload = datatypes.JSON(raw)
	}

	if err := r.db.WithContext(ctx).Create(&dbEvent).Error; err != nil {
		return err
	}

	event.ID = dbEvent.ID
	return nil
}

func (r *AccessRepository) ListRecent(ctx context.Context, limit, offset int) ([]access.AccessEvent, error) {
	query := r.db.WithContext(ctx).Model(&AccessEvent{}).Order("id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []AccessEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]access.AccessEvent, 0, len(rows))
	for _, row := range rows {
		event := access.AccessEvent{
			ID:          row.ID,
			Plate:       row.Plate,
			VehicleType: row.VehicleType,
			Owner:       row.Owner,
			Status:      access.Status(row.Status),
			Timestamp:   row.Timestamp,
		}
		if len(row.RawPayload) > 0 {
			var raw map[string]interface{}
			if err := json.Unmarshal(row.RawPayload, &raw); err == nil {
				event.RawPayload = raw
			}
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *AccessRepository) UpsertWhitelist(ctx context.Context, entry access.WhitelistEntry) error {
	row := WhitelistEntry{
		Plate:       entry.Plate,
		VehicleType: entry.VehicleType,
		Owner:       entry.Owner,
		CreatedAt:   time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plate"}},
			DoUpdates: clause.AssignmentColumns([]string{"vehicle_type", "owner"}),
		}).
		Create(&row).Error
}

func (r *AccessRepository) DeleteWhitelist(ctx context.Context, plate string) error {
	result := r.db.WithContext(ctx).Where("plate = ?", plate).Delete(&WhitelistEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccessRepository) ListWhitelist(ctx context.Context) ([]access.WhitelistEntry, error) {
	var rows []WhitelistEntry
	if err := r.db.WithContext(ctx).Order("plate").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]access.WhitelistEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, access.WhitelistEntry{
			Plate:       row.Plate,
			VehicleType: row.VehicleType,
			Owner:       row.Owner,
		})
	}
	return entries, nil
}

func (r *AccessRepository) GetWhitelistEntry(ctx context.Context, plate string) (*access.WhitelistEntry, error) {
	var row WhitelistEntry
	err := r.db.WithContext(ctx).Where("plate = ?", plate).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &access.WhitelistEntry{
		Plate:       row.Plate,
		VehicleType: row.VehicleType,
		Owner:       row.Owner,
	}, nil
}

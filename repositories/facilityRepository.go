package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type FacilityRepository interface {
	GetByID(ctx context.Context, id string) (*models.Facility, error)
	GetByCode(ctx context.Context, code string) (*models.Facility, error)
	Create(ctx context.Context, facility *models.Facility) error
}

type facilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

// GetByID returns nil, nil when the facility does not exist.
func (r *facilityRepository) GetByID(ctx context.Context, id string) (*models.Facility, error) {
	var facility models.Facility
	err := r.db.WithContext(ctx).First(&facility, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &facility, nil
}

func (r *facilityRepository) GetByCode(ctx context.Context, code string) (*models.Facility, error) {
	var facility models.Facility
	err := r.db.WithContext(ctx).First(&facility, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get facility by code: %w", err)
	}
	return &facility, nil
}

func (r *facilityRepository) Create(ctx context.Context, facility *models.Facility) error {
	if err := r.db.WithContext(ctx).Create(facility).Error; err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	return nil
}

package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ClinicQuery filters and pages a facility's clinics.
type ClinicQuery struct {
	FacilityID string
	Search     string
	IsActive   *bool
	Ascending  bool
	Offset     int
	Limit      int
}

type ClinicRepository interface {
	GetByID(ctx context.Context, id string) (*models.Clinic, error)
	GetByCode(ctx context.Context, facilityID, code string) (*models.Clinic, error)
	GetByName(ctx context.Context, facilityID, name string) (*models.Clinic, error)
	CodeExists(ctx context.Context, facilityID, code string) (bool, error)
	NameExists(ctx context.Context, facilityID, name, excludeID string) (bool, error)
	Create(ctx context.Context, clinic *models.Clinic) error
	Update(ctx context.Context, clinic *models.Clinic) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, query ClinicQuery) ([]models.Clinic, int64, error)
}

type clinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) ClinicRepository {
	return &clinicRepository{db: db}
}

func (r *clinicRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Clinic, error) {
	var clinic models.Clinic
	err := r.db.WithContext(ctx).Where(query, args...).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) GetByID(ctx context.Context, id string) (*models.Clinic, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByCode expects code already normalised to upper case.
func (r *clinicRepository) GetByCode(ctx context.Context, facilityID, code string) (*models.Clinic, error) {
	return r.first(ctx, "facility_id = ? AND code = ?", facilityID, code)
}

func (r *clinicRepository) GetByName(ctx context.Context, facilityID, name string) (*models.Clinic, error) {
	return r.first(ctx, "facility_id = ? AND LOWER(name) = LOWER(?)", facilityID, name)
}

func (r *clinicRepository) CodeExists(ctx context.Context, facilityID, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Clinic{}).
		Where("facility_id = ? AND code = ?", facilityID, code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check clinic code: %w", err)
	}
	return count > 0, nil
}

// NameExists ignores the clinic with excludeID so an update can keep its own name.
func (r *clinicRepository) NameExists(ctx context.Context, facilityID, name, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Clinic{}).
		Where("facility_id = ? AND LOWER(name) = LOWER(?)", facilityID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check clinic name: %w", err)
	}
	return count > 0, nil
}

func (r *clinicRepository) Create(ctx context.Context, clinic *models.Clinic) error {
	if err := r.db.WithContext(ctx).Create(clinic).Error; err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *models.Clinic) error {
	err := r.db.WithContext(ctx).Model(clinic).
		Select("name", "description").
		Updates(clinic).Error
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) SetActive(ctx context.Context, id string, active bool) error {
	err := r.db.WithContext(ctx).Model(&models.Clinic{}).
		Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		return fmt.Errorf("failed to update clinic status: %w", err)
	}
	return nil
}

func (r *clinicRepository) List(ctx context.Context, query ClinicQuery) ([]models.Clinic, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Clinic{}).Where("facility_id = ?", query.FacilityID)
	if query.IsActive != nil {
		q = q.Where("is_active = ?", *query.IsActive)
	}
	if query.Search != "" {
		pattern := likePattern(query.Search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count clinics: %w", err)
	}

	var clinics []models.Clinic
	err := q.Order("name " + orderDirection(query.Ascending)).
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&clinics).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, total, nil
}

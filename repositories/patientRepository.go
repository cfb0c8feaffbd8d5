package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PatientQuery filters a facility's patients by registration time.
// CreatedFrom is inclusive and CreatedTo exclusive.
type PatientQuery struct {
	FacilityID  string
	CreatedFrom time.Time
	CreatedTo   time.Time
	Gender      string
	Search      string
	Ascending   bool
	Offset      int
	Limit       int
}

type PatientRepository interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByCode(ctx context.Context, facilityID, code string) (*models.Patient, error)
	GetByEmail(ctx context.Context, facilityID, email string) (*models.Patient, error)
	EmailExists(ctx context.Context, facilityID, email string) (bool, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CountByFacility(ctx context.Context, facilityID string) (int64, error)
	Create(ctx context.Context, patient *models.Patient) error
	List(ctx context.Context, query PatientQuery) ([]models.Patient, int64, error)
}

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Where(query, args...).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *patientRepository) GetByCode(ctx context.Context, facilityID, code string) (*models.Patient, error) {
	return r.first(ctx, "facility_id = ? AND patient_code = ?", facilityID, code)
}

func (r *patientRepository) GetByEmail(ctx context.Context, facilityID, email string) (*models.Patient, error) {
	return r.first(ctx, "facility_id = ? AND LOWER(email) = LOWER(?)", facilityID, email)
}

func (r *patientRepository) EmailExists(ctx context.Context, facilityID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("facility_id = ? AND LOWER(email) = LOWER(?)", facilityID, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check patient email: %w", err)
	}
	return count > 0, nil
}

// CodeExists also sees soft-deleted patients; codes are never reused.
func (r *patientRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Patient{}).
		Where("patient_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check patient code: %w", err)
	}
	return count > 0, nil
}

func (r *patientRepository) CountByFacility(ctx context.Context, facilityID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("facility_id = ?", facilityID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	if err := r.db.WithContext(ctx).Create(patient).Error; err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, query PatientQuery) ([]models.Patient, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Patient{}).
		Where("facility_id = ?", query.FacilityID).
		Where("created_at >= ? AND created_at < ?", query.CreatedFrom, query.CreatedTo)
	if query.Gender != "" {
		q = q.Where("LOWER(gender) = LOWER(?)", query.Gender)
	}
	if query.Search != "" {
		pattern := likePattern(query.Search)
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(patient_code) LIKE ? OR phone LIKE ?)",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	var patients []models.Patient
	direction := orderDirection(query.Ascending)
	err := q.Order("first_name " + direction).Order("last_name " + direction).
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&patients).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

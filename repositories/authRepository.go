package repositories

import (
	"ClinicDesk/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	GetUserByID(ctx context.Context, id string) (*models.StaffUser, error)
	CreateUser(ctx context.Context, user *models.StaffUser) error
	ListByFacility(ctx context.Context, facilityID string) ([]models.StaffUser, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StaffUser{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*models.StaffUser, error) {
	var user models.StaffUser
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.StaffUser, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.StaffUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ListByFacility returns every staff account of the facility, oldest first.
func (r *userRepository) ListByFacility(ctx context.Context, facilityID string) ([]models.StaffUser, error) {
	var users []models.StaffUser
	err := r.db.WithContext(ctx).
		Where("facility_id = ?", facilityID).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list staff users: %w", err)
	}
	return users, nil
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.StaffUser{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update user status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

package services

import (
	"ClinicDesk/cache"
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"ClinicDesk/utils"
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type RegisterStaffRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

func (r RegisterStaffRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.EmailFormat),
		validation.Field(&r.Password, validation.Required, utils.StrongPassword),
		validation.Field(&r.Role, validation.In(models.StaffRoles...)),
	)
}

type AuthResponse struct {
	Token      string    `json:"token"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	FacilityID string    `json:"facility_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RegisterStaff(ctx context.Context, facilityID string, req RegisterStaffRequest) (*models.StaffUser, error)
	CreateAdmin(ctx context.Context, facilityCode string, req RegisterStaffRequest) (*models.StaffUser, error)
	GetUser(ctx context.Context, userID string) (*models.StaffUser, error)
	GetStaffUser(ctx context.Context, facilityID, userID string) (*models.StaffUser, error)
	ListStaff(ctx context.Context, facilityID string) ([]models.StaffUser, error)
	SetUserActive(ctx context.Context, facilityID, requesterID, userID string, active bool) error
}

type authService struct {
	uow    *repositories.UnitOfWork
	cache  *cache.Cache
	tokens *utils.TokenMaker
	log    *zap.Logger
}

func NewAuthService(uow *repositories.UnitOfWork, cache *cache.Cache, tokens *utils.TokenMaker, log *zap.Logger) AuthService {
	return &authService{uow: uow, cache: cache, tokens: tokens, log: log}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	user, err := s.uow.Users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		s.log.Warn("login failed", zap.String("email", req.Email))
		return nil, unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, unauthorized("Your account has been deactivated. Please contact your administrator.")
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Role, user.FacilityID)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return &AuthResponse{
		Token:      token,
		Email:      user.Email,
		FullName:   user.FullName(),
		Role:       user.Role,
		FacilityID: user.FacilityID,
		ExpiresAt:  expiresAt,
	}, nil
}

// RegisterStaff creates an account in the caller's facility. Role defaults
// to FrontDeskStaff.
func (s *authService) RegisterStaff(ctx context.Context, facilityID string, req RegisterStaffRequest) (*models.StaffUser, error) {
	if req.Role == "" {
		req.Role = models.RoleFrontDeskStaff
	}
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := requireActiveFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}
	return s.createUser(ctx, facilityID, req)
}

// CreateAdmin provisions the first administrator of a facility.
func (s *authService) CreateAdmin(ctx context.Context, facilityCode string, req RegisterStaffRequest) (*models.StaffUser, error) {
	req.Role = models.RoleAdmin
	if err := validationFailed(req.Validate()); err != nil {
		return nil, err
	}
	facility, err := s.uow.Facilities.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(facilityCode)))
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, notFound("Facility not found")
	}
	return s.createUser(ctx, facility.ID, req)
}

func (s *authService) createUser(ctx context.Context, facilityID string, req RegisterStaffRequest) (*models.StaffUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user *models.StaffUser
	err := withLock(ctx, s.cache, s.log, "user_lock:"+email, func() error {
		exists, err := s.uow.Users.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return invalidState("User with this email already exists")
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}
		user = &models.StaffUser{
			FacilityID:   facilityID,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        email,
			PasswordHash: hash,
			Role:         req.Role,
			IsActive:     true,
		}
		return s.uow.Users.CreateUser(ctx, user)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidState("User with this email already exists")
		}
		return nil, err
	}
	s.log.Info("staff user created",
		zap.String("user_id", user.ID),
		zap.String("facility_id", facilityID),
		zap.String("role", user.Role))
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*models.StaffUser, error) {
	user, err := s.uow.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("User not found")
	}
	return user, nil
}

// GetStaffUser looks a user up within one facility. Accounts of other
// facilities are reported as not found.
func (s *authService) GetStaffUser(ctx context.Context, facilityID, userID string) (*models.StaffUser, error) {
	user, err := s.uow.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.FacilityID != facilityID {
		return nil, notFound("User not found")
	}
	return user, nil
}

func (s *authService) ListStaff(ctx context.Context, facilityID string) ([]models.StaffUser, error) {
	if _, err := requireFacility(ctx, s.uow, facilityID); err != nil {
		return nil, err
	}
	users, err := s.uow.Users.ListByFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.StaffUser{}
	}
	return users, nil
}

// SetUserActive enables or disables a staff account of the facility.
// Inactive accounts cannot log in. Nobody may deactivate themselves.
func (s *authService) SetUserActive(ctx context.Context, facilityID, requesterID, userID string, active bool) error {
	user, err := s.GetStaffUser(ctx, facilityID, userID)
	if err != nil {
		return err
	}
	if !active && user.ID == requesterID {
		return invalid("Cannot deactivate your own account")
	}
	updated, err := s.uow.Users.SetActive(ctx, user.ID, active)
	if err != nil {
		return err
	}
	if !updated {
		return notFound("User not found")
	}
	s.log.Info("staff user status changed",
		zap.String("user_id", user.ID),
		zap.String("changed_by", requesterID),
		zap.Bool("active", active))
	return nil
}

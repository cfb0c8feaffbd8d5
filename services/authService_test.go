package services

import (
	"ClinicDesk/cache"
	"ClinicDesk/models"
	"ClinicDesk/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFacilityCreate(t *testing.T) {
	f := newFixture(t, "0")
	svc := NewFacilityService(f.uow, zap.NewNop())

	created, err := svc.Create(f.ctx, CreateFacilityRequest{Name: "Hilltop Clinic", Code: " htc "})
	require.NoError(t, err)
	assert.Equal(t, "HTC", created.Code)
	assert.True(t, created.IsActive)

	_, err = svc.Create(f.ctx, CreateFacilityRequest{Name: "Another", Code: "lks"})
	assert.True(t, IsKind(err, KindInvalidState))

	_, err = svc.Get(f.ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, IsKind(err, KindNotFound))

	got, err := svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hilltop Clinic", got.Name)
}

func TestAuthService(t *testing.T) {
	f := newFixture(t, "0")
	tokens, err := utils.NewTokenMaker("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	svc := NewAuthService(f.uow, cache.New(nil), tokens, zap.NewNop())

	admin, err := svc.CreateAdmin(f.ctx, "lks", RegisterStaffRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "Grace@Lakeside.example",
		Password:  "Sup3r$ecret",
		Role:      models.RoleFrontDeskStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "grace@lakeside.example", admin.Email)
	assert.NotEqual(t, "Sup3r$ecret", admin.PasswordHash)

	_, err = svc.CreateAdmin(f.ctx, "NOPE", RegisterStaffRequest{FirstName: "A", LastName: "B", Email: "a@b.example", Password: "Sup3r$ecret"})
	assert.True(t, IsKind(err, KindNotFound))

	t.Run("login issues a facility-bound token", func(t *testing.T) {
		resp, err := svc.Login(f.ctx, LoginRequest{Email: "grace@lakeside.example", Password: "Sup3r$ecret"})
		require.NoError(t, err)
		claims, err := tokens.ValidateToken(resp.Token, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, f.facility.ID, claims.FacilityID)
		assert.Equal(t, admin.ID, claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(f.ctx, LoginRequest{Email: "grace@lakeside.example", Password: "nope"})
		assert.True(t, IsKind(err, KindUnauthorized))
	})

	t.Run("staff defaults to front desk", func(t *testing.T) {
		staff, err := svc.RegisterStaff(f.ctx, f.facility.ID, RegisterStaffRequest{
			FirstName: "Tunde",
			LastName:  "Bello",
			Email:     "tunde@lakeside.example",
			Password:  "Fr0nt#Desk",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleFrontDeskStaff, staff.Role)

		_, err = svc.RegisterStaff(f.ctx, f.facility.ID, RegisterStaffRequest{
			FirstName: "Tunde",
			LastName:  "Again",
			Email:     "TUNDE@lakeside.example",
			Password:  "Fr0nt#Desk",
		})
		assert.True(t, IsKind(err, KindInvalidState))
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := svc.RegisterStaff(f.ctx, f.facility.ID, RegisterStaffRequest{
			FirstName: "Weak",
			LastName:  "Password",
			Email:     "weak@lakeside.example",
			Password:  "password",
		})
		assert.True(t, IsKind(err, KindValidation))
	})
}

func TestStaffManagement(t *testing.T) {
	f := newFixture(t, "0")
	tokens, err := utils.NewTokenMaker("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	svc := NewAuthService(f.uow, cache.New(nil), tokens, zap.NewNop())

	admin, err := svc.CreateAdmin(f.ctx, "LKS", RegisterStaffRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@lakeside.example",
		Password:  "Sup3r$ecret",
	})
	require.NoError(t, err)
	staff, err := svc.RegisterStaff(f.ctx, f.facility.ID, RegisterStaffRequest{
		FirstName: "Tunde",
		LastName:  "Bello",
		Email:     "tunde@lakeside.example",
		Password:  "Fr0nt#Desk",
	})
	require.NoError(t, err)

	other := &models.Facility{Name: "Hilltop Clinic", Code: "HTC", IsActive: true}
	require.NoError(t, f.uow.Facilities.Create(f.ctx, other))
	outsider, err := svc.CreateAdmin(f.ctx, "HTC", RegisterStaffRequest{
		FirstName: "Ngozi",
		LastName:  "Eze",
		Email:     "ngozi@hilltop.example",
		Password:  "Sup3r$ecret",
	})
	require.NoError(t, err)

	t.Run("lists only the facility's staff", func(t *testing.T) {
		list, err := svc.ListStaff(f.ctx, f.facility.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		emails := []string{list[0].Email, list[1].Email}
		assert.ElementsMatch(t, []string{"grace@lakeside.example", "tunde@lakeside.example"}, emails)

		_, err = svc.ListStaff(f.ctx, "00000000-0000-0000-0000-000000000000")
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("gets a user within the facility only", func(t *testing.T) {
		got, err := svc.GetStaffUser(f.ctx, f.facility.ID, staff.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tunde Bello", got.FullName())

		_, err = svc.GetStaffUser(f.ctx, f.facility.ID, outsider.ID)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("deactivated staff cannot log in until reactivated", func(t *testing.T) {
		require.NoError(t, svc.SetUserActive(f.ctx, f.facility.ID, admin.ID, staff.ID, false))
		_, err := svc.Login(f.ctx, LoginRequest{Email: "tunde@lakeside.example", Password: "Fr0nt#Desk"})
		assert.True(t, IsKind(err, KindUnauthorized))

		require.NoError(t, svc.SetUserActive(f.ctx, f.facility.ID, admin.ID, staff.ID, true))
		_, err = svc.Login(f.ctx, LoginRequest{Email: "tunde@lakeside.example", Password: "Fr0nt#Desk"})
		assert.NoError(t, err)
	})

	t.Run("refuses self-deactivation", func(t *testing.T) {
		err := svc.SetUserActive(f.ctx, f.facility.ID, admin.ID, admin.ID, false)
		assert.True(t, IsKind(err, KindValidation))
		got, err := svc.GetStaffUser(f.ctx, f.facility.ID, admin.ID)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("cannot touch another facility's staff", func(t *testing.T) {
		err := svc.SetUserActive(f.ctx, f.facility.ID, admin.ID, outsider.ID, false)
		assert.True(t, IsKind(err, KindNotFound))
		got, err := svc.GetStaffUser(f.ctx, other.ID, outsider.ID)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})
}

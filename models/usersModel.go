package models

const (
	RoleAdmin          = "Admin"
	RoleFrontDeskStaff = "FrontDeskStaff"
)

// StaffRoles lists every role a staff account may hold.
var StaffRoles = []interface{}{RoleAdmin, RoleFrontDeskStaff}

// StaffUser represents a facility staff account.
type StaffUser struct {
	Base
	FacilityID   string `gorm:"column:facility_id;size:36;not null;index" json:"facility_id"`
	FirstName    string `gorm:"column:first_name;size:100;not null" json:"first_name"`
	LastName     string `gorm:"column:last_name;size:100;not null" json:"last_name"`
	Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string `gorm:"column:role;size:20;not null;check:role IN ('Admin', 'FrontDeskStaff')" json:"role"`
	IsActive     bool   `gorm:"column:is_active;not null" json:"is_active"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

func (u StaffUser) FullName() string {
	return u.FirstName + " " + u.LastName
}

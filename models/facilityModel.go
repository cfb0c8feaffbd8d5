package models

// Facility is the tenant boundary. Clinics, patients and staff hang off it.
type Facility struct {
	Base
	Name     string `gorm:"column:name;size:200;not null" json:"name"`
	Code     string `gorm:"column:code;size:50;not null;uniqueIndex" json:"code"`
	Address  string `gorm:"column:address;size:500" json:"address"`
	Phone    string `gorm:"column:phone;size:20" json:"phone"`
	Email    string `gorm:"column:email;size:100" json:"email"`
	IsActive bool   `gorm:"column:is_active;not null" json:"is_active"`
}

func (Facility) TableName() string {
	return "facilities"
}

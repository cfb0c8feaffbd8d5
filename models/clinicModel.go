package models

// Clinic is a department inside a facility where appointments take place.
type Clinic struct {
	Base
	FacilityID  string `gorm:"column:facility_id;size:36;not null;uniqueIndex:idx_clinic_facility_code;index" json:"facility_id"`
	Name        string `gorm:"column:name;size:200;not null" json:"name"`
	Code        string `gorm:"column:code;size:50;not null;uniqueIndex:idx_clinic_facility_code" json:"code"`
	Description string `gorm:"column:description;size:500" json:"description"`
	IsActive    bool   `gorm:"column:is_active;not null" json:"is_active"`
}

func (Clinic) TableName() string {
	return "clinics"
}

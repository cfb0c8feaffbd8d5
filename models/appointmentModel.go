package models

import (
	"time"
)

const (
	// AppointmentDateLayout is the wire and storage format of AppointmentDate.
	AppointmentDateLayout = "2006-01-02"
	// AppointmentTimeLayout is the wire and storage format of AppointmentTime.
	AppointmentTimeLayout = "15:04"
)

type AppointmentStatus string

const (
	AppointmentScheduled      AppointmentStatus = "Scheduled"
	AppointmentInvoiced       AppointmentStatus = "Invoiced"
	AppointmentPaid           AppointmentStatus = "Paid"
	AppointmentAwaitingVitals AppointmentStatus = "AwaitingVitals"
	AppointmentInProgress     AppointmentStatus = "InProgress"
	AppointmentCompleted      AppointmentStatus = "Completed"
	AppointmentCancelled      AppointmentStatus = "Cancelled"
	AppointmentNoShow         AppointmentStatus = "NoShow"
)

// appointmentTransitions lists the legal next states for each status.
// Completed, Cancelled and NoShow are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled:      {AppointmentInvoiced, AppointmentCancelled, AppointmentNoShow},
	AppointmentInvoiced:       {AppointmentPaid, AppointmentCancelled},
	AppointmentPaid:           {AppointmentAwaitingVitals},
	AppointmentAwaitingVitals: {AppointmentInProgress, AppointmentNoShow},
	AppointmentInProgress:     {AppointmentCompleted},
}

// ActiveAppointmentStatuses block a clinic from being deactivated.
var ActiveAppointmentStatuses = []AppointmentStatus{
	AppointmentScheduled,
	AppointmentAwaitingVitals,
	AppointmentInProgress,
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment model
type Appointment struct {
	Base
	FacilityID      string            `gorm:"column:facility_id;size:36;not null;index" json:"facility_id"`
	PatientID       string            `gorm:"column:patient_id;size:36;not null;index" json:"patient_id"`
	ClinicID        string            `gorm:"column:clinic_id;size:36;not null;index" json:"clinic_id"`
	AppointmentDate string            `gorm:"column:appointment_date;size:10;not null;index" json:"appointment_date"`
	AppointmentTime string            `gorm:"column:appointment_time;size:5;not null" json:"appointment_time"`
	AppointmentType string            `gorm:"column:appointment_type;size:50" json:"appointment_type"`
	Status          AppointmentStatus `gorm:"column:status;size:20;not null;index" json:"status"`
	Notes           string            `gorm:"column:notes;size:1000" json:"notes"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// DateTime combines the stored date and time in loc.
func (a Appointment) DateTime(loc *time.Location) (time.Time, error) {
	return ParseAppointmentDateTime(a.AppointmentDate, a.AppointmentTime, loc)
}

// ParseAppointmentDateTime combines a date and a time of day into one instant in loc.
func ParseAppointmentDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(AppointmentDateLayout+" "+AppointmentTimeLayout, date+" "+clock, loc)
}

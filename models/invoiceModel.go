package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceUnpaid    InvoiceStatus = "Unpaid"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceCancelled InvoiceStatus = "Cancelled"
	InvoiceRefunded  InvoiceStatus = "Refunded"
)

// Invoice is generated from exactly one appointment. Its amounts are
// derived from the items at creation time and never edited afterwards.
type Invoice struct {
	Base
	FacilityID         string          `gorm:"column:facility_id;size:36;not null;index" json:"facility_id"`
	PatientID          string          `gorm:"column:patient_id;size:36;not null;index" json:"patient_id"`
	AppointmentID      string          `gorm:"column:appointment_id;size:36;not null;uniqueIndex" json:"appointment_id"`
	InvoiceNumber      string          `gorm:"column:invoice_number;size:20;not null;uniqueIndex" json:"invoice_number"`
	Subtotal           decimal.Decimal `gorm:"column:subtotal;type:numeric(18,2);not null" json:"subtotal"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"column:discount_amount;type:numeric(18,2);not null;default:0" json:"discount_amount"`
	TotalAmount        decimal.Decimal `gorm:"column:total_amount;type:numeric(18,2);not null" json:"total_amount"`
	Status             InvoiceStatus   `gorm:"column:status;size:20;not null;index" json:"status"`
	PaidAt             *time.Time      `gorm:"column:paid_at" json:"paid_at,omitempty"`
	Items              []InvoiceItem   `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is a priced line on an invoice.
type InvoiceItem struct {
	Base
	InvoiceID   string          `gorm:"column:invoice_id;size:36;not null;index" json:"invoice_id"`
	ServiceName string          `gorm:"column:service_name;size:200;not null" json:"service_name"`
	Description string          `gorm:"column:description;size:500" json:"description"`
	Quantity    int             `gorm:"column:quantity;not null;check:quantity >= 1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(18,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(18,2);not null" json:"total_price"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnitOfWork groups the repositories that share one database handle.
// Inside Transaction every repository is bound to the same *gorm.DB
// transaction, so their writes commit or roll back together.
type UnitOfWork struct {
	db           *gorm.DB
	Facilities   FacilityRepository
	Clinics      ClinicRepository
	Patients     PatientRepository
	Wallets      WalletRepository
	Appointments AppointmentRepository
	Invoices     InvoiceRepository
	Users        UserRepository
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:           db,
		Facilities:   NewFacilityRepository(db),
		Clinics:      NewClinicRepository(db),
		Patients:     NewPatientRepository(db),
		Wallets:      NewWalletRepository(db),
		Appointments: NewAppointmentRepository(db),
		Invoices:     NewInvoiceRepository(db),
		Users:        NewUserRepository(db),
	}
}

// Transaction runs fn inside a database transaction. Returning an error
// from fn, or panicking, rolls back every write made through tx.
func (u *UnitOfWork) Transaction(ctx context.Context, fn func(tx *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}

// forUpdate adds SELECT ... FOR UPDATE on dialects that support row locks.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

// orderDirection maps an ascending flag to SQL.
func orderDirection(ascending bool) string {
	if ascending {
		return "ASC"
	}
	return "DESC"
}

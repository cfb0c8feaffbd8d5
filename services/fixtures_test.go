package services

import (
	"ClinicDesk/cache"
	"ClinicDesk/database"
	"ClinicDesk/models"
	"ClinicDesk/repositories"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is a Wednesday morning; appointments in tests are booked after it.
var fixedNow = time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

var patientSeq atomic.Int64

// newTestDB opens a private in-memory SQLite database with the full schema.
// One connection serialises writers the way row locks do on Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	uow      *repositories.UnitOfWork
	facility *models.Facility
	clinic   *models.Clinic
	patient  *models.Patient
	wallet   *models.Wallet

	appointments *appointmentService
	invoices     *invoiceService
	clinics      *clinicService
	patients     *patientService
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	uow := repositories.NewUnitOfWork(db)
	log := zap.NewNop()
	c := cache.New(nil)

	f := &fixture{ctx: ctx, db: db, uow: uow}
	f.facility = &models.Facility{Name: "Lakeside Hospital", Code: "LKS", IsActive: true}
	require.NoError(t, uow.Facilities.Create(ctx, f.facility))

	f.clinic = &models.Clinic{FacilityID: f.facility.ID, Name: "General Outpatient", Code: "GOPD", IsActive: true}
	require.NoError(t, uow.Clinics.Create(ctx, f.clinic))

	f.patient, f.wallet = f.addPatient(t, "Ada", "Obi", "ada@example.com", balance)

	f.appointments = NewAppointmentService(uow, log, "NGN").(*appointmentService)
	f.appointments.now = clock
	f.invoices = NewInvoiceService(uow, c, log).(*invoiceService)
	f.invoices.now = clock
	f.clinics = NewClinicService(uow, c, log).(*clinicService)
	f.patients = NewPatientService(uow, c, log, "NGN").(*patientService)
	f.patients.now = clock
	return f
}

func (f *fixture) addPatient(t *testing.T, first, last, email, balance string) (*models.Patient, *models.Wallet) {
	t.Helper()
	patient := &models.Patient{
		FacilityID:  f.facility.ID,
		FirstName:   first,
		LastName:    last,
		PatientCode: fmt.Sprintf("TST%05d", patientSeq.Add(1)),
		Phone:       "+2348012345678",
		Email:       email,
		DateOfBirth: "1990-05-20",
		Gender:      "Female",
		Address:     "12 Marina Road",
	}
	require.NoError(t, f.uow.Patients.Create(f.ctx, patient))
	wallet := &models.Wallet{
		PatientID:           patient.ID,
		Balance:             decimal.RequireFromString(balance),
		Currency:            "NGN",
		LastTransactionDate: fixedNow,
	}
	require.NoError(t, f.uow.Wallets.Create(f.ctx, wallet))
	return patient, wallet
}

// book creates a Scheduled appointment tomorrow at the given time.
func (f *fixture) book(t *testing.T, at string) *AppointmentDetails {
	t.Helper()
	details, err := f.appointments.Create(f.ctx, f.facility.ID, CreateAppointmentRequest{
		PatientID:       f.patient.ID,
		ClinicID:        f.clinic.ID,
		AppointmentDate: "2025-03-13",
		AppointmentTime: at,
		AppointmentType: "Consultation",
	})
	require.NoError(t, err)
	return details
}

func (f *fixture) reloadWallet(t *testing.T) *models.Wallet {
	t.Helper()
	wallet, err := f.uow.Wallets.GetByPatientID(f.ctx, f.patient.ID)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	return wallet
}

func (f *fixture) reloadAppointment(t *testing.T, id string) *models.Appointment {
	t.Helper()
	appointment, err := f.uow.Appointments.GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, appointment)
	return appointment
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

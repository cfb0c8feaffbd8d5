package services

import (
	"ClinicDesk/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClinicCreate(t *testing.T) {
	f := newFixture(t, "0")

	clinic, err := f.clinics.Create(f.ctx, f.facility.ID, CreateClinicRequest{Name: " Dental ", Code: "dnt"})
	require.NoError(t, err)
	assert.Equal(t, "DNT", clinic.Code)
	assert.Equal(t, "Dental", clinic.Name)
	assert.True(t, clinic.IsActive)

	_, err = f.clinics.Create(f.ctx, f.facility.ID, CreateClinicRequest{Name: "Dental Annex", Code: "DNT"})
	assert.True(t, IsKind(err, KindInvalidState), "duplicate code")

	_, err = f.clinics.Create(f.ctx, f.facility.ID, CreateClinicRequest{Name: "dental", Code: "DNT2"})
	assert.True(t, IsKind(err, KindInvalidState), "duplicate name ignores case")

	_, err = f.clinics.Create(f.ctx, f.facility.ID, CreateClinicRequest{Name: "X"})
	assert.True(t, IsKind(err, KindValidation))
}

func TestClinicLookups(t *testing.T) {
	f := newFixture(t, "0")

	byCode, err := f.clinics.GetByCode(f.ctx, f.facility.ID, "gopd")
	require.NoError(t, err)
	assert.Equal(t, f.clinic.ID, byCode.ID)

	byName, err := f.clinics.GetByName(f.ctx, f.facility.ID, "general outpatient")
	require.NoError(t, err)
	assert.Equal(t, f.clinic.ID, byName.ID)

	byID, err := f.clinics.GetByID(f.ctx, f.facility.ID, f.clinic.ID)
	require.NoError(t, err)
	assert.Equal(t, "GOPD", byID.Code)

	_, err = f.clinics.GetByID(f.ctx, "00000000-0000-0000-0000-000000000000", f.clinic.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestClinicUpdate(t *testing.T) {
	f := newFixture(t, "0")
	_, err := f.clinics.Create(f.ctx, f.facility.ID, CreateClinicRequest{Name: "Dental", Code: "DNT"})
	require.NoError(t, err)

	_, err = f.clinics.Update(f.ctx, f.facility.ID, f.clinic.ID, UpdateClinicRequest{Name: "Dental"})
	assert.True(t, IsKind(err, KindInvalidState))

	updated, err := f.clinics.Update(f.ctx, f.facility.ID, f.clinic.ID, UpdateClinicRequest{Name: "Outpatients", Description: "Walk-ins"})
	require.NoError(t, err)
	assert.Equal(t, "Outpatients", updated.Name)
	assert.Equal(t, "GOPD", updated.Code)
}

func TestClinicDeactivate(t *testing.T) {
	f := newFixture(t, "500")
	appointment := f.book(t, "10:00")

	err := f.clinics.Deactivate(f.ctx, f.facility.ID, f.clinic.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidState))
	assert.Contains(t, err.Error(), "1 active appointment")

	updated, err := f.uow.Appointments.UpdateStatus(f.ctx, appointment.ID, models.AppointmentScheduled, models.AppointmentCancelled)
	require.NoError(t, err)
	require.True(t, updated)

	require.NoError(t, f.clinics.Deactivate(f.ctx, f.facility.ID, f.clinic.ID))
	clinic, err := f.clinics.GetByID(f.ctx, f.facility.ID, f.clinic.ID)
	require.NoError(t, err)
	assert.False(t, clinic.IsActive)

	assert.True(t, IsKind(f.clinics.Deactivate(f.ctx, f.facility.ID, f.clinic.ID), KindInvalidState))
	require.NoError(t, f.clinics.Activate(f.ctx, f.facility.ID, f.clinic.ID))
	assert.True(t, IsKind(f.clinics.Activate(f.ctx, f.facility.ID, f.clinic.ID), KindInvalidState))
}

func TestClinicList(t *testing.T) {
	f := newFixture(t, "0")
	for _, req := range []CreateClinicRequest{
		{Name: "Dental", Code: "DNT"},
		{Name: "Antenatal", Code: "ANC", Description: "Pregnancy care"},
	} {
		_, err := f.clinics.Create(f.ctx, f.facility.ID, req)
		require.NoError(t, err)
	}
	require.NoError(t, f.uow.Clinics.SetActive(f.ctx, f.clinic.ID, false))

	page, err := f.clinics.List(f.ctx, f.facility.ID, ClinicFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Antenatal", page.Items[0].Name)

	active := true
	page, err = f.clinics.List(f.ctx, f.facility.ID, ClinicFilter{IsActive: &active, Descending: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Dental", page.Items[0].Name)

	page, err = f.clinics.List(f.ctx, f.facility.ID, ClinicFilter{Search: "pregnancy"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ANC", page.Items[0].Code)

	_, err = f.clinics.List(f.ctx, "00000000-0000-0000-0000-000000000000", ClinicFilter{})
	assert.True(t, IsKind(err, KindNotFound))
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentTransitions(t *testing.T) {
	allowed := []struct{ from, to AppointmentStatus }{
		{AppointmentScheduled, AppointmentInvoiced},
		{AppointmentScheduled, AppointmentCancelled},
		{AppointmentScheduled, AppointmentNoShow},
		{AppointmentInvoiced, AppointmentPaid},
		{AppointmentInvoiced, AppointmentCancelled},
		{AppointmentPaid, AppointmentAwaitingVitals},
		{AppointmentAwaitingVitals, AppointmentInProgress},
		{AppointmentAwaitingVitals, AppointmentNoShow},
		{AppointmentInProgress, AppointmentCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	refused := []struct{ from, to AppointmentStatus }{
		{AppointmentScheduled, AppointmentPaid},
		{AppointmentScheduled, AppointmentAwaitingVitals},
		{AppointmentInvoiced, AppointmentAwaitingVitals},
		{AppointmentPaid, AppointmentInvoiced},
		{AppointmentPaid, AppointmentCancelled},
		{AppointmentCompleted, AppointmentScheduled},
	}
	for _, tc := range refused {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	for _, s := range []AppointmentStatus{AppointmentCompleted, AppointmentCancelled, AppointmentNoShow} {
		for next := range appointmentTransitions {
			assert.False(t, s.CanTransitionTo(next), "%s is terminal", s)
		}
	}
}

func TestParseAppointmentDateTime(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	at, err := ParseAppointmentDateTime("2025-03-13", "09:05", lagos)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-13T09:05:00+01:00", at.Format(time.RFC3339))

	_, err = ParseAppointmentDateTime("2025-02-30", "09:05", lagos)
	assert.Error(t, err)
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStartAndEnd(t *testing.T) {
	appointment := Appointment{Date: "2099-05-20", Time: "09:00", Duration: 45}

	start, err := appointment.Start()
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2099, 5, 20, 9, 0, 0, 0, time.Local), start)

	end, err := appointment.End()
	assert.NoError(t, err)
	assert.Equal(t, start.Add(45*time.Minute), end)
}

func TestAppointmentStartRejectsMalformedValues(t *testing.T) {
	_, err := (&Appointment{Date: "20-05-2099", Time: "09:00"}).Start()
	assert.Error(t, err)

	_, err = (&Appointment{Date: "2099-05-20", Time: "9am"}).Start()
	assert.Error(t, err)
}

func TestValidSpecialization(t *testing.T) {
	for _, s := range Specializations {
		assert.True(t, ValidSpecialization(s), s)
	}
	assert.False(t, ValidSpecialization("Dentistry"))
	assert.False(t, ValidSpecialization("cardiology")) // case sensitive
	assert.False(t, ValidSpecialization(""))
}

package utils

import (
	"testing"

	"MedaSync/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhoneNumber_StripsSeparators(t *testing.T) {
	assert.Equal(t, "81234567", FormatPhoneNumber("81 234 567"))
	assert.Equal(t, "264812345678", FormatPhoneNumber("+264 81-234-5678"))
	assert.Equal(t, "8123456", FormatPhoneNumber("(812) 3456"))
	assert.Equal(t, "", FormatPhoneNumber("abc"))
}

func TestValidatePhoneNumber(t *testing.T) {
	// Formatted input is accepted; only the digit count matters.
	assert.True(t, ValidatePhoneNumber("+264 81 234 5678"))
	assert.True(t, ValidatePhoneNumber("8123456"))        // 7 digits, lower bound
	assert.True(t, ValidatePhoneNumber("123456789012345")) // 15 digits, upper bound

	assert.False(t, ValidatePhoneNumber(""))
	assert.False(t, ValidatePhoneNumber("123"))
	assert.False(t, ValidatePhoneNumber("123456"))           // 6 digits
	assert.False(t, ValidatePhoneNumber("1234567890123456")) // 16 digits
	assert.False(t, ValidatePhoneNumber("+-() "))            // no digits at all
}

func TestValidateCountryCode(t *testing.T) {
	for _, cc := range CountryCodes {
		assert.True(t, ValidateCountryCode(cc.Code), cc.Code)
	}
	assert.False(t, ValidateCountryCode("+1"))
	assert.False(t, ValidateCountryCode("264")) // missing plus
	assert.False(t, ValidateCountryCode(""))
}

func validPatient() models.Patient {
	return models.Patient{
		Name:          "Amara",
		Surname:       "Okafor",
		DateOfBirth:   "1988-04-12",
		Gender:        "Female",
		Email:         "amara.okafor@example.com",
		CountryCode:   "+234",
		ContactNumber: "812 345 6789",
	}
}

func TestValidatePatientData_Accepts(t *testing.T) {
	assert.NoError(t, ValidatePatientData(validPatient()))
}

func TestValidatePatientData_EmailOptional(t *testing.T) {
	patient := validPatient()
	patient.Email = ""
	assert.NoError(t, ValidatePatientData(patient))
}

func TestValidatePatientData_Rejects(t *testing.T) {
	patient := validPatient()
	patient.Name = ""
	assert.Error(t, ValidatePatientData(patient))

	patient = validPatient()
	patient.Email = "not-an-email"
	assert.Error(t, ValidatePatientData(patient))

	patient = validPatient()
	patient.CountryCode = "+1"
	assert.ErrorIs(t, ValidatePatientData(patient), ErrInvalidCountryCode)

	patient = validPatient()
	patient.ContactNumber = "123"
	assert.ErrorIs(t, ValidatePatientData(patient), ErrInvalidPhoneNumber)

	patient = validPatient()
	patient.DateOfBirth = "12/04/1988"
	assert.Error(t, ValidatePatientData(patient))

	patient = validPatient()
	patient.DateOfBirth = "2099-01-01"
	assert.ErrorIs(t, ValidatePatientData(patient), ErrFutureDateOfBirth)
}

func validDoctor() models.Doctor {
	return models.Doctor{
		Name:           "Thandiwe",
		Surname:        "Moyo",
		Specialization: "Cardiology",
		Email:          "t.moyo@example.com",
		CountryCode:    "+263",
		ContactNumber:  "77 123 4567",
	}
}

func TestValidateDoctorData_Accepts(t *testing.T) {
	assert.NoError(t, ValidateDoctorData(validDoctor()))
}

func TestValidateDoctorData_Rejects(t *testing.T) {
	doctor := validDoctor()
	doctor.Specialization = "Astrology"
	assert.ErrorIs(t, ValidateDoctorData(doctor), ErrBadSpecialization)

	doctor = validDoctor()
	doctor.Surname = ""
	assert.Error(t, ValidateDoctorData(doctor))

	doctor = validDoctor()
	doctor.CountryCode = "263"
	assert.ErrorIs(t, ValidateDoctorData(doctor), ErrInvalidCountryCode)
}

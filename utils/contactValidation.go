package utils

import (
	"regexp"
	"time"

	"MedaSync/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

// CountryCode is a supported international calling code.
type CountryCode struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CountryCodes is the fixed set of calling codes accepted on contact forms.
var CountryCodes = []CountryCode{
	{Code: "+264", Name: "Namibia"},
	{Code: "+27", Name: "South Africa"},
	{Code: "+263", Name: "Zimbabwe"},
	{Code: "+267", Name: "Botswana"},
	{Code: "+260", Name: "Zambia"},
	{Code: "+258", Name: "Mozambique"},
	{Code: "+256", Name: "Uganda"},
	{Code: "+254", Name: "Kenya"},
	{Code: "+255", Name: "Tanzania"},
	{Code: "+234", Name: "Nigeria"},
}

var (
	ErrInvalidPhoneNumber = errors.New("phone number must contain 7-15 digits")
	ErrInvalidCountryCode = errors.New("country code is not in the supported list")
	ErrFutureDateOfBirth  = errors.New("date of birth cannot be in the future")
	ErrBadSpecialization  = errors.New("specialization is not recognized")
)

var nonDigitPattern = regexp.MustCompile(`[^\d]`)

// FormatPhoneNumber reduces raw phone input to its storage form: digits only.
// It does not validate; pair with ValidatePhoneNumber.
func FormatPhoneNumber(raw string) string {
	return nonDigitPattern.ReplaceAllString(raw, "")
}

// ValidatePhoneNumber accepts any input whose digit count, after stripping
// separators and a leading +, falls in [7,15]. Empty input is invalid.
func ValidatePhoneNumber(raw string) bool {
	if raw == "" {
		return false
	}
	digits := FormatPhoneNumber(raw)
	return len(digits) >= 7 && len(digits) <= 15
}

// ValidateCountryCode reports whether code exactly matches a supported
// calling code. Unknown or empty codes are invalid.
func ValidateCountryCode(code string) bool {
	for _, cc := range CountryCodes {
		if cc.Code == code {
			return true
		}
	}
	return false
}

// ValidatePatientData validates a patient admin-entry form.
func ValidatePatientData(patient models.Patient) error {
	if err := validation.ValidateStruct(&patient,
		validation.Field(&patient.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&patient.Surname, validation.Required, validation.Length(1, 100)),
		validation.Field(&patient.Email, is.Email),
		validation.Field(&patient.DateOfBirth, validation.Required, validation.Date(models.DateLayout)),
	); err != nil {
		return err
	}
	if err := validateContact(patient.CountryCode, patient.ContactNumber); err != nil {
		return err
	}
	dob, err := time.ParseInLocation(models.DateLayout, patient.DateOfBirth, time.Local)
	if err != nil {
		return errors.Wrap(err, "invalid date of birth")
	}
	if dob.After(time.Now()) {
		return ErrFutureDateOfBirth
	}
	return nil
}

// ValidateDoctorData validates a doctor admin-entry form.
func ValidateDoctorData(doctor models.Doctor) error {
	if err := validation.ValidateStruct(&doctor,
		validation.Field(&doctor.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&doctor.Surname, validation.Required, validation.Length(1, 100)),
		validation.Field(&doctor.Email, is.Email),
	); err != nil {
		return err
	}
	if !models.ValidSpecialization(doctor.Specialization) {
		return ErrBadSpecialization
	}
	return validateContact(doctor.CountryCode, doctor.ContactNumber)
}

func validateContact(countryCode, contactNumber string) error {
	if !ValidateCountryCode(countryCode) {
		return ErrInvalidCountryCode
	}
	if !ValidatePhoneNumber(contactNumber) {
		return ErrInvalidPhoneNumber
	}
	return nil
}

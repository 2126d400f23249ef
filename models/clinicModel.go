package models

import (
	"time"
)

// Specializations a doctor can be registered under.
var Specializations = []string{
	"Cardiology", "Dermatology", "Neurology", "Pediatrics",
	"Orthopedics", "Ophthalmology", "Gynecology", "Psychiatry",
}

// Date and time-of-day storage layouts. Appointments are same-day bookings,
// so date and time are kept as separate text columns and parsed at the
// validation boundary.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ResourceKind distinguishes the two entities subject to double-booking
// prevention.
type ResourceKind string

const (
	ResourceDoctor  ResourceKind = "doctor"
	ResourcePatient ResourceKind = "patient"
)

// Patient model. IDs are short human-readable codes (P001, P002, ...).
type Patient struct {
	ID            string        `gorm:"primaryKey;column:id" json:"id"`
	Name          string        `gorm:"column:name;not null" json:"name"`
	Surname       string        `gorm:"column:surname;not null;index" json:"surname"`
	DateOfBirth   string        `gorm:"column:date_of_birth;not null" json:"date_of_birth"`
	Gender        string        `gorm:"column:gender" json:"gender"`
	Email         string        `gorm:"column:email" json:"email"`
	CountryCode   string        `gorm:"column:country_code;not null" json:"country_code"`
	ContactNumber string        `gorm:"column:contact_number;not null" json:"contact_number"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Appointments  []Appointment `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (Patient) TableName() string {
	return "patient"
}

// Doctor model. IDs follow the D001 scheme.
type Doctor struct {
	ID             string        `gorm:"primaryKey;column:id" json:"id"`
	Name           string        `gorm:"column:name;not null" json:"name"`
	Surname        string        `gorm:"column:surname;not null;index" json:"surname"`
	Specialization string        `gorm:"column:specialization;not null;index" json:"specialization"`
	Email          string        `gorm:"column:email" json:"email"`
	CountryCode    string        `gorm:"column:country_code;not null" json:"country_code"`
	ContactNumber  string        `gorm:"column:contact_number;not null" json:"contact_number"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Appointments   []Appointment `gorm:"foreignKey:DoctorID;references:ID" json:"-"`
}

func (Doctor) TableName() string {
	return "doctor"
}

// Appointment model. IDs follow the A001 scheme. Date and Time together with
// Duration define the half-open interval [start, start+duration) used for
// double-booking checks.
type Appointment struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	Date      string    `gorm:"column:date;not null;index" json:"date"`
	Time      string    `gorm:"column:time;not null" json:"time"`
	Duration  int       `gorm:"column:duration;not null;default:30" json:"duration"`
	Diagnosis string    `gorm:"column:diagnosis;type:text" json:"diagnosis"`
	PatientID string    `gorm:"column:patient_id;not null;index" json:"patient_id"`
	DoctorID  string    `gorm:"column:doctor_id;not null;index" json:"doctor_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Patient   Patient   `gorm:"foreignKey:PatientID;references:ID" json:"patient"`
	Doctor    Doctor    `gorm:"foreignKey:DoctorID;references:ID" json:"doctor"`
}

func (Appointment) TableName() string {
	return "appointment"
}

// Start parses the appointment's date and time into a single instant.
func (a *Appointment) Start() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, time.Local)
}

// End is Start plus the appointment duration. The end instant is exclusive:
// a booking may begin exactly when another ends.
func (a *Appointment) End() (time.Time, error) {
	start, err := a.Start()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.Duration) * time.Minute), nil
}

// ValidSpecialization reports whether s is one of the registered specializations.
func ValidSpecialization(s string) bool {
	for _, spec := range Specializations {
		if spec == s {
			return true
		}
	}
	return false
}

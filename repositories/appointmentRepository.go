package repositories

import (
	"MedaSync/cache"
	"MedaSync/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	AppointmentCacheExpiry = 24 * time.Hour

	// Patient-side availability scans are bounded; a patient cannot
	// plausibly hold more same-day bookings than this.
	patientDayFetchLimit = 100
)

// AppointmentRepository is the record store the scheduling core runs
// against. Not-found lookups return (nil, nil).
type AppointmentRepository interface {
	ForDoctorOnDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
	ForPatientOnDate(ctx context.Context, patientID, date string) ([]models.Appointment, error)
	ForResource(ctx context.Context, kind models.ResourceKind, id string) ([]models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	GetAll(ctx context.Context) ([]models.Appointment, error)
	Search(ctx context.Context, query string) ([]models.Appointment, error)
	OnDate(ctx context.Context, date string) ([]models.Appointment, error)
	UpcomingFrom(ctx context.Context, date string, limit int) ([]models.Appointment, error)
	MaxID(ctx context.Context) (string, error)
	Insert(ctx context.Context, appointment *models.Appointment) error
	Replace(ctx context.Context, appointment *models.Appointment) error
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteForDoctor(tx *gorm.DB, doctorID string) error
	DeleteForPatient(tx *gorm.DB, patientID string) error
}

type appointmentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewAppointmentRepository(db *gorm.DB, cache *cache.Cache) AppointmentRepository {
	return &appointmentRepository{db: db, cache: cache}
}

// ForDoctorOnDate fetches the doctor's bookings on a single calendar date.
// Availability checks are same-day by definition, so other dates are never
// fetched.
func (r *appointmentRepository) ForDoctorOnDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor appointments on %s: %w", date, err)
	}
	return appointments, nil
}

// ForPatientOnDate fetches the patient's bookings on a single calendar date,
// capped at patientDayFetchLimit rows.
func (r *appointmentRepository) ForPatientOnDate(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND date = ?", patientID, date).
		Limit(patientDayFetchLimit).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get patient appointments on %s: %w", date, err)
	}
	return appointments, nil
}

// ForResource returns every booking referencing the given doctor or patient,
// newest first by (date, time).
func (r *appointmentRepository) ForResource(ctx context.Context, kind models.ResourceKind, id string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	column := "doctor_id"
	preload := "Patient"
	if kind == models.ResourcePatient {
		column = "patient_id"
		preload = "Doctor"
	}

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload(preload, func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Where(column+" = ?", id).
		Order("date DESC, time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments for %s %s: %w", kind, id, err)
	}
	return appointments, nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getAppointmentCacheKey(id)
	cachedAppointment, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedAppointment != "" {
		var appointment models.Appointment
		if err := json.Unmarshal([]byte(cachedAppointment), &appointment); err == nil {
			return &appointment, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get appointment from cache: %v", err)
	}

	var appointment models.Appointment
	err = r.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname, specialization")
		}).
		First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	appointmentJSON, err := json.Marshal(appointment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal appointment: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, appointmentJSON, AppointmentCacheExpiry); err != nil {
		log.Printf("Failed to set appointment in cache: %v", err)
	}

	return &appointment, nil
}

func (r *appointmentRepository) GetAll(ctx context.Context) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := "appointments_cache"
	cachedAppointments, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedAppointments != "" {
		var appointments []models.Appointment
		if err := json.Unmarshal([]byte(cachedAppointments), &appointments); err == nil {
			return appointments, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get appointments from cache: %v", err)
	}

	var appointments []models.Appointment
	err = r.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname, specialization")
		}).
		Order("date DESC, time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all appointments: %w", err)
	}

	appointmentsJSON, err := json.Marshal(appointments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal appointments: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, appointmentsJSON, AppointmentCacheExpiry); err != nil {
		log.Printf("Failed to set appointments in cache: %v", err)
	}

	return appointments, nil
}

// Search matches against the appointment id, diagnosis, and the names of the
// referenced patient and doctor.
func (r *appointmentRepository) Search(ctx context.Context, query string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pattern := "%" + query + "%"
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname, specialization")
		}).
		Joins("JOIN patient ON patient.id = appointment.patient_id").
		Joins("JOIN doctor ON doctor.id = appointment.doctor_id").
		Where(`appointment.id ILIKE ? OR appointment.diagnosis ILIKE ?
			OR patient.name ILIKE ? OR patient.surname ILIKE ?
			OR doctor.name ILIKE ? OR doctor.surname ILIKE ?`,
			pattern, pattern, pattern, pattern, pattern, pattern).
		Order("date DESC, time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search appointments: %w", err)
	}
	return appointments, nil
}

// OnDate lists a single day's bookings ordered by start time.
func (r *appointmentRepository) OnDate(ctx context.Context, date string) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Where("date = ?", date).
		Order("time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments on %s: %w", date, err)
	}
	return appointments, nil
}

// UpcomingFrom lists bookings on or after the given date, soonest first.
func (r *appointmentRepository) UpcomingFrom(ctx context.Context, date string, limit int) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Preload("Doctor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, surname")
		}).
		Where("date >= ?", date).
		Order("date ASC, time ASC").
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming appointments: %w", err)
	}
	return appointments, nil
}

// MaxID returns the highest stored appointment id, or "" when no
// appointments exist. MAX over text tracks the numeric ordering only while
// the suffixes have equal width, so allocation stops advancing past A999.
func (r *appointmentRepository) MaxID(ctx context.Context) (string, error) {
	var maxID string
	err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("COALESCE(MAX(id), '')").
		Scan(&maxID).Error
	if err != nil {
		return "", fmt.Errorf("failed to get max appointment id: %w", err)
	}
	return maxID, nil
}

func (r *appointmentRepository) Insert(ctx context.Context, appointment *models.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(appointment).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return r.invalidate(ctx, appointment.ID)
}

// Replace persists a full-field rewrite of an existing appointment.
func (r *appointmentRepository) Replace(ctx context.Context, appointment *models.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Appointment{}).
			Where("id = ?", appointment.ID).
			Updates(map[string]interface{}{
				"date":       appointment.Date,
				"time":       appointment.Time,
				"duration":   appointment.Duration,
				"diagnosis":  appointment.Diagnosis,
				"patient_id": appointment.PatientID,
				"doctor_id":  appointment.DoctorID,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return r.invalidate(ctx, appointment.ID)
}

// DeleteByID removes an appointment. The bool result reports whether a
// record was actually deleted, so callers can distinguish NotFound.
func (r *appointmentRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Appointment{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete appointment: %w", result.Error)
	}
	if err := r.invalidate(ctx, id); err != nil {
		return false, err
	}
	return result.RowsAffected > 0, nil
}

// DeleteForDoctor removes all of a doctor's appointments inside the caller's
// transaction; used by the doctor-deletion cascade.
func (r *appointmentRepository) DeleteForDoctor(tx *gorm.DB, doctorID string) error {
	return tx.Delete(&models.Appointment{}, "doctor_id = ?", doctorID).Error
}

// DeleteForPatient removes all of a patient's appointments inside the
// caller's transaction; used by the patient-deletion cascade.
func (r *appointmentRepository) DeleteForPatient(tx *gorm.DB, patientID string) error {
	return tx.Delete(&models.Appointment{}, "patient_id = ?", patientID).Error
}

func (r *appointmentRepository) invalidate(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, r.getAppointmentCacheKey(id)); err != nil {
		return fmt.Errorf("failed to delete appointment cache: %w", err)
	}
	return r.cache.DeleteAll(ctx, "appointments_cache*")
}

func (r *appointmentRepository) getAppointmentCacheKey(id string) string {
	return fmt.Sprintf("appointment_cache:%s", id)
}

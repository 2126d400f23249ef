package repositories

import (
	"MedaSync/cache"
	"MedaSync/database"
	"MedaSync/models"
	"MedaSync/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PatientCacheExpiry = 24 * time.Hour

	// Patient ids carry the P prefix (P001, P002, ...).
	patientIDPrefix = "P"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetAll(ctx context.Context) ([]models.Patient, error)
	Search(ctx context.Context, query string) ([]models.Patient, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id string) (bool, error)
}

type patientRepository struct {
	db              *gorm.DB
	cache           *cache.Cache
	appointmentRepo AppointmentRepository
}

func NewPatientRepository(db *gorm.DB, cache *cache.Cache, appointmentRepo AppointmentRepository) PatientRepository {
	return &patientRepository{db: db, cache: cache, appointmentRepo: appointmentRepo}
}

// Create allocates the next P-prefixed id and inserts the patient. The
// allocation lock makes the max-id read and the insert one unit, so two
// concurrent registrations cannot claim the same id.
func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	lockKey := "id_alloc_lock:patient"
	lockValue := uuid.New().String()
	locked, err := acquireWithRetry(ctx, lockKey, lockValue)
	if err != nil {
		return fmt.Errorf("failed to acquire patient allocation lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("allocation lock %s is held by another request", lockKey)
	}
	defer func() {
		if err := database.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			log.Printf("Failed to release lock: %v", err)
		}
	}()

	var maxID string
	err = r.db.WithContext(ctx).
		Model(&models.Patient{}).
		Select("COALESCE(MAX(id), '')").
		Scan(&maxID).Error
	if err != nil {
		return fmt.Errorf("failed to get max patient id: %w", err)
	}

	nextID, err := utils.NextSequentialID(patientIDPrefix, maxID)
	if err != nil {
		return err
	}
	patient.ID = nextID

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(patient).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return r.invalidate(ctx, patient.ID)
}

func (r *patientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getPatientCacheKey(id)
	cachedPatient, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedPatient != "" {
		var patient models.Patient
		if err := json.Unmarshal([]byte(cachedPatient), &patient); err == nil {
			return &patient, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get patient from cache: %v", err)
	}

	var patient models.Patient
	err = r.db.WithContext(ctx).
		Preload("Appointments", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, date, time, duration, patient_id, doctor_id").
				Order("date DESC, time DESC")
		}).
		First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	patientJSON, err := json.Marshal(patient)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patient: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, patientJSON, PatientCacheExpiry); err != nil {
		log.Printf("Failed to set patient in cache: %v", err)
	}

	return &patient, nil
}

func (r *patientRepository) GetAll(ctx context.Context) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := "patients_cache"
	cachedPatients, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedPatients != "" {
		var patients []models.Patient
		if err := json.Unmarshal([]byte(cachedPatients), &patients); err == nil {
			return patients, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get patients from cache: %v", err)
	}

	var patients []models.Patient
	err = r.db.WithContext(ctx).Order("id ASC").Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all patients: %w", err)
	}

	patientsJSON, err := json.Marshal(patients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patients: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, patientsJSON, PatientCacheExpiry); err != nil {
		log.Printf("Failed to set patients in cache: %v", err)
	}

	return patients, nil
}

// Search matches id, names, email, and contact number.
func (r *patientRepository) Search(ctx context.Context, query string) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pattern := "%" + query + "%"
	var patients []models.Patient
	err := r.db.WithContext(ctx).
		Where(`id ILIKE ? OR name ILIKE ? OR surname ILIKE ?
			OR email ILIKE ? OR contact_number ILIKE ?`,
			pattern, pattern, pattern, pattern, pattern).
		Order("id ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patient{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *models.Patient) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Patient{}).
			Where("id = ?", patient.ID).
			Updates(map[string]interface{}{
				"name":           patient.Name,
				"surname":        patient.Surname,
				"date_of_birth":  patient.DateOfBirth,
				"gender":         patient.Gender,
				"email":          patient.Email,
				"country_code":   patient.CountryCode,
				"contact_number": patient.ContactNumber,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return r.invalidate(ctx, patient.ID)
}

// Delete removes the patient and, first, every appointment referencing them;
// both happen in one transaction so a failure leaves no orphaned bookings.
func (r *patientRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.appointmentRepo.DeleteForPatient(tx, id); err != nil {
			return err
		}
		result := tx.Delete(&models.Patient{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete patient: %w", err)
	}
	if err := r.invalidate(ctx, id); err != nil {
		return false, err
	}
	if err := r.cache.DeleteAll(ctx, "appointment*"); err != nil {
		return false, fmt.Errorf("failed to invalidate appointment caches: %w", err)
	}
	return deleted, nil
}

func (r *patientRepository) invalidate(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, r.getPatientCacheKey(id)); err != nil {
		return fmt.Errorf("failed to delete patient cache: %w", err)
	}
	return r.cache.DeleteAll(ctx, "patients_cache*")
}

func (r *patientRepository) getPatientCacheKey(id string) string {
	return fmt.Sprintf("patient_cache:%s", id)
}

// acquireWithRetry attempts a short-lived redis lock a few times before
// giving up.
func acquireWithRetry(ctx context.Context, key, value string) (bool, error) {
	const (
		maxRetries = 3
		retryDelay = 200 * time.Millisecond
	)
	var locked bool
	var err error
	for i := 0; i < maxRetries; i++ {
		locked, err = database.NewLock(ctx, key, value, 10*time.Second)
		if err == nil && locked {
			return true, nil
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return locked, err
}

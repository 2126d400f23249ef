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
	DoctorCacheExpiry = 24 * time.Hour

	// Doctor ids carry the D prefix (D001, D002, ...).
	doctorIDPrefix = "D"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetAll(ctx context.Context) ([]models.Doctor, error)
	Search(ctx context.Context, query string) ([]models.Doctor, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id string) (bool, error)
}

type doctorRepository struct {
	db              *gorm.DB
	cache           *cache.Cache
	appointmentRepo AppointmentRepository
}

func NewDoctorRepository(db *gorm.DB, cache *cache.Cache, appointmentRepo AppointmentRepository) DoctorRepository {
	return &doctorRepository{db: db, cache: cache, appointmentRepo: appointmentRepo}
}

// Create allocates the next D-prefixed id under the allocation lock and
// inserts the doctor.
func (r *doctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	lockKey := "id_alloc_lock:doctor"
	lockValue := uuid.New().String()
	locked, err := acquireWithRetry(ctx, lockKey, lockValue)
	if err != nil {
		return fmt.Errorf("failed to acquire doctor allocation lock: %w", err)
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
		Model(&models.Doctor{}).
		Select("COALESCE(MAX(id), '')").
		Scan(&maxID).Error
	if err != nil {
		return fmt.Errorf("failed to get max doctor id: %w", err)
	}

	nextID, err := utils.NextSequentialID(doctorIDPrefix, maxID)
	if err != nil {
		return err
	}
	doctor.ID = nextID

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(doctor).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return r.invalidate(ctx, doctor.ID)
}

func (r *doctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getDoctorCacheKey(id)
	cachedDoctor, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedDoctor != "" {
		var doctor models.Doctor
		if err := json.Unmarshal([]byte(cachedDoctor), &doctor); err == nil {
			return &doctor, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get doctor from cache: %v", err)
	}

	var doctor models.Doctor
	err = r.db.WithContext(ctx).
		Preload("Appointments", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, date, time, duration, patient_id, doctor_id").
				Order("date DESC, time DESC")
		}).
		First(&doctor, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	doctorJSON, err := json.Marshal(doctor)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal doctor: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, doctorJSON, DoctorCacheExpiry); err != nil {
		log.Printf("Failed to set doctor in cache: %v", err)
	}

	return &doctor, nil
}

func (r *doctorRepository) GetAll(ctx context.Context) ([]models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := "doctors_cache"
	cachedDoctors, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedDoctors != "" {
		var doctors []models.Doctor
		if err := json.Unmarshal([]byte(cachedDoctors), &doctors); err == nil {
			return doctors, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get doctors from cache: %v", err)
	}

	var doctors []models.Doctor
	err = r.db.WithContext(ctx).Order("id ASC").Find(&doctors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all doctors: %w", err)
	}

	doctorsJSON, err := json.Marshal(doctors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal doctors: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, doctorsJSON, DoctorCacheExpiry); err != nil {
		log.Printf("Failed to set doctors in cache: %v", err)
	}

	return doctors, nil
}

// Search matches id, names, specialization, email, and contact number.
func (r *doctorRepository) Search(ctx context.Context, query string) ([]models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pattern := "%" + query + "%"
	var doctors []models.Doctor
	err := r.db.WithContext(ctx).
		Where(`id ILIKE ? OR name ILIKE ? OR surname ILIKE ?
			OR specialization ILIKE ? OR email ILIKE ? OR contact_number ILIKE ?`,
			pattern, pattern, pattern, pattern, pattern, pattern).
		Order("id ASC").
		Find(&doctors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Doctor{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return count, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Doctor{}).
			Where("id = ?", doctor.ID).
			Updates(map[string]interface{}{
				"name":           doctor.Name,
				"surname":        doctor.Surname,
				"specialization": doctor.Specialization,
				"email":          doctor.Email,
				"country_code":   doctor.CountryCode,
				"contact_number": doctor.ContactNumber,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return r.invalidate(ctx, doctor.ID)
}

// Delete removes the doctor and, first, every appointment referencing them,
// in one transaction.
func (r *doctorRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.appointmentRepo.DeleteForDoctor(tx, id); err != nil {
			return err
		}
		result := tx.Delete(&models.Doctor{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete doctor: %w", err)
	}
	if err := r.invalidate(ctx, id); err != nil {
		return false, err
	}
	if err := r.cache.DeleteAll(ctx, "appointment*"); err != nil {
		return false, fmt.Errorf("failed to invalidate appointment caches: %w", err)
	}
	return deleted, nil
}

func (r *doctorRepository) invalidate(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, r.getDoctorCacheKey(id)); err != nil {
		return fmt.Errorf("failed to delete doctor cache: %w", err)
	}
	return r.cache.DeleteAll(ctx, "doctors_cache*")
}

func (r *doctorRepository) getDoctorCacheKey(id string) string {
	return fmt.Sprintf("doctor_cache:%s", id)
}

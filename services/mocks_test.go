package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"MedaSync/models"
	"MedaSync/repositories"

	"gorm.io/gorm"
)

// Compile-time checks that the mocks satisfy the store contracts.
var (
	_ repositories.AppointmentRepository = (*MockAppointmentRepository)(nil)
	_ repositories.PatientRepository     = (*MockPatientRepository)(nil)
	_ repositories.DoctorRepository      = (*MockDoctorRepository)(nil)
	_ LockManager                        = (*MockLockManager)(nil)
	_ LockManager                        = (*setnxLockManager)(nil)
)

// MockAppointmentRepository is a function-field mock of the appointment store.
type MockAppointmentRepository struct {
	ForDoctorOnDateFunc  func(ctx context.Context, doctorID, date string) ([]models.Appointment, error)
	ForPatientOnDateFunc func(ctx context.Context, patientID, date string) ([]models.Appointment, error)
	ForResourceFunc      func(ctx context.Context, kind models.ResourceKind, id string) ([]models.Appointment, error)
	GetByIDFunc          func(ctx context.Context, id string) (*models.Appointment, error)
	GetAllFunc           func(ctx context.Context) ([]models.Appointment, error)
	SearchFunc           func(ctx context.Context, query string) ([]models.Appointment, error)
	OnDateFunc           func(ctx context.Context, date string) ([]models.Appointment, error)
	UpcomingFromFunc     func(ctx context.Context, date string, limit int) ([]models.Appointment, error)
	MaxIDFunc            func(ctx context.Context) (string, error)
	InsertFunc           func(ctx context.Context, appointment *models.Appointment) error
	ReplaceFunc          func(ctx context.Context, appointment *models.Appointment) error
	DeleteByIDFunc       func(ctx context.Context, id string) (bool, error)

	InsertCallCount  int32
	ReplaceCallCount int32
}

func (m *MockAppointmentRepository) ForDoctorOnDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	if m.ForDoctorOnDateFunc != nil {
		return m.ForDoctorOnDateFunc(ctx, doctorID, date)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) ForPatientOnDate(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
	if m.ForPatientOnDateFunc != nil {
		return m.ForPatientOnDateFunc(ctx, patientID, date)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) ForResource(ctx context.Context, kind models.ResourceKind, id string) ([]models.Appointment, error) {
	if m.ForResourceFunc != nil {
		return m.ForResourceFunc(ctx, kind, id)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) GetAll(ctx context.Context) ([]models.Appointment, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) Search(ctx context.Context, query string) ([]models.Appointment, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) OnDate(ctx context.Context, date string) ([]models.Appointment, error) {
	if m.OnDateFunc != nil {
		return m.OnDateFunc(ctx, date)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) UpcomingFrom(ctx context.Context, date string, limit int) ([]models.Appointment, error) {
	if m.UpcomingFromFunc != nil {
		return m.UpcomingFromFunc(ctx, date, limit)
	}
	return nil, nil
}

func (m *MockAppointmentRepository) MaxID(ctx context.Context) (string, error) {
	if m.MaxIDFunc != nil {
		return m.MaxIDFunc(ctx)
	}
	return "", nil
}

func (m *MockAppointmentRepository) Insert(ctx context.Context, appointment *models.Appointment) error {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, appointment)
	}
	return nil
}

func (m *MockAppointmentRepository) Replace(ctx context.Context, appointment *models.Appointment) error {
	atomic.AddInt32(&m.ReplaceCallCount, 1)
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, appointment)
	}
	return nil
}

func (m *MockAppointmentRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return false, errors.New("DeleteByIDFunc not implemented in mock")
}

func (m *MockAppointmentRepository) DeleteForDoctor(tx *gorm.DB, doctorID string) error {
	return nil
}

func (m *MockAppointmentRepository) DeleteForPatient(tx *gorm.DB, patientID string) error {
	return nil
}

// MockPatientRepository is a function-field mock of the patient store.
type MockPatientRepository struct {
	CreateFunc  func(ctx context.Context, patient *models.Patient) error
	GetByIDFunc func(ctx context.Context, id string) (*models.Patient, error)
	GetAllFunc  func(ctx context.Context) ([]models.Patient, error)
	SearchFunc  func(ctx context.Context, query string) ([]models.Patient, error)
	CountFunc   func(ctx context.Context) (int64, error)
	UpdateFunc  func(ctx context.Context, patient *models.Patient) error
	DeleteFunc  func(ctx context.Context, id string) (bool, error)
}

func (m *MockPatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, patient)
	}
	return nil
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPatientRepository) GetAll(ctx context.Context) ([]models.Patient, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockPatientRepository) Search(ctx context.Context, query string) ([]models.Patient, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockPatientRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockPatientRepository) Update(ctx context.Context, patient *models.Patient) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, patient)
	}
	return nil
}

func (m *MockPatientRepository) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return false, errors.New("DeleteFunc not implemented in mock")
}

// MockDoctorRepository is a function-field mock of the doctor store.
type MockDoctorRepository struct {
	CreateFunc  func(ctx context.Context, doctor *models.Doctor) error
	GetByIDFunc func(ctx context.Context, id string) (*models.Doctor, error)
	GetAllFunc  func(ctx context.Context) ([]models.Doctor, error)
	SearchFunc  func(ctx context.Context, query string) ([]models.Doctor, error)
	CountFunc   func(ctx context.Context) (int64, error)
	UpdateFunc  func(ctx context.Context, doctor *models.Doctor) error
	DeleteFunc  func(ctx context.Context, id string) (bool, error)
}

func (m *MockDoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, doctor)
	}
	return nil
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDoctorRepository) GetAll(ctx context.Context) ([]models.Doctor, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockDoctorRepository) Search(ctx context.Context, query string) ([]models.Doctor, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockDoctorRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockDoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, doctor)
	}
	return nil
}

func (m *MockDoctorRepository) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return false, errors.New("DeleteFunc not implemented in mock")
}

// MockLockManager records lock activity. Acquire always succeeds unless
// AcquireFunc says otherwise.
type MockLockManager struct {
	AcquireFunc func(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, key, value string) error

	AcquiredKeys []string
	ReleasedKeys []string
}

func (m *MockLockManager) Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.AcquiredKeys = append(m.AcquiredKeys, key)
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key, value, ttl)
	}
	return true, nil
}

func (m *MockLockManager) Release(ctx context.Context, key, value string) error {
	m.ReleasedKeys = append(m.ReleasedKeys, key)
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key, value)
	}
	return nil
}

// setnxLockManager is an in-memory lock manager with SETNX semantics, for
// tests that exercise real mutual exclusion between goroutines.
type setnxLockManager struct {
	mu    sync.Mutex
	locks map[string]string
}

func newSetnxLockManager() *setnxLockManager {
	return &setnxLockManager{locks: make(map[string]string)}
}

func (l *setnxLockManager) Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.locks[key]; held {
		return false, nil
	}
	l.locks[key] = value
	return true, nil
}

func (l *setnxLockManager) Release(ctx context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks[key] == value {
		delete(l.locks, key)
	}
	return nil
}

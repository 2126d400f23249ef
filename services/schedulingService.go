package services

import (
	"MedaSync/models"
	"MedaSync/repositories"
	"MedaSync/utils"
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	appointmentIDPrefix = "A"

	minDurationMinutes = 1
	maxDurationMinutes = 240

	bookingLockTTL        = 10 * time.Second
	bookingLockRetries    = 3
	bookingLockRetryDelay = 200 * time.Millisecond
)

// timePattern is the 24-hour HH:MM shape accepted for appointment times.
var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ErrNotFound reports that the addressed appointment does not exist.
var ErrNotFound = errors.New("appointment not found")

// RejectReason identifies why a booking or reschedule was refused. The empty
// reason means the booking passed validation.
type RejectReason string

const (
	RejectNone               RejectReason = ""
	RejectPatientNotFound    RejectReason = "PatientNotFound"
	RejectDoctorNotFound     RejectReason = "DoctorNotFound"
	RejectPastDate           RejectReason = "PastDate"
	RejectInvalidDuration    RejectReason = "InvalidDuration"
	RejectInvalidTimeFormat  RejectReason = "InvalidTimeFormat"
	RejectDoctorUnavailable  RejectReason = "DoctorUnavailable"
	RejectPatientUnavailable RejectReason = "PatientUnavailable"
)

// Message renders the user-facing text for a rejection.
func (r RejectReason) Message() string {
	switch r {
	case RejectPatientNotFound:
		return "Selected patient does not exist"
	case RejectDoctorNotFound:
		return "Selected doctor does not exist"
	case RejectPastDate:
		return "Appointment date is invalid or in the past"
	case RejectInvalidDuration:
		return fmt.Sprintf("Duration must be between %d and %d minutes", minDurationMinutes, maxDurationMinutes)
	case RejectInvalidTimeFormat:
		return "Time must be in 24-hour HH:MM format"
	case RejectDoctorUnavailable:
		return "Doctor is not available at this time"
	case RejectPatientUnavailable:
		return "Patient is not available at this time"
	}
	return ""
}

// BookingInput carries the fields of a booking or reschedule request.
type BookingInput struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
	Diagnosis string `json:"diagnosis"`
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
}

// AvailabilityQuery is the advisory pre-submit check input. Either id may be
// empty, in which case that side is reported available.
type AvailabilityQuery struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
}

// AvailabilityStatus is the advisory pre-submit check result.
type AvailabilityStatus struct {
	DoctorAvailable  bool `json:"doctor_available"`
	PatientAvailable bool `json:"patient_available"`
}

// ResourceSchedule partitions a doctor's or patient's bookings around today.
type ResourceSchedule struct {
	All      []models.Appointment `json:"all"`
	Upcoming []models.Appointment `json:"upcoming"`
	Past     []models.Appointment `json:"past"`
}

// DashboardSummary is the front-desk overview.
type DashboardSummary struct {
	PatientCount int64                `json:"patient_count"`
	DoctorCount  int64                `json:"doctor_count"`
	Today        []models.Appointment `json:"today"`
	Upcoming     []models.Appointment `json:"upcoming"`
}

type bookingMode int

const (
	modeCreate bookingMode = iota
	modeUpdate
)

// LockManager is the mutual-exclusion primitive guarding the
// availability-check-then-write region of each booking.
type LockManager interface {
	Acquire(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}

// SchedulingService books, reschedules, and cancels appointments. Every
// mutation runs the full validation pipeline while holding the doctor+date
// and patient+date locks, so two concurrent requests for overlapping
// intervals cannot both pass the availability check.
type SchedulingService struct {
	appointments repositories.AppointmentRepository
	patients     repositories.PatientRepository
	doctors      repositories.DoctorRepository
	locks        LockManager
}

func NewSchedulingService(
	appointments repositories.AppointmentRepository,
	patients repositories.PatientRepository,
	doctors repositories.DoctorRepository,
	locks LockManager,
) *SchedulingService {
	return &SchedulingService{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		locks:        locks,
	}
}

// Create books a new appointment. A non-empty RejectReason means the booking
// was refused; the error return is reserved for store failures.
func (s *SchedulingService) Create(ctx context.Context, in BookingInput) (*models.Appointment, RejectReason, error) {
	release, err := s.acquireBookingLocks(ctx, in)
	if err != nil {
		return nil, RejectNone, err
	}
	defer release()

	reason, err := s.validateBooking(ctx, in, modeCreate, "")
	if err != nil {
		return nil, RejectNone, err
	}
	if reason != RejectNone {
		return nil, reason, nil
	}

	// The booking locks only cover this doctor and patient, so the max-id
	// read and the insert are serialized under a separate allocation lock.
	// Without it two creates for disjoint pairs derive the same next id.
	releaseAlloc, err := s.acquireAllocationLock(ctx)
	if err != nil {
		return nil, RejectNone, err
	}
	defer releaseAlloc()

	maxID, err := s.appointments.MaxID(ctx)
	if err != nil {
		return nil, RejectNone, err
	}
	id, err := utils.NextSequentialID(appointmentIDPrefix, maxID)
	if err != nil {
		return nil, RejectNone, err
	}

	appointment := &models.Appointment{
		ID:        id,
		Date:      in.Date,
		Time:      in.Time,
		Duration:  in.Duration,
		Diagnosis: in.Diagnosis,
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
	}
	if err := s.appointments.Insert(ctx, appointment); err != nil {
		return nil, RejectNone, err
	}
	return appointment, RejectNone, nil
}

// Update replaces every mutable field of an existing appointment after
// re-running the validation pipeline. The appointment being edited is
// excluded from conflict checks so it cannot collide with itself.
func (s *SchedulingService) Update(ctx context.Context, id string, in BookingInput) (*models.Appointment, RejectReason, error) {
	existing, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, RejectNone, err
	}
	if existing == nil {
		return nil, RejectNone, ErrNotFound
	}

	release, err := s.acquireBookingLocks(ctx, in)
	if err != nil {
		return nil, RejectNone, err
	}
	defer release()

	reason, err := s.validateBooking(ctx, in, modeUpdate, id)
	if err != nil {
		return nil, RejectNone, err
	}
	if reason != RejectNone {
		return nil, reason, nil
	}

	appointment := &models.Appointment{
		ID:        id,
		Date:      in.Date,
		Time:      in.Time,
		Duration:  in.Duration,
		Diagnosis: in.Diagnosis,
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
	}
	if err := s.appointments.Replace(ctx, appointment); err != nil {
		return nil, RejectNone, err
	}
	return appointment, RejectNone, nil
}

// Delete cancels an appointment unconditionally. Deleting an id that no
// longer exists reports ErrNotFound rather than failing hard.
func (s *SchedulingService) Delete(ctx context.Context, id string) error {
	deleted, err := s.appointments.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// GetByID loads a single appointment, or ErrNotFound.
func (s *SchedulingService) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, ErrNotFound
	}
	return appointment, nil
}

// GetAll lists every appointment, newest first.
func (s *SchedulingService) GetAll(ctx context.Context) ([]models.Appointment, error) {
	return s.appointments.GetAll(ctx)
}

// Search matches appointments by id, diagnosis, or participant names.
func (s *SchedulingService) Search(ctx context.Context, query string) ([]models.Appointment, error) {
	return s.appointments.Search(ctx, query)
}

// ListForResource returns a doctor's or patient's bookings partitioned into
// upcoming (today and later) and past, each newest first.
func (s *SchedulingService) ListForResource(ctx context.Context, kind models.ResourceKind, id string) (*ResourceSchedule, error) {
	all, err := s.appointments.ForResource(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	// ISO dates compare correctly as text.
	today := time.Now().Format(models.DateLayout)
	schedule := &ResourceSchedule{
		All:      all,
		Upcoming: []models.Appointment{},
		Past:     []models.Appointment{},
	}
	for _, appointment := range all {
		if appointment.Date >= today {
			schedule.Upcoming = append(schedule.Upcoming, appointment)
		} else {
			schedule.Past = append(schedule.Past, appointment)
		}
	}
	return schedule, nil
}

// CheckAvailability is the advisory pre-submit probe behind the booking
// form. Unlike the validation pipeline it never surfaces parse or store
// errors: anything that prevents a definitive answer reads as unavailable.
func (s *SchedulingService) CheckAvailability(ctx context.Context, q AvailabilityQuery) AvailabilityStatus {
	duration := q.Duration
	if duration <= 0 {
		duration = 30
	}

	status := AvailabilityStatus{DoctorAvailable: true, PatientAvailable: true}
	if q.DoctorID != "" {
		available, err := s.resourceAvailable(ctx, models.ResourceDoctor, q.DoctorID, q.Date, q.Time, duration, "")
		if err != nil {
			log.Printf("Advisory doctor availability check failed: %v", err)
			available = false
		}
		status.DoctorAvailable = available
	}
	if q.PatientID != "" {
		available, err := s.resourceAvailable(ctx, models.ResourcePatient, q.PatientID, q.Date, q.Time, duration, "")
		if err != nil {
			log.Printf("Advisory patient availability check failed: %v", err)
			available = false
		}
		status.PatientAvailable = available
	}
	return status
}

// Dashboard assembles the front-desk overview: record counts, today's
// schedule, and the next bookings coming up.
func (s *SchedulingService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	patientCount, err := s.patients.Count(ctx)
	if err != nil {
		return nil, err
	}
	doctorCount, err := s.doctors.Count(ctx)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format(models.DateLayout)
	todays, err := s.appointments.OnDate(ctx, today)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.appointments.UpcomingFrom(ctx, today, 10)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		PatientCount: patientCount,
		DoctorCount:  doctorCount,
		Today:        todays,
		Upcoming:     upcoming,
	}, nil
}

// TimeSlots returns the half-hour booking grid offered by the front desk,
// 08:00 through 17:30.
func TimeSlots() []string {
	slots := make([]string, 0, 20)
	for hour := 8; hour < 18; hour++ {
		for _, minute := range []int{0, 30} {
			slots = append(slots, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return slots
}

// validateBooking runs the ordered validation pipeline and returns the first
// failing reason. Both modes apply the identical checks; in update mode the
// appointment being edited is excluded from conflict detection.
func (s *SchedulingService) validateBooking(ctx context.Context, in BookingInput, mode bookingMode, excludeID string) (RejectReason, error) {
	patient, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return RejectNone, err
	}
	if patient == nil {
		return RejectPatientNotFound, nil
	}

	doctor, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		return RejectNone, err
	}
	if doctor == nil {
		return RejectDoctorNotFound, nil
	}

	date, err := time.ParseInLocation(models.DateLayout, in.Date, time.Local)
	if err != nil {
		return RejectPastDate, nil
	}
	today, _ := time.ParseInLocation(models.DateLayout, time.Now().Format(models.DateLayout), time.Local)
	if date.Before(today) {
		return RejectPastDate, nil
	}

	if in.Duration < minDurationMinutes || in.Duration > maxDurationMinutes {
		return RejectInvalidDuration, nil
	}

	if !timePattern.MatchString(in.Time) {
		return RejectInvalidTimeFormat, nil
	}

	if mode == modeCreate {
		excludeID = ""
	}
	available, err := s.resourceAvailable(ctx, models.ResourceDoctor, in.DoctorID, in.Date, in.Time, in.Duration, excludeID)
	if err != nil {
		return RejectNone, err
	}
	if !available {
		return RejectDoctorUnavailable, nil
	}

	available, err = s.resourceAvailable(ctx, models.ResourcePatient, in.PatientID, in.Date, in.Time, in.Duration, excludeID)
	if err != nil {
		return RejectNone, err
	}
	if !available {
		return RejectPatientUnavailable, nil
	}

	return RejectNone, nil
}

// resourceAvailable decides whether the candidate interval collides with any
// of the resource's bookings on that date. Intervals are half-open: a
// booking that starts exactly when another ends does not conflict. Only
// same-date bookings are consulted; that granularity is the defined
// behavior, not an approximation.
func (s *SchedulingService) resourceAvailable(ctx context.Context, kind models.ResourceKind, id, date, timeOfDay string, duration int, excludeID string) (bool, error) {
	candidate := models.Appointment{Date: date, Time: timeOfDay, Duration: duration}
	candidateStart, err := candidate.Start()
	if err != nil {
		return false, errors.Wrap(err, "invalid candidate date or time")
	}
	candidateEnd := candidateStart.Add(time.Duration(duration) * time.Minute)

	var existing []models.Appointment
	switch kind {
	case models.ResourceDoctor:
		existing, err = s.appointments.ForDoctorOnDate(ctx, id, date)
	case models.ResourcePatient:
		existing, err = s.appointments.ForPatientOnDate(ctx, id, date)
	default:
		return false, errors.Errorf("unknown resource kind %q", kind)
	}
	if err != nil {
		return false, err
	}

	for _, appointment := range existing {
		if excludeID != "" && appointment.ID == excludeID {
			continue
		}
		existingStart, err := appointment.Start()
		if err != nil {
			return false, errors.Wrapf(err, "stored appointment %s has an unparseable date or time", appointment.ID)
		}
		existingEnd := existingStart.Add(time.Duration(appointment.Duration) * time.Minute)

		if candidateStart.Before(existingEnd) && candidateEnd.After(existingStart) {
			return false, nil
		}
	}
	return true, nil
}

// acquireBookingLocks takes the doctor+date lock and then the patient+date
// lock for the candidate booking. The fixed ordering prevents two requests
// from deadlocking against each other.
func (s *SchedulingService) acquireBookingLocks(ctx context.Context, in BookingInput) (func(), error) {
	lockValue := uuid.New().String()
	keys := []string{
		fmt.Sprintf("sched_lock:doctor:%s:%s", in.DoctorID, in.Date),
		fmt.Sprintf("sched_lock:patient:%s:%s", in.PatientID, in.Date),
	}

	var held []string
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := s.locks.Release(ctx, held[i], lockValue); err != nil {
				log.Printf("Failed to release lock %s: %v", held[i], err)
			}
		}
	}

	for _, key := range keys {
		locked, err := s.acquireWithRetry(ctx, key, lockValue)
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to acquire booking lock %s: %w", key, err)
		}
		if !locked {
			release()
			return nil, fmt.Errorf("booking lock %s is held by another request", key)
		}
		held = append(held, key)
	}
	return release, nil
}

// acquireAllocationLock serializes appointment id allocation so the max-id
// read and the subsequent insert behave as one unit.
func (s *SchedulingService) acquireAllocationLock(ctx context.Context) (func(), error) {
	const key = "id_alloc_lock:appointment"
	lockValue := uuid.New().String()

	locked, err := s.acquireWithRetry(ctx, key, lockValue)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire allocation lock %s: %w", key, err)
	}
	if !locked {
		return nil, fmt.Errorf("allocation lock %s is held by another request", key)
	}
	return func() {
		if err := s.locks.Release(ctx, key, lockValue); err != nil {
			log.Printf("Failed to release lock %s: %v", key, err)
		}
	}, nil
}

func (s *SchedulingService) acquireWithRetry(ctx context.Context, key, value string) (bool, error) {
	var locked bool
	var err error
	for i := 0; i < bookingLockRetries; i++ {
		locked, err = s.locks.Acquire(ctx, key, value, bookingLockTTL)
		if err == nil && locked {
			return true, nil
		}
		if i < bookingLockRetries-1 {
			time.Sleep(bookingLockRetryDelay)
		}
	}
	return locked, err
}

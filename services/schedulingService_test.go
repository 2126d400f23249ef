package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"MedaSync/models"

	"github.com/stretchr/testify/assert"
)

const (
	testDate = "2099-05-20"
)

func testPatient() *models.Patient {
	return &models.Patient{ID: "P001", Name: "Amara", Surname: "Okafor"}
}

func testDoctor() *models.Doctor {
	return &models.Doctor{ID: "D001", Name: "Thandiwe", Surname: "Moyo", Specialization: "Cardiology"}
}

// newTestService wires a scheduling service over mocks that know one
// patient (P001) and one doctor (D001).
func newTestService(appointments *MockAppointmentRepository) (*SchedulingService, *MockLockManager) {
	patients := &MockPatientRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			if id == "P001" {
				return testPatient(), nil
			}
			return nil, nil
		},
	}
	doctors := &MockDoctorRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Doctor, error) {
			if id == "D001" {
				return testDoctor(), nil
			}
			return nil, nil
		},
	}
	locks := &MockLockManager{}
	return NewSchedulingService(appointments, patients, doctors, locks), locks
}

func booking(timeOfDay string, duration int) BookingInput {
	return BookingInput{
		Date:      testDate,
		Time:      timeOfDay,
		Duration:  duration,
		Diagnosis: "Follow-up",
		PatientID: "P001",
		DoctorID:  "D001",
	}
}

func TestCreate_AllocatesSequentialID(t *testing.T) {
	appointments := &MockAppointmentRepository{
		MaxIDFunc: func(ctx context.Context) (string, error) { return "A041", nil },
	}
	svc, _ := newTestService(appointments)

	created, reason, err := svc.Create(context.Background(), booking("09:00", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectNone, reason)
	assert.Equal(t, "A042", created.ID)
	assert.Equal(t, int32(1), appointments.InsertCallCount)
}

func TestCreate_FirstAppointmentGetsA001(t *testing.T) {
	appointments := &MockAppointmentRepository{}
	svc, _ := newTestService(appointments)

	created, reason, err := svc.Create(context.Background(), booking("09:00", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectNone, reason)
	assert.Equal(t, "A001", created.ID)
}

func TestCreate_BackToBackBookingsDoNotConflict(t *testing.T) {
	// 09:00-09:30 is taken; the end instant is exclusive so 09:30 is free.
	existing := []models.Appointment{
		{ID: "A001", Date: testDate, Time: "09:00", Duration: 30, PatientID: "P009", DoctorID: "D001"},
	}
	appointments := &MockAppointmentRepository{
		ForDoctorOnDateFunc: func(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
			return existing, nil
		},
	}
	svc, _ := newTestService(appointments)

	_, reason, err := svc.Create(context.Background(), booking("09:30", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectNone, reason)
}

func TestCreate_OverlapRejectsDoctorUnavailable(t *testing.T) {
	existing := []models.Appointment{
		{ID: "A001", Date: testDate, Time: "09:00", Duration: 30, PatientID: "P009", DoctorID: "D001"},
	}
	appointments := &MockAppointmentRepository{
		ForDoctorOnDateFunc: func(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
			return existing, nil
		},
	}
	svc, _ := newTestService(appointments)

	_, reason, err := svc.Create(context.Background(), booking("09:15", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectDoctorUnavailable, reason)
	assert.Equal(t, int32(0), appointments.InsertCallCount)
}

func TestCreate_PatientDoubleBookingRejected(t *testing.T) {
	// Doctor is free but the patient already sees someone else at that time.
	appointments := &MockAppointmentRepository{
		ForPatientOnDateFunc: func(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
			return []models.Appointment{
				{ID: "A007", Date: testDate, Time: "09:00", Duration: 60, PatientID: "P001", DoctorID: "D002"},
			}, nil
		},
	}
	svc, _ := newTestService(appointments)

	_, reason, err := svc.Create(context.Background(), booking("09:30", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectPatientUnavailable, reason)
}

func TestCreate_UnknownParticipantsRejected(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	in := booking("09:00", 30)
	in.PatientID = "P999"
	_, reason, err := svc.Create(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, RejectPatientNotFound, reason)

	in = booking("09:00", 30)
	in.DoctorID = "D999"
	_, reason, err = svc.Create(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, RejectDoctorNotFound, reason)
}

func TestCreate_PastOrMalformedDateRejected(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	in := booking("09:00", 30)
	in.Date = "2000-01-01"
	_, reason, err := svc.Create(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, RejectPastDate, reason)

	in.Date = "20-05-2099"
	_, reason, err = svc.Create(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, RejectPastDate, reason)
}

func TestCreate_DurationBoundsEnforced(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	for _, duration := range []int{0, -15, 241} {
		_, reason, err := svc.Create(context.Background(), booking("09:00", duration))
		assert.NoError(t, err)
		assert.Equal(t, RejectInvalidDuration, reason, "duration %d", duration)
	}

	for _, duration := range []int{1, 240} {
		_, reason, err := svc.Create(context.Background(), booking("09:00", duration))
		assert.NoError(t, err)
		assert.Equal(t, RejectNone, reason, "duration %d", duration)
	}
}

func TestCreate_TimeFormatEnforced(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	for _, bad := range []string{"9:00", "25:00", "09:60", "0900", "noon", ""} {
		_, reason, err := svc.Create(context.Background(), booking(bad, 30))
		assert.NoError(t, err)
		assert.Equal(t, RejectInvalidTimeFormat, reason, "time %q", bad)
	}

	for _, good := range []string{"00:00", "09:05", "23:59"} {
		_, reason, err := svc.Create(context.Background(), booking(good, 30))
		assert.NoError(t, err)
		assert.Equal(t, RejectNone, reason, "time %q", good)
	}
}

func TestCreate_TakesAndReleasesBothLocks(t *testing.T) {
	svc, locks := newTestService(&MockAppointmentRepository{})

	_, _, err := svc.Create(context.Background(), booking("09:00", 30))
	assert.NoError(t, err)

	assert.Equal(t, []string{
		"sched_lock:doctor:D001:" + testDate,
		"sched_lock:patient:P001:" + testDate,
		"id_alloc_lock:appointment",
	}, locks.AcquiredKeys)
	// Released in reverse order of acquisition.
	assert.Equal(t, []string{
		"id_alloc_lock:appointment",
		"sched_lock:patient:P001:" + testDate,
		"sched_lock:doctor:D001:" + testDate,
	}, locks.ReleasedKeys)
}

func TestCreate_LockContentionFailsWithoutInsert(t *testing.T) {
	appointments := &MockAppointmentRepository{}
	svc, locks := newTestService(appointments)
	locks.AcquireFunc = func(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
		return false, nil
	}

	_, _, err := svc.Create(context.Background(), booking("09:00", 30))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "is held")
	assert.NotContains(t, err.Error(), "%!w")
	assert.Equal(t, int32(0), appointments.InsertCallCount)
}

// Bookings for disjoint doctor/patient pairs share no scheduling lock, so id
// allocation must be serialized on its own lock or both creates derive the
// same next id.
func TestCreate_ConcurrentDisjointBookingsGetDistinctIDs(t *testing.T) {
	var (
		storeMu sync.Mutex
		stored  = map[string]models.Appointment{
			"A041": {ID: "A041", Date: testDate, Time: "14:00", Duration: 30, PatientID: "P001", DoctorID: "D001"},
		}
	)
	appointments := &MockAppointmentRepository{
		MaxIDFunc: func(ctx context.Context) (string, error) {
			storeMu.Lock()
			defer storeMu.Unlock()
			maxID := ""
			for id := range stored {
				if id > maxID {
					maxID = id
				}
			}
			return maxID, nil
		},
		InsertFunc: func(ctx context.Context, appointment *models.Appointment) error {
			storeMu.Lock()
			defer storeMu.Unlock()
			if _, exists := stored[appointment.ID]; exists {
				return fmt.Errorf("duplicate key value violates unique constraint: %s", appointment.ID)
			}
			stored[appointment.ID] = *appointment
			return nil
		},
	}
	patients := &MockPatientRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			if id == "P001" || id == "P002" {
				return &models.Patient{ID: id, Name: "Amara", Surname: "Okafor"}, nil
			}
			return nil, nil
		},
	}
	doctors := &MockDoctorRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Doctor, error) {
			if id == "D001" || id == "D002" {
				return &models.Doctor{ID: id, Name: "Thandiwe", Surname: "Moyo", Specialization: "Cardiology"}, nil
			}
			return nil, nil
		},
	}
	svc := NewSchedulingService(appointments, patients, doctors, newSetnxLockManager())

	inputs := []BookingInput{
		{Date: testDate, Time: "09:00", Duration: 30, PatientID: "P001", DoctorID: "D001"},
		{Date: testDate, Time: "09:00", Duration: 30, PatientID: "P002", DoctorID: "D002"},
	}
	created := make([]*models.Appointment, len(inputs))
	reasons := make([]RejectReason, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in BookingInput) {
			defer wg.Done()
			created[i], reasons[i], errs[i] = svc.Create(context.Background(), in)
		}(i, in)
	}
	wg.Wait()

	for i := range inputs {
		assert.NoError(t, errs[i], "booking %d", i)
		assert.Equal(t, RejectNone, reasons[i], "booking %d", i)
		assert.NotNil(t, created[i], "booking %d", i)
	}
	assert.ElementsMatch(t, []string{"A042", "A043"}, []string{created[0].ID, created[1].ID})
}

func TestUpdate_ExcludesSelfFromConflictCheck(t *testing.T) {
	stored := models.Appointment{ID: "A001", Date: testDate, Time: "09:00", Duration: 30, PatientID: "P001", DoctorID: "D001"}
	appointments := &MockAppointmentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Appointment, error) {
			if id == "A001" {
				a := stored
				return &a, nil
			}
			return nil, nil
		},
		ForDoctorOnDateFunc: func(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
			return []models.Appointment{stored}, nil
		},
		ForPatientOnDateFunc: func(ctx context.Context, patientID, date string) ([]models.Appointment, error) {
			return []models.Appointment{stored}, nil
		},
	}
	svc, _ := newTestService(appointments)

	// Shift the same appointment by 15 minutes; the only overlap is itself.
	updated, reason, err := svc.Update(context.Background(), "A001", booking("09:15", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectNone, reason)
	assert.Equal(t, "A001", updated.ID)
	assert.Equal(t, "09:15", updated.Time)
	assert.Equal(t, int32(1), appointments.ReplaceCallCount)
}

func TestUpdate_ConflictWithAnotherAppointmentRejected(t *testing.T) {
	stored := models.Appointment{ID: "A001", Date: testDate, Time: "09:00", Duration: 30, PatientID: "P001", DoctorID: "D001"}
	other := models.Appointment{ID: "A002", Date: testDate, Time: "10:00", Duration: 30, PatientID: "P009", DoctorID: "D001"}
	appointments := &MockAppointmentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Appointment, error) {
			a := stored
			return &a, nil
		},
		ForDoctorOnDateFunc: func(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
			return []models.Appointment{stored, other}, nil
		},
	}
	svc, _ := newTestService(appointments)

	_, reason, err := svc.Update(context.Background(), "A001", booking("10:15", 30))
	assert.NoError(t, err)
	assert.Equal(t, RejectDoctorUnavailable, reason)
}

func TestUpdate_MissingAppointment(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	_, _, err := svc.Update(context.Background(), "A404", booking("09:00", 30))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	appointments := &MockAppointmentRepository{
		DeleteByIDFunc: func(ctx context.Context, id string) (bool, error) {
			return id == "A001", nil
		},
	}
	svc, _ := newTestService(appointments)

	assert.NoError(t, svc.Delete(context.Background(), "A001"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "A404"), ErrNotFound)
}

func TestGetByID_MissingAppointment(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	_, err := svc.GetByID(context.Background(), "A404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForResource_PartitionsAroundToday(t *testing.T) {
	appointments := &MockAppointmentRepository{
		ForResourceFunc: func(ctx context.Context, kind models.ResourceKind, id string) ([]models.Appointment, error) {
			return []models.Appointment{
				{ID: "A003", Date: "2099-05-20", Time: "09:00"},
				{ID: "A002", Date: "2098-01-01", Time: "10:00"},
				{ID: "A001", Date: "2000-01-01", Time: "11:00"},
			}, nil
		},
	}
	svc, _ := newTestService(appointments)

	schedule, err := svc.ListForResource(context.Background(), models.ResourceDoctor, "D001")
	assert.NoError(t, err)
	assert.Len(t, schedule.All, 3)
	assert.Len(t, schedule.Upcoming, 2)
	assert.Len(t, schedule.Past, 1)
	assert.Equal(t, "A001", schedule.Past[0].ID)
	// Store order is preserved within each partition.
	assert.Equal(t, "A003", schedule.Upcoming[0].ID)
	assert.Equal(t, "A002", schedule.Upcoming[1].ID)
}

func TestCheckAvailability_EmptyIDsReadAvailable(t *testing.T) {
	svc, _ := newTestService(&MockAppointmentRepository{})

	status := svc.CheckAvailability(context.Background(), AvailabilityQuery{
		Date: testDate, Time: "09:00", Duration: 30,
	})
	assert.True(t, status.DoctorAvailable)
	assert.True(t, status.PatientAvailable)
}

func TestCheckAvailability_ReportsConflicts(t *testing.T) {
	appointments := &MockAppointmentRepository{
		ForDoctorOnDateFunc: func(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
			return []models.Appointment{
				{ID: "A001", Date: testDate, Time: "09:00", Duration: 30, DoctorID: "D001"},
			}, nil
		},
	}
	svc, _ := newTestService(appointments)

	status := svc.CheckAvailability(context.Background(), AvailabilityQuery{
		DoctorID: "D001", PatientID: "P001", Date: testDate, Time: "09:15", Duration: 30,
	})
	assert.False(t, status.DoctorAvailable)
	assert.True(t, status.PatientAvailable)
}

func TestCheckAvailability_FailsSafeOnBadInput(t *testing.T) {
	// Malformed date never errors out of the advisory probe; the answer is
	// simply unavailable.
	svc, _ := newTestService(&MockAppointmentRepository{})

	status := svc.CheckAvailability(context.Background(), AvailabilityQuery{
		DoctorID: "D001", Date: "not-a-date", Time: "09:00", Duration: 30,
	})
	assert.False(t, status.DoctorAvailable)
}

func TestCheckAvailability_FailsSafeOnStoreError(t *testing.T) {
	appointments := &MockAppointmentRepository{
		ForDoctorOnDateFunc: func(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
			return nil, errors.New("store down")
		},
	}
	svc, _ := newTestService(appointments)

	status := svc.CheckAvailability(context.Background(), AvailabilityQuery{
		DoctorID: "D001", Date: testDate, Time: "09:00", Duration: 30,
	})
	assert.False(t, status.DoctorAvailable)
}

func TestDashboard(t *testing.T) {
	appointments := &MockAppointmentRepository{
		OnDateFunc: func(ctx context.Context, date string) ([]models.Appointment, error) {
			return []models.Appointment{{ID: "A001", Date: date}}, nil
		},
		UpcomingFromFunc: func(ctx context.Context, date string, limit int) ([]models.Appointment, error) {
			assert.Equal(t, 10, limit)
			return []models.Appointment{{ID: "A002"}, {ID: "A003"}}, nil
		},
	}
	svc, _ := newTestService(appointments)
	svc.patients.(*MockPatientRepository).CountFunc = func(ctx context.Context) (int64, error) { return 12, nil }
	svc.doctors.(*MockDoctorRepository).CountFunc = func(ctx context.Context) (int64, error) { return 3, nil }

	summary, err := svc.Dashboard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(12), summary.PatientCount)
	assert.Equal(t, int64(3), summary.DoctorCount)
	assert.Len(t, summary.Today, 1)
	assert.Len(t, summary.Upcoming, 2)
}

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()
	assert.Len(t, slots, 20)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:30", slots[1])
	assert.Equal(t, "17:30", slots[19])
}

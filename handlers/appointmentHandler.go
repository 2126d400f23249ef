package handlers

import (
	"MedaSync/middlewares"
	"MedaSync/models"
	"MedaSync/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type AppointmentHandler struct {
	service *services.SchedulingService
}

func NewAppointmentHandler(service *services.SchedulingService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// rejectStatus maps a rejection to its HTTP status: missing references are
// 404, double-bookings are 409, everything else is a 400.
func rejectStatus(reason services.RejectReason) int {
	switch reason {
	case services.RejectPatientNotFound, services.RejectDoctorNotFound:
		return http.StatusNotFound
	case services.RejectDoctorUnavailable, services.RejectPatientUnavailable:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var input services.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	appointment, reason, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		middlewares.HttpError(c, "Failed to book appointment", 500, err)
		return
	}
	if reason != services.RejectNone {
		c.JSON(rejectStatus(reason), gin.H{"rejected": string(reason), "error": reason.Message()})
		return
	}
	c.JSON(201, appointment)
}

func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	id := c.Param("appointment_id")
	var input services.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	appointment, reason, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(404, gin.H{"error": "Appointment not found"})
			return
		}
		middlewares.HttpError(c, "Failed to update appointment", 500, err)
		return
	}
	if reason != services.RejectNone {
		c.JSON(rejectStatus(reason), gin.H{"rejected": string(reason), "error": reason.Message()})
		return
	}
	c.JSON(200, appointment)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id := c.Param("appointment_id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(404, gin.H{"error": "Appointment not found"})
			return
		}
		middlewares.HttpError(c, "Failed to delete appointment", 500, err)
		return
	}
	c.JSON(200, gin.H{"message": "Appointment deleted"})
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	id := c.Param("appointment_id")
	appointment, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(404, gin.H{"error": "Appointment not found"})
			return
		}
		middlewares.HttpError(c, "Failed to get appointment", 500, err)
		return
	}
	c.JSON(200, appointment)
}

func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	query := c.Query("search")
	var (
		appointments []models.Appointment
		err          error
	)
	if query != "" {
		appointments, err = h.service.Search(c.Request.Context(), query)
	} else {
		appointments, err = h.service.GetAll(c.Request.Context())
	}
	if err != nil {
		middlewares.HttpError(c, "Failed to list appointments", 500, err)
		return
	}
	c.JSON(200, appointments)
}

// GetDoctorSchedule lists a doctor's appointments partitioned into upcoming
// and past.
func (h *AppointmentHandler) GetDoctorSchedule(c *gin.Context) {
	h.resourceSchedule(c, models.ResourceDoctor, c.Param("id"))
}

// GetPatientSchedule lists a patient's appointments partitioned into
// upcoming and past.
func (h *AppointmentHandler) GetPatientSchedule(c *gin.Context) {
	h.resourceSchedule(c, models.ResourcePatient, c.Param("patient_id"))
}

func (h *AppointmentHandler) resourceSchedule(c *gin.Context, kind models.ResourceKind, id string) {
	schedule, err := h.service.ListForResource(c.Request.Context(), kind, id)
	if err != nil {
		middlewares.HttpError(c, "Failed to list appointments", 500, err)
		return
	}
	c.JSON(200, schedule)
}

// CheckAvailability is the advisory pre-submit probe behind the booking
// form; it answers with plain booleans and never errors out.
func (h *AppointmentHandler) CheckAvailability(c *gin.Context) {
	var query services.AvailabilityQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if query.Date == "" || query.Time == "" {
		c.JSON(400, gin.H{"error": "Date and time are required"})
		return
	}
	c.JSON(200, h.service.CheckAvailability(c.Request.Context(), query))
}

// GetTimeSlots returns the half-hour grid offered on booking forms.
func (h *AppointmentHandler) GetTimeSlots(c *gin.Context) {
	c.JSON(200, gin.H{"time_slots": services.TimeSlots()})
}

// GetDashboard returns the front-desk overview.
func (h *AppointmentHandler) GetDashboard(c *gin.Context) {
	summary, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, "Failed to build dashboard", 500, err)
		return
	}
	c.JSON(200, summary)
}

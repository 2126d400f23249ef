package controllers

import (
	"MedaSync/handlers"
	"MedaSync/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupClinicRoutes registers the patient, doctor, and scheduling routes.
// Every route requires an authenticated caller; destructive record deletion
// additionally requires the Admin role, resolved here at the boundary
// rather than inside the services.
func SetupClinicRoutes(router *gin.Engine, patientHandler *handlers.PatientHandler, doctorHandler *handlers.DoctorHandler, appointmentHandler *handlers.AppointmentHandler) {
	authed := router.Group("/").Use(middlewares.TokenAuthMiddleware())
	{
		authed.GET("/dashboard", appointmentHandler.GetDashboard)

		authed.POST("/patients", patientHandler.CreatePatient)
		authed.GET("/patients", patientHandler.GetAllPatients)
		authed.GET("/patients/:patient_id", patientHandler.GetPatientByID)
		authed.PUT("/patients/:patient_id", patientHandler.UpdatePatient)
		authed.GET("/patients/:patient_id/appointments", appointmentHandler.GetPatientSchedule)

		authed.POST("/doctors", doctorHandler.CreateDoctor)
		authed.GET("/doctors", doctorHandler.GetAllDoctors)
		authed.GET("/doctors/:id", doctorHandler.GetDoctorByID)
		authed.PUT("/doctors/:id", doctorHandler.UpdateDoctor)
		authed.GET("/doctors/:id/appointments", appointmentHandler.GetDoctorSchedule)

		authed.POST("/appointments", appointmentHandler.CreateAppointment)
		authed.GET("/appointments", appointmentHandler.GetAllAppointments)
		authed.GET("/appointments/:appointment_id", appointmentHandler.GetAppointmentByID)
		authed.PUT("/appointments/:appointment_id", appointmentHandler.UpdateAppointment)
		authed.DELETE("/appointments/:appointment_id", appointmentHandler.DeleteAppointment)
		authed.POST("/check_availability", appointmentHandler.CheckAvailability)

		authed.GET("/time_slots", appointmentHandler.GetTimeSlots)
		authed.GET("/specializations", doctorHandler.GetSpecializations)
		authed.GET("/country_codes", patientHandler.GetCountryCodes)
	}

	admin := router.Group("/").Use(
		middlewares.TokenAuthMiddleware(),
		middlewares.RoleAuthMiddleware("Admin"),
	)
	{
		admin.DELETE("/patients/:patient_id", patientHandler.DeletePatient)
		admin.DELETE("/doctors/:id", doctorHandler.DeleteDoctor)
	}
}

package handlers

import (
	"MedaSync/middlewares"
	"MedaSync/models"
	"MedaSync/services"
	"MedaSync/utils"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	service *services.PatientService
}

func NewPatientHandler(service *services.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var patient models.Patient
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Create(c.Request.Context(), &patient); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, patient)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	id := c.Param("patient_id")
	patient, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		middlewares.HttpError(c, "Failed to get patient", 500, err)
		return
	}
	if patient == nil {
		c.JSON(404, gin.H{"error": "Patient not found"})
		return
	}
	c.JSON(200, patient)
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	query := c.Query("search")
	var (
		patients []models.Patient
		err      error
	)
	if query != "" {
		patients, err = h.service.Search(c.Request.Context(), query)
	} else {
		patients, err = h.service.GetAll(c.Request.Context())
	}
	if err != nil {
		middlewares.HttpError(c, "Failed to list patients", 500, err)
		return
	}
	c.JSON(200, patients)
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	id := c.Param("patient_id")
	var patient models.Patient
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	patient.ID = id
	if err := h.service.Update(c.Request.Context(), &patient); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, patient)
}

// DeletePatient removes the patient and all of their appointments. Admin only.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	id := c.Param("patient_id")
	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		middlewares.HttpError(c, "Failed to delete patient", 500, err)
		return
	}
	if !deleted {
		c.JSON(404, gin.H{"error": "Patient not found"})
		return
	}
	c.JSON(200, gin.H{"message": "Patient and their appointments deleted"})
}

// GetCountryCodes lists the calling codes accepted on contact forms.
func (h *PatientHandler) GetCountryCodes(c *gin.Context) {
	c.JSON(200, gin.H{"country_codes": utils.CountryCodes})
}

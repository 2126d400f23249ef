package handlers

import (
	"MedaSync/middlewares"
	"MedaSync/models"
	"MedaSync/services"

	"github.com/gin-gonic/gin"
)

type DoctorHandler struct {
	service *services.DoctorService
}

func NewDoctorHandler(service *services.DoctorService) *DoctorHandler {
	return &DoctorHandler{service: service}
}

func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	var doctor models.Doctor
	if err := c.ShouldBindJSON(&doctor); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Create(c.Request.Context(), &doctor); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, doctor)
}

func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	id := c.Param("id")
	doctor, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		middlewares.HttpError(c, "Failed to get doctor", 500, err)
		return
	}
	if doctor == nil {
		c.JSON(404, gin.H{"error": "Doctor not found"})
		return
	}
	c.JSON(200, doctor)
}

func (h *DoctorHandler) GetAllDoctors(c *gin.Context) {
	query := c.Query("search")
	var (
		doctors []models.Doctor
		err     error
	)
	if query != "" {
		doctors, err = h.service.Search(c.Request.Context(), query)
	} else {
		doctors, err = h.service.GetAll(c.Request.Context())
	}
	if err != nil {
		middlewares.HttpError(c, "Failed to list doctors", 500, err)
		return
	}
	c.JSON(200, doctors)
}

func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	id := c.Param("id")
	var doctor models.Doctor
	if err := c.ShouldBindJSON(&doctor); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	doctor.ID = id
	if err := h.service.Update(c.Request.Context(), &doctor); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, doctor)
}

// DeleteDoctor removes the doctor and all of their appointments. Admin only.
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		middlewares.HttpError(c, "Failed to delete doctor", 500, err)
		return
	}
	if !deleted {
		c.JSON(404, gin.H{"error": "Doctor not found"})
		return
	}
	c.JSON(200, gin.H{"message": "Doctor and their appointments deleted"})
}

// GetSpecializations lists the registered doctor specializations.
func (h *DoctorHandler) GetSpecializations(c *gin.Context) {
	c.JSON(200, gin.H{"specializations": models.Specializations})
}

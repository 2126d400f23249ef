package services

import (
	"MedaSync/models"
	"MedaSync/repositories"
	"MedaSync/utils"
	"context"
)

type PatientService struct {
	repository repositories.PatientRepository
}

func NewPatientService(repository repositories.PatientRepository) *PatientService {
	return &PatientService{repository: repository}
}

// Create validates the admin-entry form and registers the patient; the
// contact number is stored in digits-only form.
func (s *PatientService) Create(ctx context.Context, patient *models.Patient) error {
	if err := utils.ValidatePatientData(*patient); err != nil {
		return err
	}
	patient.ContactNumber = utils.FormatPhoneNumber(patient.ContactNumber)
	return s.repository.Create(ctx, patient)
}

func (s *PatientService) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	return s.repository.GetByID(ctx, id)
}

func (s *PatientService) GetAll(ctx context.Context) ([]models.Patient, error) {
	return s.repository.GetAll(ctx)
}

func (s *PatientService) Search(ctx context.Context, query string) ([]models.Patient, error) {
	return s.repository.Search(ctx, query)
}

func (s *PatientService) Update(ctx context.Context, patient *models.Patient) error {
	if err := utils.ValidatePatientData(*patient); err != nil {
		return err
	}
	patient.ContactNumber = utils.FormatPhoneNumber(patient.ContactNumber)
	return s.repository.Update(ctx, patient)
}

// Delete cascades: the patient's appointments are removed first. The bool
// result reports whether the patient existed.
func (s *PatientService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repository.Delete(ctx, id)
}

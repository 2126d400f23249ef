package services

import (
	"MedaSync/models"
	"MedaSync/repositories"
	"MedaSync/utils"
	"context"
)

type DoctorService struct {
	repository repositories.DoctorRepository
}

func NewDoctorService(repository repositories.DoctorRepository) *DoctorService {
	return &DoctorService{repository: repository}
}

// Create validates the admin-entry form and registers the doctor.
func (s *DoctorService) Create(ctx context.Context, doctor *models.Doctor) error {
	if err := utils.ValidateDoctorData(*doctor); err != nil {
		return err
	}
	doctor.ContactNumber = utils.FormatPhoneNumber(doctor.ContactNumber)
	return s.repository.Create(ctx, doctor)
}

func (s *DoctorService) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	return s.repository.GetByID(ctx, id)
}

func (s *DoctorService) GetAll(ctx context.Context) ([]models.Doctor, error) {
	return s.repository.GetAll(ctx)
}

func (s *DoctorService) Search(ctx context.Context, query string) ([]models.Doctor, error) {
	return s.repository.Search(ctx, query)
}

func (s *DoctorService) Update(ctx context.Context, doctor *models.Doctor) error {
	if err := utils.ValidateDoctorData(*doctor); err != nil {
		return err
	}
	doctor.ContactNumber = utils.FormatPhoneNumber(doctor.ContactNumber)
	return s.repository.Update(ctx, doctor)
}

// Delete cascades: the doctor's appointments are removed first. The bool
// result reports whether the doctor existed.
func (s *DoctorService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repository.Delete(ctx, id)
}

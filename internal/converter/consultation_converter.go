package converter

import (
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/entity"
)

// ConsultationToResponse converts a Consultation entity to its DTO. Encrypted
// payload fields are deliberately absent: decryption is the usecase's call.
func ConsultationToResponse(consultation *entity.Consultation) *dto.ConsultationResponse {
	if consultation == nil {
		return nil
	}

	return &dto.ConsultationResponse{
		ID:        consultation.ID,
		PatientID: consultation.PatientID,
		DoctorID:  consultation.DoctorID,
		Specialty: consultation.Specialty,
		Status:    string(consultation.Status),
		CreatedAt: consultation.CreatedAt,
		StartedAt: consultation.StartedAt,
		EndedAt:   consultation.EndedAt,
		UpdatedAt: consultation.UpdatedAt,
	}
}

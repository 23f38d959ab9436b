package repository

import (
	"telehealth-consultation-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsultationRepository interface {
	Create(db *gorm.DB, consultation *entity.Consultation) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error)
	// FindByIDForUpdate locks the consultation row so status transitions are
	// executed as atomic check-then-act.
	FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error)
	// FindInFlightByPatient returns the patient's consultation in
	// pending_payment or active state, nil if there is none.
	FindInFlightByPatient(db *gorm.DB, patientID uuid.UUID) (*entity.Consultation, error)
	FindCompletedByPatient(db *gorm.DB, patientID, excludeID uuid.UUID) ([]entity.Consultation, error)
	CountInFlightByDoctor(db *gorm.DB, doctorID uuid.UUID) (int64, error)
	Update(db *gorm.DB, consultation *entity.Consultation) error
	UpdateTranscript(db *gorm.DB, id uuid.UUID, transcriptEnc string) error
}

package repository

import (
	"telehealth-consultation-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrivacyLogRepository interface {
	Create(db *gorm.DB, log *entity.PrivacyLog) error
	// FindAll lists entries newest first, optionally filtered by actor.
	FindAll(db *gorm.DB, actorID *uuid.UUID, limit int) ([]entity.PrivacyLog, error)
	// FindVisibleToPatient lists entries where the patient is the actor or the
	// target is not marked internal-only.
	FindVisibleToPatient(db *gorm.DB, patientID uuid.UUID, limit int) ([]entity.PrivacyLog, error)
}

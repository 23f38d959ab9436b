package repository

import (
	"telehealth-consultation-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	// FindByUserIDForUpdate locks the profile row for the duration of the
	// surrounding transaction.
	FindByUserIDForUpdate(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	// FindFirstAvailableForUpdate selects and locks one online doctor for the
	// given specialty. Tie-break is lowest user id first.
	FindFirstAvailableForUpdate(db *gorm.DB, specialty string) (*entity.DoctorProfile, error)
	FindOnline(db *gorm.DB, excludeUserID uuid.UUID) ([]entity.DoctorProfile, error)
	UpdateStatus(db *gorm.DB, userID uuid.UUID, status entity.DoctorStatus) error
	Delete(db *gorm.DB, userID uuid.UUID) error
}

package repository

import (
	"telehealth-consultation-service/internal/domain/entity"
	domainRepo "telehealth-consultation-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type privacyLogRepository struct{}

func NewPrivacyLogRepository() domainRepo.PrivacyLogRepository {
	return &privacyLogRepository{}
}

func (r *privacyLogRepository) Create(db *gorm.DB, log *entity.PrivacyLog) error {
	return db.Create(log).Error
}

func (r *privacyLogRepository) FindAll(db *gorm.DB, actorID *uuid.UUID, limit int) ([]entity.PrivacyLog, error) {
	var logs []entity.PrivacyLog
	query := db.Order("timestamp DESC").Limit(limit)
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *privacyLogRepository) FindVisibleToPatient(db *gorm.DB, patientID uuid.UUID, limit int) ([]entity.PrivacyLog, error) {
	var logs []entity.PrivacyLog
	err := db.Where("actor_id = ? OR target_data != ?", patientID, entity.TargetSystemInternal).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

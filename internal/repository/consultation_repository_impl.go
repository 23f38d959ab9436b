package repository

import (
	"errors"

	"telehealth-consultation-service/internal/domain/entity"
	domainRepo "telehealth-consultation-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var inFlightStatuses = []entity.ConsultationStatus{
	entity.ConsultationStatusPendingPayment,
	entity.ConsultationStatusActive,
}

type consultationRepository struct{}

func NewConsultationRepository() domainRepo.ConsultationRepository {
	return &consultationRepository{}
}

func (r *consultationRepository) Create(db *gorm.DB, consultation *entity.Consultation) error {
	return db.Create(consultation).Error
}

func (r *consultationRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error) {
	var consultation entity.Consultation
	err := db.Where("id = ?", id).First(&consultation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &consultation, nil
}

func (r *consultationRepository) FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error) {
	var consultation entity.Consultation
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&consultation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &consultation, nil
}

func (r *consultationRepository) FindInFlightByPatient(db *gorm.DB, patientID uuid.UUID) (*entity.Consultation, error) {
	var consultation entity.Consultation
	err := db.Where("patient_id = ? AND status IN ?", patientID, inFlightStatuses).
		First(&consultation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &consultation, nil
}

func (r *consultationRepository) FindCompletedByPatient(db *gorm.DB, patientID, excludeID uuid.UUID) ([]entity.Consultation, error) {
	var consultations []entity.Consultation
	err := db.Preload("Doctor.DoctorProfile").
		Where("patient_id = ? AND id != ? AND status = ?", patientID, excludeID, entity.ConsultationStatusCompleted).
		Order("created_at DESC").
		Find(&consultations).Error
	if err != nil {
		return nil, err
	}
	return consultations, nil
}

func (r *consultationRepository) CountInFlightByDoctor(db *gorm.DB, doctorID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&entity.Consultation{}).
		Where("doctor_id = ? AND status IN ?", doctorID, inFlightStatuses).
		Count(&count).Error
	return count, err
}

func (r *consultationRepository) Update(db *gorm.DB, consultation *entity.Consultation) error {
	return db.Save(consultation).Error
}

func (r *consultationRepository) UpdateTranscript(db *gorm.DB, id uuid.UUID, transcriptEnc string) error {
	return db.Model(&entity.Consultation{}).
		Where("id = ?", id).
		Update("transcript_enc", transcriptEnc).Error
}

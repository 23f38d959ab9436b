package usecase

import (
	"context"

	"telehealth-consultation-service/internal/converter"
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultAuditLogLimit = 200

type AuditLogUsecase interface {
	// ListAll returns the full ledger newest first, optionally filtered to a
	// single actor. Admin only.
	ListAll(ctx context.Context, actorID *uuid.UUID, limit int) (*dto.PrivacyLogListResponse, error)
	// ListVisibleToPatient returns the entries a patient may see about their
	// own data: their own actions plus third-party accesses that are not
	// internal-only.
	ListVisibleToPatient(ctx context.Context, patientID uuid.UUID, limit int) (*dto.PrivacyLogListResponse, error)
}

type auditLogUsecase struct {
	db             *gorm.DB
	log            *logrus.Logger
	privacyLogRepo repository.PrivacyLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	privacyLogRepo repository.PrivacyLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:             db,
		log:            log,
		privacyLogRepo: privacyLogRepo,
	}
}

func (u *auditLogUsecase) ListAll(ctx context.Context, actorID *uuid.UUID, limit int) (*dto.PrivacyLogListResponse, error) {
	if limit <= 0 {
		limit = defaultAuditLogLimit
	}

	logs, err := u.privacyLogRepo.FindAll(u.db.WithContext(ctx), actorID, limit)
	if err != nil {
		u.log.Warnf("Failed to list privacy logs: %+v", err)
		return nil, err
	}

	entries := converter.PrivacyLogsToResponses(logs)
	return &dto.PrivacyLogListResponse{
		Entries: entries,
		Total:   len(entries),
	}, nil
}

func (u *auditLogUsecase) ListVisibleToPatient(ctx context.Context, patientID uuid.UUID, limit int) (*dto.PrivacyLogListResponse, error) {
	if limit <= 0 {
		limit = defaultAuditLogLimit
	}

	logs, err := u.privacyLogRepo.FindVisibleToPatient(u.db.WithContext(ctx), patientID, limit)
	if err != nil {
		u.log.Warnf("Failed to list privacy logs for patient %s: %+v", patientID, err)
		return nil, err
	}

	entries := converter.PrivacyLogsToResponses(logs)
	return &dto.PrivacyLogListResponse{
		Entries: entries,
		Total:   len(entries),
	}, nil
}

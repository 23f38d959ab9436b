package service

import (
	"fmt"

	"telehealth-consultation-service/internal/domain/entity"
	"telehealth-consultation-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService appends entries to the privacy ledger. Entries are written
// inside the caller's transaction: if the append fails the whole operation
// rolls back, so no state change ever commits without its audit trail.
type AuditService interface {
	Record(tx *gorm.DB, actor *entity.User, action, target, purpose string, consultationID *uuid.UUID) error
}

type auditService struct {
	log            *logrus.Logger
	privacyLogRepo repository.PrivacyLogRepository
}

func NewAuditService(log *logrus.Logger, privacyLogRepo repository.PrivacyLogRepository) AuditService {
	return &auditService{
		log:            log,
		privacyLogRepo: privacyLogRepo,
	}
}

func (s *auditService) Record(tx *gorm.DB, actor *entity.User, action, target, purpose string, consultationID *uuid.UUID) error {
	entry := &entity.PrivacyLog{
		ConsultationID: consultationID,
		ActorID:        actor.ID,
		ActorName:      fmt.Sprintf("%s (%s)", actor.FullName, entity.RoleName(actor.RoleID)),
		Action:         action,
		TargetData:     target,
		Purpose:        purpose,
	}

	if err := s.privacyLogRepo.Create(tx, entry); err != nil {
		s.log.Errorf("Failed to append privacy log entry (%s): %+v", action, err)
		return err
	}

	return nil
}

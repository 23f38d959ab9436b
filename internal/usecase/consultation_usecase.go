package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telehealth-consultation-service/internal/converter"
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/entity"
	"telehealth-consultation-service/internal/domain/repository"
	"telehealth-consultation-service/internal/service"
	"telehealth-consultation-service/pkg/phicrypto"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrConsultationNotFound   = errors.New("consultation not found")
	ErrConsultationInProgress = errors.New("you already have a consultation in progress")
	ErrNotConsultationOwner   = errors.New("consultation does not belong to you")
	ErrNotParticipant         = errors.New("you are not a participant of this consultation")
	ErrNotAssignedDoctor      = errors.New("you are not the assigned doctor")
	ErrConsultationNotActive  = errors.New("consultation is not active")
	ErrAlreadyResolved        = errors.New("billing has already been resolved for this consultation")
	ErrTargetNotDoctor        = errors.New("transfer target is not a doctor")
	ErrTargetNotOnline        = errors.New("transfer target is not online")
	ErrDoctorNotFound         = errors.New("doctor not found")

	ErrNoDoctorAvailableForSpecialty = errors.New("no doctor available for this specialty")
)

// Placeholders shown when an encrypted field cannot be decrypted. PHI
// decryption failures degrade to a visible marker, never to an error.
const (
	placeholderSymptoms = "Unable to decrypt symptoms data."
	placeholderNotes    = "Unable to decrypt clinical notes."
)

const (
	// BillingOutcomeSuccess marks a simulated successful payment.
	BillingOutcomeSuccess = "success"
)

type ConsultationUsecase interface {
	StartTriage(ctx context.Context, patientID uuid.UUID, req *dto.StartTriageRequest) (*dto.ConsultationResponse, error)
	ResolveBilling(ctx context.Context, patientID uuid.UUID, req *dto.ResolveBillingRequest) (*dto.ConsultationResponse, error)
	EnterRoom(ctx context.Context, userID, consultationID uuid.UUID) (*dto.RoomViewResponse, error)
	// AuthorizeRoomAccess re-runs the room entry preconditions without side
	// effects; used by the websocket upgrade path.
	AuthorizeRoomAccess(ctx context.Context, userID, consultationID uuid.UUID) error
	SaveNotes(ctx context.Context, doctorID, consultationID uuid.UUID, req *dto.SaveNotesRequest) error
	Transfer(ctx context.Context, doctorID, consultationID uuid.UUID, req *dto.TransferRequest) (*dto.ConsultationResponse, error)
	EndSession(ctx context.Context, userID, consultationID uuid.UUID) (*dto.ConsultationResponse, error)
	AvailableDoctors(ctx context.Context, doctorID, consultationID uuid.UUID) (*dto.DoctorListResponse, error)
}

type consultationUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	consultationRepo  repository.ConsultationRepository
	doctorProfileRepo repository.DoctorProfileRepository
	availability      service.AvailabilityService
	audit             service.AuditService
	encryptor         phicrypto.Encryptor
}

func NewConsultationUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	consultationRepo repository.ConsultationRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	availability service.AvailabilityService,
	audit service.AuditService,
	encryptor phicrypto.Encryptor,
) ConsultationUsecase {
	return &consultationUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		consultationRepo:  consultationRepo,
		doctorProfileRepo: doctorProfileRepo,
		availability:      availability,
		audit:             audit,
		encryptor:         encryptor,
	}
}

// StartTriage matches the patient's stated specialty need to an available
// doctor and opens a consultation gated on payment.
//
// The patient row is locked FOR UPDATE before the in-progress check, so
// concurrent triage requests from the same patient serialize on it: the
// second request's check runs only after the first has committed and sees
// its consultation. Doctor double-assignment is prevented separately by the
// locked doctor row inside Reserve.
func (u *consultationUsecase) StartTriage(ctx context.Context, patientID uuid.UUID, req *dto.StartTriageRequest) (*dto.ConsultationResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	patient, err := u.userRepo.FindByIDForUpdate(tx, patientID)
	if err != nil {
		u.log.Warnf("Failed to load patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrUserNotFound
	}

	existing, err := u.consultationRepo.FindInFlightByPatient(tx, patientID)
	if err != nil {
		u.log.Warnf("Failed to check in-flight consultation for %s: %+v", patientID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrConsultationInProgress
	}

	profile, err := u.availability.Reserve(tx, req.Specialty)
	if err != nil {
		if errors.Is(err, service.ErrNoDoctorAvailable) {
			return nil, ErrNoDoctorAvailableForSpecialty
		}
		return nil, err
	}

	doctor, err := u.userRepo.FindByID(tx, profile.UserID)
	if err != nil || doctor == nil {
		u.log.Errorf("Reserved doctor %s has no user row: %+v", profile.UserID, err)
		return nil, ErrDoctorNotFound
	}

	symptomsEnc, err := u.encryptor.Encrypt(req.Symptoms)
	if err != nil {
		u.log.Errorf("Failed to encrypt symptoms: %+v", err)
		return nil, err
	}

	consultation := &entity.Consultation{
		ID:          uuid.New(),
		PatientID:   patientID,
		DoctorID:    doctor.ID,
		Specialty:   req.Specialty,
		Status:      entity.ConsultationStatusPendingPayment,
		SymptomsEnc: symptomsEnc,
	}

	if err := u.consultationRepo.Create(tx, consultation); err != nil {
		u.log.Warnf("Failed to create consultation: %+v", err)
		return nil, err
	}

	if err := u.audit.Record(tx, patient, entity.AuditActionSubmittedTriage, "Symptoms (Encrypted)", "Treatment Request", &consultation.ID); err != nil {
		return nil, err
	}
	if err := u.audit.Record(tx, doctor, entity.AuditActionSystemAssigned, fmt.Sprintf("Patient #%s", patient.ID), "Triage Algorithm", &consultation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit triage transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Triage created consultation %s: patient=%s doctor=%s specialty=%s", consultation.ID, patientID, doctor.ID, req.Specialty)
	return converter.ConsultationToResponse(consultation), nil
}

// ResolveBilling is the one-shot pending_payment exit: success activates the
// room, failure cancels and returns the doctor to the pool. A second call on
// an already resolved consultation is an explicit error, never a repeated
// transition.
func (u *consultationUsecase) ResolveBilling(ctx context.Context, patientID uuid.UUID, req *dto.ResolveBillingRequest) (*dto.ConsultationResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	consultation, err := u.consultationRepo.FindByIDForUpdate(tx, req.ConsultationID)
	if err != nil {
		u.log.Warnf("Failed to load consultation %s: %+v", req.ConsultationID, err)
		return nil, err
	}
	if consultation == nil {
		return nil, ErrConsultationNotFound
	}
	if consultation.PatientID != patientID {
		return nil, ErrNotConsultationOwner
	}
	if !consultation.IsPendingPayment() {
		return nil, ErrAlreadyResolved
	}

	patient, err := u.userRepo.FindByID(tx, patientID)
	if err != nil || patient == nil {
		return nil, ErrUserNotFound
	}

	if req.Outcome == BillingOutcomeSuccess {
		doctor, err := u.userRepo.FindByID(tx, consultation.DoctorID)
		if err != nil || doctor == nil {
			return nil, ErrDoctorNotFound
		}

		now := time.Now().UTC()
		consultation.Status = entity.ConsultationStatusActive
		consultation.StartedAt = &now

		if err := u.consultationRepo.Update(tx, consultation); err != nil {
			u.log.Warnf("Failed to activate consultation %s: %+v", consultation.ID, err)
			return nil, err
		}
		if err := u.audit.Record(tx, doctor, entity.AuditActionAuthorizedAccess, "Medical Record", "Payment Confirmed", &consultation.ID); err != nil {
			return nil, err
		}
	} else {
		consultation.Status = entity.ConsultationStatusCancelled

		if err := u.consultationRepo.Update(tx, consultation); err != nil {
			u.log.Warnf("Failed to cancel consultation %s: %+v", consultation.ID, err)
			return nil, err
		}
		if err := u.availability.Release(tx, consultation.DoctorID); err != nil {
			u.log.Warnf("Failed to release doctor %s: %+v", consultation.DoctorID, err)
			return nil, err
		}
		if err := u.audit.Record(tx, patient, entity.AuditActionPaymentDeclined, "Billing", "Payment Failed", &consultation.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit billing transaction: %+v", err)
		return nil, err
	}

	return converter.ConsultationToResponse(consultation), nil
}

// EnterRoom validates room access and assembles the participant's view:
// decrypted symptoms for both parties, notes and the patient's completed
// history for the treating doctor.
func (u *consultationUsecase) EnterRoom(ctx context.Context, userID, consultationID uuid.UUID) (*dto.RoomViewResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	consultation, user, err := u.loadRoomParticipant(tx, userID, consultationID)
	if err != nil {
		return nil, err
	}

	patient, err := u.userRepo.FindByID(tx, consultation.PatientID)
	if err != nil || patient == nil {
		return nil, ErrUserNotFound
	}
	doctor, err := u.userRepo.FindByID(tx, consultation.DoctorID)
	if err != nil || doctor == nil {
		return nil, ErrDoctorNotFound
	}

	view := &dto.RoomViewResponse{
		Consultation: *converter.ConsultationToResponse(consultation),
		PatientName:  patient.FullName,
		DoctorName:   doctor.FullName,
		Symptoms:     phicrypto.DecryptOrPlaceholder(u.encryptor, consultation.SymptomsEnc, placeholderSymptoms),
	}

	if user.IsDoctor() {
		if consultation.NotesEnc != "" {
			view.Notes = phicrypto.DecryptOrPlaceholder(u.encryptor, consultation.NotesEnc, placeholderNotes)
		}
		history, err := u.loadHistory(tx, consultation)
		if err != nil {
			return nil, err
		}
		view.History = history
	}

	if err := u.audit.Record(tx, user, entity.AuditActionEnteredRoom, "Video Stream", "Consultation", &consultation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit room entry: %+v", err)
		return nil, err
	}

	return view, nil
}

// AuthorizeRoomAccess runs the same preconditions as EnterRoom but writes
// nothing: the websocket upgrade should not mint a second ledger entry for a
// room the participant already entered.
func (u *consultationUsecase) AuthorizeRoomAccess(ctx context.Context, userID, consultationID uuid.UUID) error {
	db := u.db.WithContext(ctx)

	consultation, err := u.consultationRepo.FindByID(db, consultationID)
	if err != nil {
		return err
	}
	if consultation == nil {
		return ErrConsultationNotFound
	}
	if !consultation.IsParticipant(userID) {
		return ErrNotParticipant
	}
	if !consultation.IsActive() {
		return ErrConsultationNotActive
	}
	return nil
}

// SaveNotes overwrites the encrypted clinical notes. Last write wins.
func (u *consultationUsecase) SaveNotes(ctx context.Context, doctorID, consultationID uuid.UUID, req *dto.SaveNotesRequest) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	consultation, err := u.consultationRepo.FindByIDForUpdate(tx, consultationID)
	if err != nil {
		return err
	}
	if consultation == nil {
		return ErrConsultationNotFound
	}
	if consultation.DoctorID != doctorID {
		return ErrNotAssignedDoctor
	}

	doctor, err := u.userRepo.FindByID(tx, doctorID)
	if err != nil || doctor == nil {
		return ErrUserNotFound
	}
	if !doctor.IsDoctor() {
		return ErrNotAssignedDoctor
	}

	notesEnc, err := u.encryptor.Encrypt(req.Notes)
	if err != nil {
		u.log.Errorf("Failed to encrypt notes: %+v", err)
		return err
	}
	consultation.NotesEnc = notesEnc

	if err := u.consultationRepo.Update(tx, consultation); err != nil {
		u.log.Warnf("Failed to save notes for %s: %+v", consultationID, err)
		return err
	}

	if err := u.audit.Record(tx, doctor, entity.AuditActionAppendedNotes, "Medical Record", "Documentation", &consultation.ID); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit notes transaction: %+v", err)
		return err
	}

	return nil
}

// Transfer hands an active consultation to another doctor without orphaning
// the patient: the target is reserved first (must be exactly online), then
// the old doctor is released, all inside one transaction. On any failed
// precondition nothing mutates and the error names the precondition.
func (u *consultationUsecase) Transfer(ctx context.Context, doctorID, consultationID uuid.UUID, req *dto.TransferRequest) (*dto.ConsultationResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	consultation, err := u.consultationRepo.FindByIDForUpdate(tx, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation == nil {
		return nil, ErrConsultationNotFound
	}
	if consultation.DoctorID != doctorID {
		return nil, ErrNotAssignedDoctor
	}
	if !consultation.IsActive() {
		return nil, ErrConsultationNotActive
	}

	oldDoctor, err := u.userRepo.FindByID(tx, doctorID)
	if err != nil || oldDoctor == nil {
		return nil, ErrUserNotFound
	}

	newDoctor, err := u.userRepo.FindByID(tx, req.NewDoctorID)
	if err != nil {
		return nil, err
	}
	if newDoctor == nil {
		return nil, ErrDoctorNotFound
	}
	if !newDoctor.IsDoctor() {
		return nil, ErrTargetNotDoctor
	}

	if _, err := u.availability.ReserveByID(tx, req.NewDoctorID); err != nil {
		switch {
		case errors.Is(err, service.ErrDoctorProfileNotFound):
			return nil, ErrTargetNotDoctor
		case errors.Is(err, service.ErrNoDoctorAvailable):
			return nil, ErrTargetNotOnline
		default:
			u.log.Warnf("Failed to reserve transfer target %s: %+v", req.NewDoctorID, err)
			return nil, err
		}
	}

	consultation.DoctorID = req.NewDoctorID
	consultation.UpdatedAt = time.Now().UTC()

	if err := u.consultationRepo.Update(tx, consultation); err != nil {
		u.log.Warnf("Failed to reassign consultation %s: %+v", consultationID, err)
		return nil, err
	}
	if err := u.availability.Release(tx, oldDoctor.ID); err != nil {
		u.log.Warnf("Failed to release doctor %s on transfer: %+v", oldDoctor.ID, err)
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = "Emergency transfer"
	}
	transferTarget := fmt.Sprintf("From Dr. %s to Dr. %s", oldDoctor.FullName, newDoctor.FullName)
	if err := u.audit.Record(tx, oldDoctor, entity.AuditActionTransferred, transferTarget, "Transfer: "+reason, &consultation.ID); err != nil {
		return nil, err
	}
	if err := u.audit.Record(tx, newDoctor, entity.AuditActionReceivedTransfer, fmt.Sprintf("Patient consultation #%s", consultation.ID), "Patient Care", &consultation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transfer transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Consultation %s transferred: %s -> %s", consultation.ID, oldDoctor.ID, newDoctor.ID)
	return converter.ConsultationToResponse(consultation), nil
}

// EndSession completes an active consultation and releases its doctor.
// Ending an already-ended consultation is a no-op, so either party can close
// the room without racing the other.
func (u *consultationUsecase) EndSession(ctx context.Context, userID, consultationID uuid.UUID) (*dto.ConsultationResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	consultation, err := u.consultationRepo.FindByIDForUpdate(tx, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation == nil {
		return nil, ErrConsultationNotFound
	}
	if !consultation.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if !consultation.IsActive() {
		// Already resolved by the other party or an earlier call.
		return converter.ConsultationToResponse(consultation), nil
	}

	user, err := u.userRepo.FindByID(tx, userID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now().UTC()
	consultation.Status = entity.ConsultationStatusCompleted
	consultation.EndedAt = &now

	if err := u.consultationRepo.Update(tx, consultation); err != nil {
		u.log.Warnf("Failed to complete consultation %s: %+v", consultationID, err)
		return nil, err
	}
	if err := u.availability.Release(tx, consultation.DoctorID); err != nil {
		u.log.Warnf("Failed to release doctor %s on end: %+v", consultation.DoctorID, err)
		return nil, err
	}

	if err := u.audit.Record(tx, user, entity.AuditActionEndedConsultation, fmt.Sprintf("Consultation #%s", consultation.ID), "Session Management", &consultation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit end-session transaction: %+v", err)
		return nil, err
	}

	return converter.ConsultationToResponse(consultation), nil
}

// AvailableDoctors lists the online doctors the assigned doctor may hand the
// consultation to.
func (u *consultationUsecase) AvailableDoctors(ctx context.Context, doctorID, consultationID uuid.UUID) (*dto.DoctorListResponse, error) {
	db := u.db.WithContext(ctx)

	consultation, err := u.consultationRepo.FindByID(db, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation == nil {
		return nil, ErrConsultationNotFound
	}
	if consultation.DoctorID != doctorID {
		return nil, ErrNotAssignedDoctor
	}

	profiles, err := u.doctorProfileRepo.FindOnline(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to list online doctors: %+v", err)
		return nil, err
	}

	doctors := converter.DoctorProfilesToResponses(profiles)
	return &dto.DoctorListResponse{
		Doctors: doctors,
		Total:   len(doctors),
	}, nil
}

func (u *consultationUsecase) loadRoomParticipant(tx *gorm.DB, userID, consultationID uuid.UUID) (*entity.Consultation, *entity.User, error) {
	consultation, err := u.consultationRepo.FindByID(tx, consultationID)
	if err != nil {
		return nil, nil, err
	}
	if consultation == nil {
		return nil, nil, ErrConsultationNotFound
	}
	if !consultation.IsParticipant(userID) {
		return nil, nil, ErrNotParticipant
	}
	if !consultation.IsActive() {
		return nil, nil, ErrConsultationNotActive
	}

	user, err := u.userRepo.FindByID(tx, userID)
	if err != nil || user == nil {
		return nil, nil, ErrUserNotFound
	}

	return consultation, user, nil
}

func (u *consultationUsecase) loadHistory(tx *gorm.DB, consultation *entity.Consultation) ([]dto.ConsultationHistoryItem, error) {
	previous, err := u.consultationRepo.FindCompletedByPatient(tx, consultation.PatientID, consultation.ID)
	if err != nil {
		u.log.Warnf("Failed to load history for patient %s: %+v", consultation.PatientID, err)
		return nil, err
	}

	items := make([]dto.ConsultationHistoryItem, 0, len(previous))
	for _, prev := range previous {
		item := dto.ConsultationHistoryItem{
			ID:         prev.ID,
			Date:       prev.CreatedAt,
			DoctorName: prev.Doctor.FullName,
			Specialty:  prev.Specialty,
			Symptoms:   phicrypto.DecryptOrPlaceholder(u.encryptor, prev.SymptomsEnc, placeholderSymptoms),
		}
		if prev.NotesEnc != "" {
			item.Notes = phicrypto.DecryptOrPlaceholder(u.encryptor, prev.NotesEnc, placeholderNotes)
		}
		if prev.TranscriptEnc != "" {
			// A transcript that cannot be decrypted is simply omitted.
			if transcript, err := u.encryptor.Decrypt(prev.TranscriptEnc); err == nil {
				item.Transcript = transcript
			}
		}
		items = append(items, item)
	}

	return items, nil
}

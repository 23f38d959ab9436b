package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telehealth-consultation-service/internal/converter"
	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/domain/entity"
	"telehealth-consultation-service/internal/domain/repository"
	"telehealth-consultation-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrDoctorHasConsultations = errors.New("doctor has consultations in progress")
)

type DoctorUsecase interface {
	// ToggleStatus flips the calling doctor between offline and online.
	ToggleStatus(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorStatusResponse, error)
	OnboardDoctor(ctx context.Context, adminID uuid.UUID, req *dto.OnboardDoctorRequest) (*dto.UserResponse, error)
	ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	RemoveDoctor(ctx context.Context, adminID, doctorID uuid.UUID) error
}

type doctorUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
	consultationRepo  repository.ConsultationRepository
	availability      service.AvailabilityService
	audit             service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	consultationRepo repository.ConsultationRepository,
	availability service.AvailabilityService,
	audit service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
		consultationRepo:  consultationRepo,
		availability:      availability,
		audit:             audit,
	}
}

func (u *doctorUsecase) ToggleStatus(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorStatusResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	status, err := u.availability.ToggleSelf(tx, doctorID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit status toggle: %+v", err)
		return nil, err
	}

	u.log.Infof("Doctor %s toggled availability to %s", doctorID, status)
	return &dto.DoctorStatusResponse{Status: string(status)}, nil
}

// OnboardDoctor creates a doctor account with its profile. New doctors start
// offline and join the matchable pool only after they toggle themselves
// online.
func (u *doctorUsecase) OnboardDoctor(ctx context.Context, adminID uuid.UUID, req *dto.OnboardDoctorRequest) (*dto.UserResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	admin, err := u.userRepo.FindByID(tx, adminID)
	if err != nil || admin == nil {
		return nil, ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		ID:       uuid.New(),
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
		FullName: req.FullName,
		RoleID:   entity.RoleIDDoctor,
	}

	if err := u.userRepo.Create(tx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create doctor user: %+v", err)
		return nil, err
	}

	profile := &entity.DoctorProfile{
		UserID:    user.ID,
		Specialty: req.Specialty,
		Status:    entity.DoctorStatusOffline,
	}

	if err := u.doctorProfileRepo.Create(tx, profile); err != nil {
		u.log.Warnf("Failed to create doctor profile: %+v", err)
		return nil, err
	}

	if err := u.audit.Record(tx, admin, entity.AuditActionOnboardedDoctor, "Staff: "+user.FullName, "Staff Management", nil); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	user.DoctorProfile = profile
	return converter.UserToResponse(user), nil
}

func (u *doctorUsecase) ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.userRepo.FindDoctors(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to list doctors: %+v", err)
		return nil, err
	}

	responses := converter.DoctorsToResponses(doctors)
	return &dto.DoctorListResponse{
		Doctors: responses,
		Total:   len(responses),
	}, nil
}

// RemoveDoctor deletes a doctor account. Doctors with a pending or active
// consultation cannot be removed: deleting them would strand their patient.
func (u *doctorUsecase) RemoveDoctor(ctx context.Context, adminID, doctorID uuid.UUID) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	admin, err := u.userRepo.FindByID(tx, adminID)
	if err != nil || admin == nil {
		return ErrUserNotFound
	}

	doctor, err := u.userRepo.FindByID(tx, doctorID)
	if err != nil {
		return err
	}
	if doctor == nil || !doctor.IsDoctor() {
		return ErrDoctorNotFound
	}

	inFlight, err := u.consultationRepo.CountInFlightByDoctor(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to count in-flight consultations for %s: %+v", doctorID, err)
		return err
	}
	if inFlight > 0 {
		return ErrDoctorHasConsultations
	}

	if err := u.doctorProfileRepo.Delete(tx, doctorID); err != nil {
		u.log.Warnf("Failed to delete doctor profile %s: %+v", doctorID, err)
		return err
	}
	if err := u.userRepo.Delete(tx, doctorID); err != nil {
		u.log.Warnf("Failed to delete doctor user %s: %+v", doctorID, err)
		return err
	}

	if err := u.audit.Record(tx, admin, entity.AuditActionRemovedDoctor, fmt.Sprintf("Staff: %s", doctor.FullName), "Staff Management", nil); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	u.log.Infof("Doctor %s removed by admin %s", doctorID, adminID)
	return nil
}

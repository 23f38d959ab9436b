package service

import (
	"errors"

	"telehealth-consultation-service/internal/domain/entity"
	"telehealth-consultation-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrNoDoctorAvailable is returned when no online doctor matches the
	// requested specialty.
	ErrNoDoctorAvailable = errors.New("no doctor available for this specialty")

	// ErrDoctorBusy is returned when a busy doctor tries to self-toggle.
	ErrDoctorBusy = errors.New("doctor is busy with an active consultation")

	// ErrDoctorProfileNotFound is returned when the user has no doctor profile.
	ErrDoctorProfileNotFound = errors.New("doctor profile not found")
)

// AvailabilityService owns the doctor status column. Every method takes the
// caller's transaction so a reservation and the state change that justifies
// it commit or roll back together.
type AvailabilityService interface {
	// Reserve picks one online doctor for the specialty and flips them to
	// busy. Selection is deterministic: lowest user id first.
	Reserve(tx *gorm.DB, specialty string) (*entity.DoctorProfile, error)
	// Release returns a doctor to the online pool. Idempotent.
	Release(tx *gorm.DB, doctorID uuid.UUID) error
	// ReserveByID flips a specific doctor to busy, requiring status to be
	// exactly online. Used by transfer.
	ReserveByID(tx *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error)
	// ToggleSelf flips a doctor between offline and online. Busy doctors
	// cannot toggle: offline would hide them from reserve while they are
	// still assigned.
	ToggleSelf(tx *gorm.DB, doctorID uuid.UUID) (entity.DoctorStatus, error)
}

type availabilityService struct {
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
}

func NewAvailabilityService(log *logrus.Logger, doctorProfileRepo repository.DoctorProfileRepository) AvailabilityService {
	return &availabilityService{
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
	}
}

func (s *availabilityService) Reserve(tx *gorm.DB, specialty string) (*entity.DoctorProfile, error) {
	profile, err := s.doctorProfileRepo.FindFirstAvailableForUpdate(tx, specialty)
	if err != nil {
		s.log.Warnf("Failed to look up available doctor for %s: %+v", specialty, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrNoDoctorAvailable
	}

	if err := s.doctorProfileRepo.UpdateStatus(tx, profile.UserID, entity.DoctorStatusBusy); err != nil {
		s.log.Warnf("Failed to reserve doctor %s: %+v", profile.UserID, err)
		return nil, err
	}
	profile.Status = entity.DoctorStatusBusy

	return profile, nil
}

func (s *availabilityService) Release(tx *gorm.DB, doctorID uuid.UUID) error {
	return s.doctorProfileRepo.UpdateStatus(tx, doctorID, entity.DoctorStatusOnline)
}

func (s *availabilityService) ReserveByID(tx *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	profile, err := s.doctorProfileRepo.FindByUserIDForUpdate(tx, doctorID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorProfileNotFound
	}
	if !profile.IsOnline() {
		return nil, ErrNoDoctorAvailable
	}

	if err := s.doctorProfileRepo.UpdateStatus(tx, doctorID, entity.DoctorStatusBusy); err != nil {
		return nil, err
	}
	profile.Status = entity.DoctorStatusBusy

	return profile, nil
}

func (s *availabilityService) ToggleSelf(tx *gorm.DB, doctorID uuid.UUID) (entity.DoctorStatus, error) {
	profile, err := s.doctorProfileRepo.FindByUserIDForUpdate(tx, doctorID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrDoctorProfileNotFound
	}
	if profile.IsBusy() {
		return "", ErrDoctorBusy
	}

	next := entity.DoctorStatusOnline
	if profile.IsOnline() {
		next = entity.DoctorStatusOffline
	}

	if err := s.doctorProfileRepo.UpdateStatus(tx, doctorID, next); err != nil {
		return "", err
	}

	return next, nil
}

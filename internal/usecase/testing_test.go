package usecase

import (
	"sort"
	"testing"

	"telehealth-consultation-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database used only for transaction plumbing.
// The fake repositories below ignore the handle entirely.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User

	// onLock, when set, runs as soon as a row lock is acquired. Tests use
	// it to stand in for work another transaction committed while this one
	// was waiting on the lock.
	onLock func(id uuid.UUID)
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) put(user *entity.User) {
	copied := *user
	r.users[user.ID] = &copied
}

func (r *fakeUserRepo) Create(db *gorm.DB, user *entity.User) error {
	r.put(user)
	return nil
}

func (r *fakeUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	if r.onLock != nil {
		r.onLock(id)
	}
	return r.FindByID(db, id)
}

func (r *fakeUserRepo) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindDoctors(db *gorm.DB) ([]entity.User, error) {
	var doctors []entity.User
	for _, user := range r.users {
		if user.RoleID == entity.RoleIDDoctor {
			doctors = append(doctors, *user)
		}
	}
	return doctors, nil
}

func (r *fakeUserRepo) Delete(db *gorm.DB, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

type fakeDoctorProfileRepo struct {
	profiles map[uuid.UUID]*entity.DoctorProfile
}

func newFakeDoctorProfileRepo() *fakeDoctorProfileRepo {
	return &fakeDoctorProfileRepo{profiles: make(map[uuid.UUID]*entity.DoctorProfile)}
}

func (r *fakeDoctorProfileRepo) put(profile *entity.DoctorProfile) {
	copied := *profile
	r.profiles[profile.UserID] = &copied
}

func (r *fakeDoctorProfileRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	r.put(profile)
	return nil
}

func (r *fakeDoctorProfileRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (r *fakeDoctorProfileRepo) FindByUserIDForUpdate(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return r.FindByUserID(db, userID)
}

func (r *fakeDoctorProfileRepo) FindFirstAvailableForUpdate(db *gorm.DB, specialty string) (*entity.DoctorProfile, error) {
	var candidates []*entity.DoctorProfile
	for _, profile := range r.profiles {
		if profile.Specialty == specialty && profile.Status == entity.DoctorStatusOnline {
			candidates = append(candidates, profile)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].UserID.String() < candidates[j].UserID.String()
	})
	copied := *candidates[0]
	return &copied, nil
}

func (r *fakeDoctorProfileRepo) FindOnline(db *gorm.DB, excludeUserID uuid.UUID) ([]entity.DoctorProfile, error) {
	var online []entity.DoctorProfile
	for _, profile := range r.profiles {
		if profile.UserID != excludeUserID && profile.Status == entity.DoctorStatusOnline {
			online = append(online, *profile)
		}
	}
	return online, nil
}

func (r *fakeDoctorProfileRepo) UpdateStatus(db *gorm.DB, userID uuid.UUID, status entity.DoctorStatus) error {
	if profile, ok := r.profiles[userID]; ok {
		profile.Status = status
	}
	return nil
}

func (r *fakeDoctorProfileRepo) Delete(db *gorm.DB, userID uuid.UUID) error {
	delete(r.profiles, userID)
	return nil
}

type fakeConsultationRepo struct {
	consultations map[uuid.UUID]*entity.Consultation
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{consultations: make(map[uuid.UUID]*entity.Consultation)}
}

func (r *fakeConsultationRepo) put(consultation *entity.Consultation) {
	copied := *consultation
	r.consultations[consultation.ID] = &copied
}

func (r *fakeConsultationRepo) Create(db *gorm.DB, consultation *entity.Consultation) error {
	r.put(consultation)
	return nil
}

func (r *fakeConsultationRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error) {
	consultation, ok := r.consultations[id]
	if !ok {
		return nil, nil
	}
	copied := *consultation
	return &copied, nil
}

func (r *fakeConsultationRepo) FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error) {
	return r.FindByID(db, id)
}

func (r *fakeConsultationRepo) FindInFlightByPatient(db *gorm.DB, patientID uuid.UUID) (*entity.Consultation, error) {
	for _, c := range r.consultations {
		if c.PatientID == patientID && (c.Status == entity.ConsultationStatusPendingPayment || c.Status == entity.ConsultationStatusActive) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeConsultationRepo) FindCompletedByPatient(db *gorm.DB, patientID, excludeID uuid.UUID) ([]entity.Consultation, error) {
	var completed []entity.Consultation
	for _, c := range r.consultations {
		if c.PatientID == patientID && c.ID != excludeID && c.Status == entity.ConsultationStatusCompleted {
			completed = append(completed, *c)
		}
	}
	return completed, nil
}

func (r *fakeConsultationRepo) CountInFlightByDoctor(db *gorm.DB, doctorID uuid.UUID) (int64, error) {
	var count int64
	for _, c := range r.consultations {
		if c.DoctorID == doctorID && (c.Status == entity.ConsultationStatusPendingPayment || c.Status == entity.ConsultationStatusActive) {
			count++
		}
	}
	return count, nil
}

func (r *fakeConsultationRepo) Update(db *gorm.DB, consultation *entity.Consultation) error {
	r.put(consultation)
	return nil
}

func (r *fakeConsultationRepo) UpdateTranscript(db *gorm.DB, id uuid.UUID, transcriptEnc string) error {
	if c, ok := r.consultations[id]; ok {
		c.TranscriptEnc = transcriptEnc
	}
	return nil
}

type fakePrivacyLogRepo struct {
	entries []entity.PrivacyLog
}

func newFakePrivacyLogRepo() *fakePrivacyLogRepo {
	return &fakePrivacyLogRepo{}
}

func (r *fakePrivacyLogRepo) Create(db *gorm.DB, log *entity.PrivacyLog) error {
	log.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *log)
	return nil
}

func (r *fakePrivacyLogRepo) FindAll(db *gorm.DB, actorID *uuid.UUID, limit int) ([]entity.PrivacyLog, error) {
	var out []entity.PrivacyLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if actorID != nil && r.entries[i].ActorID != *actorID {
			continue
		}
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *fakePrivacyLogRepo) FindVisibleToPatient(db *gorm.DB, patientID uuid.UUID, limit int) ([]entity.PrivacyLog, error) {
	var out []entity.PrivacyLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if e.ActorID == patientID || e.TargetData != entity.TargetSystemInternal {
			out = append(out, e)
		}
	}
	return out, nil
}

// actions returns the recorded audit actions in insertion order.
func (r *fakePrivacyLogRepo) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

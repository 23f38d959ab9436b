package service

import (
	"sort"
	"testing"

	"telehealth-consultation-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newServiceTestDB opens an in-memory database used only as a handle; the
// stub repositories in this package ignore it.
func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

type stubDoctorProfileRepo struct {
	profiles map[uuid.UUID]*entity.DoctorProfile
}

func newStubDoctorProfileRepo() *stubDoctorProfileRepo {
	return &stubDoctorProfileRepo{profiles: make(map[uuid.UUID]*entity.DoctorProfile)}
}

func (r *stubDoctorProfileRepo) add(specialty string, status entity.DoctorStatus) uuid.UUID {
	id := uuid.New()
	r.profiles[id] = &entity.DoctorProfile{UserID: id, Specialty: specialty, Status: status}
	return id
}

func (r *stubDoctorProfileRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error {
	copied := *profile
	r.profiles[profile.UserID] = &copied
	return nil
}

func (r *stubDoctorProfileRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (r *stubDoctorProfileRepo) FindByUserIDForUpdate(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return r.FindByUserID(db, userID)
}

func (r *stubDoctorProfileRepo) FindFirstAvailableForUpdate(db *gorm.DB, specialty string) (*entity.DoctorProfile, error) {
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

func (r *stubDoctorProfileRepo) FindOnline(db *gorm.DB, excludeUserID uuid.UUID) ([]entity.DoctorProfile, error) {
	var online []entity.DoctorProfile
	for _, profile := range r.profiles {
		if profile.UserID != excludeUserID && profile.Status == entity.DoctorStatusOnline {
			online = append(online, *profile)
		}
	}
	return online, nil
}

func (r *stubDoctorProfileRepo) UpdateStatus(db *gorm.DB, userID uuid.UUID, status entity.DoctorStatus) error {
	if profile, ok := r.profiles[userID]; ok {
		profile.Status = status
	}
	return nil
}

func (r *stubDoctorProfileRepo) Delete(db *gorm.DB, userID uuid.UUID) error {
	delete(r.profiles, userID)
	return nil
}

func (r *stubDoctorProfileRepo) status(id uuid.UUID) entity.DoctorStatus {
	return r.profiles[id].Status
}

func newAvailabilityFixture() (AvailabilityService, *stubDoctorProfileRepo) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	repo := newStubDoctorProfileRepo()
	return NewAvailabilityService(log, repo), repo
}

func TestReservePicksOnlineDoctorAndMarksBusy(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	id := repo.add("cardiology", entity.DoctorStatusOnline)
	repo.add("cardiology", entity.DoctorStatusOffline)
	repo.add("dermatology", entity.DoctorStatusOnline)

	profile, err := svc.Reserve(nil, "cardiology")
	require.NoError(t, err)

	assert.Equal(t, id, profile.UserID)
	assert.Equal(t, entity.DoctorStatusBusy, profile.Status)
	assert.Equal(t, entity.DoctorStatusBusy, repo.status(id))
}

func TestReserveFailsWhenPoolExhausted(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	repo.add("cardiology", entity.DoctorStatusBusy)

	_, err := svc.Reserve(nil, "cardiology")
	assert.ErrorIs(t, err, ErrNoDoctorAvailable)
}

func TestReserveDrainsPoolSequentially(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	repo.add("cardiology", entity.DoctorStatusOnline)
	repo.add("cardiology", entity.DoctorStatusOnline)

	first, err := svc.Reserve(nil, "cardiology")
	require.NoError(t, err)
	second, err := svc.Reserve(nil, "cardiology")
	require.NoError(t, err)
	assert.NotEqual(t, first.UserID, second.UserID)

	_, err = svc.Reserve(nil, "cardiology")
	assert.ErrorIs(t, err, ErrNoDoctorAvailable)
}

func TestReleaseIsIdempotent(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	id := repo.add("cardiology", entity.DoctorStatusBusy)

	require.NoError(t, svc.Release(nil, id))
	assert.Equal(t, entity.DoctorStatusOnline, repo.status(id))

	require.NoError(t, svc.Release(nil, id))
	assert.Equal(t, entity.DoctorStatusOnline, repo.status(id))
}

func TestReserveByIDRequiresOnline(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	online := repo.add("cardiology", entity.DoctorStatusOnline)
	busy := repo.add("cardiology", entity.DoctorStatusBusy)
	offline := repo.add("cardiology", entity.DoctorStatusOffline)

	profile, err := svc.ReserveByID(nil, online)
	require.NoError(t, err)
	assert.Equal(t, entity.DoctorStatusBusy, profile.Status)

	_, err = svc.ReserveByID(nil, busy)
	assert.ErrorIs(t, err, ErrNoDoctorAvailable)

	_, err = svc.ReserveByID(nil, offline)
	assert.ErrorIs(t, err, ErrNoDoctorAvailable)

	_, err = svc.ReserveByID(nil, uuid.New())
	assert.ErrorIs(t, err, ErrDoctorProfileNotFound)
}

func TestToggleSelfTransitions(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	id := repo.add("cardiology", entity.DoctorStatusOffline)

	status, err := svc.ToggleSelf(nil, id)
	require.NoError(t, err)
	assert.Equal(t, entity.DoctorStatusOnline, status)

	status, err = svc.ToggleSelf(nil, id)
	require.NoError(t, err)
	assert.Equal(t, entity.DoctorStatusOffline, status)
}

func TestToggleSelfRejectsBusy(t *testing.T) {
	svc, repo := newAvailabilityFixture()
	id := repo.add("cardiology", entity.DoctorStatusBusy)

	_, err := svc.ToggleSelf(nil, id)
	assert.ErrorIs(t, err, ErrDoctorBusy)
	assert.Equal(t, entity.DoctorStatusBusy, repo.status(id))

	_, err = svc.ToggleSelf(nil, uuid.New())
	assert.ErrorIs(t, err, ErrDoctorProfileNotFound)
}

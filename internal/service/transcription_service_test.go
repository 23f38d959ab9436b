package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"telehealth-consultation-service/internal/domain/entity"
	"telehealth-consultation-service/pkg/phicrypto"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubConsultationRepo struct {
	mu            sync.Mutex
	consultations map[uuid.UUID]*entity.Consultation
}

func newStubConsultationRepo() *stubConsultationRepo {
	return &stubConsultationRepo{consultations: make(map[uuid.UUID]*entity.Consultation)}
}

func (r *stubConsultationRepo) put(c *entity.Consultation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.consultations[c.ID] = &copied
}

func (r *stubConsultationRepo) Create(db *gorm.DB, c *entity.Consultation) error {
	r.put(c)
	return nil
}

func (r *stubConsultationRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *stubConsultationRepo) FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Consultation, error) {
	return r.FindByID(db, id)
}

func (r *stubConsultationRepo) FindInFlightByPatient(db *gorm.DB, patientID uuid.UUID) (*entity.Consultation, error) {
	return nil, nil
}

func (r *stubConsultationRepo) FindCompletedByPatient(db *gorm.DB, patientID, excludeID uuid.UUID) ([]entity.Consultation, error) {
	return nil, nil
}

func (r *stubConsultationRepo) CountInFlightByDoctor(db *gorm.DB, doctorID uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *stubConsultationRepo) Update(db *gorm.DB, c *entity.Consultation) error {
	r.put(c)
	return nil
}

func (r *stubConsultationRepo) UpdateTranscript(db *gorm.DB, id uuid.UUID, transcriptEnc string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.consultations[id]; ok {
		c.TranscriptEnc = transcriptEnc
	}
	return nil
}

type stubTranscriber struct {
	result *TranscriptionResult
	err    error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte) (*TranscriptionResult, error) {
	return s.result, s.err
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []TranscriptEvent
}

func (b *recordingBroadcaster) BroadcastSystem(roomID uuid.UUID, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if event, ok := payload.(TranscriptEvent); ok {
		b.events = append(b.events, event)
	}
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func newTranscriptionFixture(t *testing.T, transcriber Transcriber) (TranscriptionService, *stubConsultationRepo, *recordingBroadcaster, *entity.Consultation) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	repo := newStubConsultationRepo()
	broadcaster := &recordingBroadcaster{}
	encryptor, err := phicrypto.NewService("transcription-test-key")
	require.NoError(t, err)

	consultation := &entity.Consultation{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Specialty: "cardiology",
		Status:    entity.ConsultationStatusActive,
	}
	repo.put(consultation)

	svc := NewTranscriptionService(newServiceTestDB(t), log, repo, transcriber, broadcaster, encryptor)
	return svc, repo, broadcaster, consultation
}

func TestSubmitBroadcastsAcceptedText(t *testing.T) {
	transcriber := &stubTranscriber{result: &TranscriptionResult{
		Segments: []TranscriptSegment{
			{Text: "the pain started yesterday", AvgLogProb: -0.3},
			{Text: "after climbing stairs", AvgLogProb: -0.5},
		},
	}}
	svc, _, broadcaster, consultation := newTranscriptionFixture(t, transcriber)

	text, err := svc.Submit(context.Background(), consultation.ID, consultation.PatientID, []byte("audio"))
	require.NoError(t, err)

	assert.Equal(t, "the pain started yesterday after climbing stairs", text)
	require.Equal(t, 1, broadcaster.count())
	assert.Equal(t, "transcript", broadcaster.events[0].Type)
	assert.Equal(t, consultation.PatientID, broadcaster.events[0].UserID)
}

func TestSubmitDropsLowConfidenceSegments(t *testing.T) {
	transcriber := &stubTranscriber{result: &TranscriptionResult{
		Segments: []TranscriptSegment{
			{Text: "hallucinated content", AvgLogProb: -1.5},
		},
	}}
	svc, _, broadcaster, consultation := newTranscriptionFixture(t, transcriber)

	text, err := svc.Submit(context.Background(), consultation.ID, consultation.PatientID, []byte("audio"))
	require.NoError(t, err)

	assert.Empty(t, text)
	assert.Zero(t, broadcaster.count())
}

func TestSubmitDropsBlacklistedFiller(t *testing.T) {
	transcriber := &stubTranscriber{result: &TranscriptionResult{
		Segments: []TranscriptSegment{
			{Text: "Thank you", AvgLogProb: -0.2},
			{Text: "you", AvgLogProb: -0.1},
			{Text: ".", AvgLogProb: -0.1},
			{Text: "x", AvgLogProb: -0.1},
		},
	}}
	svc, _, broadcaster, consultation := newTranscriptionFixture(t, transcriber)

	text, err := svc.Submit(context.Background(), consultation.ID, consultation.DoctorID, []byte("audio"))
	require.NoError(t, err)

	assert.Empty(t, text)
	assert.Zero(t, broadcaster.count())
}

func TestSubmitKeepsMixedSegments(t *testing.T) {
	transcriber := &stubTranscriber{result: &TranscriptionResult{
		Segments: []TranscriptSegment{
			{Text: "thanks", AvgLogProb: -0.1},
			{Text: "the medication helped", AvgLogProb: -0.4},
			{Text: "noise", AvgLogProb: -2.0},
		},
	}}
	svc, _, _, consultation := newTranscriptionFixture(t, transcriber)

	text, err := svc.Submit(context.Background(), consultation.ID, consultation.PatientID, []byte("audio"))
	require.NoError(t, err)

	assert.Equal(t, "the medication helped", text)
}

func TestSubmitTranscriberFailureIsBestEffort(t *testing.T) {
	transcriber := &stubTranscriber{err: errors.New("sidecar unreachable")}
	svc, _, broadcaster, consultation := newTranscriptionFixture(t, transcriber)

	text, err := svc.Submit(context.Background(), consultation.ID, consultation.PatientID, []byte("audio"))
	require.NoError(t, err)

	assert.Empty(t, text)
	assert.Zero(t, broadcaster.count())
}

func TestSubmitGuardsRoomAccess(t *testing.T) {
	transcriber := &stubTranscriber{result: &TranscriptionResult{Text: "hello doctor"}}
	svc, repo, _, consultation := newTranscriptionFixture(t, transcriber)

	_, err := svc.Submit(context.Background(), uuid.New(), consultation.PatientID, []byte("audio"))
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.Submit(context.Background(), consultation.ID, uuid.New(), []byte("audio"))
	assert.ErrorIs(t, err, ErrRoomForbidden)

	consultation.Status = entity.ConsultationStatusCompleted
	repo.put(consultation)
	_, err = svc.Submit(context.Background(), consultation.ID, consultation.PatientID, []byte("audio"))
	assert.ErrorIs(t, err, ErrRoomNotActive)
}

func TestFilterFallsBackToFullText(t *testing.T) {
	transcriber := &stubTranscriber{result: &TranscriptionResult{Text: "plain result without segments"}}
	svc, _, _, consultation := newTranscriptionFixture(t, transcriber)

	text, err := svc.Submit(context.Background(), consultation.ID, consultation.PatientID, []byte("audio"))
	require.NoError(t, err)

	assert.Equal(t, "plain result without segments", text)
}

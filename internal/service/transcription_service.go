package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"telehealth-consultation-service/internal/domain/repository"
	"telehealth-consultation-service/pkg/phicrypto"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrRoomNotFound is returned when the consultation does not exist.
	ErrRoomNotFound = errors.New("consultation not found")
	// ErrRoomForbidden is returned when the caller is not a participant.
	ErrRoomForbidden = errors.New("caller is not a participant of this consultation")
	// ErrRoomNotActive is returned when the consultation is not active.
	ErrRoomNotActive = errors.New("consultation is not active")
)

// Transcript acceptance filters, tuned against whisper hallucinations on
// near-silent audio.
const (
	transcriptConfidenceFloor = -1.0
	transcriptMinLength       = 2
)

var transcriptBlacklist = map[string]struct{}{
	"you":         {},
	"thank you":   {},
	"thanks":      {},
	"watching":    {},
	"subscribe":   {},
	"subtitle by": {},
	".":           {},
	"":            {},
}

// TranscriptSegment is one time-aligned piece of transcriber output.
type TranscriptSegment struct {
	Text       string
	AvgLogProb float64
}

// TranscriptionResult holds the raw output of a transcriber call.
type TranscriptionResult struct {
	Text     string
	Segments []TranscriptSegment
}

// Transcriber converts an audio segment to text. Implementations are
// constructed once at bootstrap and shared; tests substitute a stub.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (*TranscriptionResult, error)
}

// RoomBroadcaster is the slice of the session room hub the relay needs.
type RoomBroadcaster interface {
	BroadcastSystem(roomID uuid.UUID, payload interface{})
}

// TranscriptEvent is the room message emitted for accepted transcript text.
type TranscriptEvent struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	Text   string    `json:"text"`
}

// TranscriptionService receives audio segments from room participants,
// transcribes them best-effort and publishes accepted text into the room.
// Audio bytes are processed in memory and dropped after the call; nothing is
// ever written to disk.
type TranscriptionService interface {
	Submit(ctx context.Context, consultationID, userID uuid.UUID, audio []byte) (string, error)
}

type transcriptionService struct {
	db               *gorm.DB
	log              *logrus.Logger
	consultationRepo repository.ConsultationRepository
	transcriber      Transcriber
	broadcaster      RoomBroadcaster
	encryptor        phicrypto.Encryptor
}

func NewTranscriptionService(
	db *gorm.DB,
	log *logrus.Logger,
	consultationRepo repository.ConsultationRepository,
	transcriber Transcriber,
	broadcaster RoomBroadcaster,
	encryptor phicrypto.Encryptor,
) TranscriptionService {
	return &transcriptionService{
		db:               db,
		log:              log,
		consultationRepo: consultationRepo,
		transcriber:      transcriber,
		broadcaster:      broadcaster,
		encryptor:        encryptor,
	}
}

func (s *transcriptionService) Submit(ctx context.Context, consultationID, userID uuid.UUID, audio []byte) (string, error) {
	consultation, err := s.consultationRepo.FindByID(s.db.WithContext(ctx), consultationID)
	if err != nil {
		s.log.Warnf("Failed to load consultation %s for transcription: %+v", consultationID, err)
		return "", err
	}
	if consultation == nil {
		return "", ErrRoomNotFound
	}
	if !consultation.IsParticipant(userID) {
		return "", ErrRoomForbidden
	}
	if !consultation.IsActive() {
		return "", ErrRoomNotActive
	}

	result, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		// Best-effort: one failed segment affects only this submission.
		s.log.Warnf("Transcription failed for consultation %s: %+v", consultationID, err)
		return "", nil
	}

	text := s.filter(result)
	if text == "" {
		return "", nil
	}

	s.broadcaster.BroadcastSystem(consultationID, TranscriptEvent{
		Type:   "transcript",
		UserID: userID,
		Text:   text,
	})

	go s.appendTranscript(consultationID, text)

	return text, nil
}

// filter applies the acceptance rules: drop near-empty segments, segments
// below the confidence floor and exact blacklist matches.
func (s *transcriptionService) filter(result *TranscriptionResult) string {
	if result == nil {
		return ""
	}

	segments := result.Segments
	if len(segments) == 0 && result.Text != "" {
		segments = []TranscriptSegment{{Text: result.Text}}
	}

	var accepted []string
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if len(text) < transcriptMinLength {
			continue
		}
		if seg.AvgLogProb < transcriptConfidenceFloor {
			continue
		}
		if _, blacklisted := transcriptBlacklist[strings.ToLower(text)]; blacklisted {
			continue
		}
		accepted = append(accepted, text)
	}

	return strings.Join(accepted, " ")
}

// appendTranscript persists accepted text onto the consultation's encrypted
// transcript out of band. Failures are logged and dropped: persistence is
// best-effort and must never fail or delay the submission.
func (s *transcriptionService) appendTranscript(consultationID uuid.UUID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db := s.db.WithContext(ctx)
	consultation, err := s.consultationRepo.FindByID(db, consultationID)
	if err != nil || consultation == nil {
		s.log.Warnf("Skipping transcript append for %s: %+v", consultationID, err)
		return
	}

	existing := ""
	if consultation.TranscriptEnc != "" {
		existing, err = s.encryptor.Decrypt(consultation.TranscriptEnc)
		if err != nil {
			s.log.Warnf("Cannot decrypt existing transcript for %s, starting fresh: %+v", consultationID, err)
			existing = ""
		}
	}

	if existing != "" {
		existing += "\n"
	}
	encrypted, err := s.encryptor.Encrypt(existing + text)
	if err != nil {
		s.log.Warnf("Failed to encrypt transcript for %s: %+v", consultationID, err)
		return
	}

	if err := s.consultationRepo.UpdateTranscript(db, consultationID, encrypted); err != nil {
		s.log.Warnf("Failed to persist transcript for %s: %+v", consultationID, err)
	}
}

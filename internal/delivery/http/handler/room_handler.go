package handler

import (
	"io"
	"net/http"

	"telehealth-consultation-service/internal/delivery/dto"
	"telehealth-consultation-service/internal/delivery/http/middleware"
	"telehealth-consultation-service/internal/delivery/ws"
	"telehealth-consultation-service/internal/service"
	"telehealth-consultation-service/internal/usecase"
	"telehealth-consultation-service/pkg/response"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// maxAudioUploadSize bounds a single transcription chunk.
const maxAudioUploadSize = 10 << 20 // 10 MB

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin browser clients are expected; access is gated by the
	// JWT check, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RoomHandler struct {
	log                  *logrus.Logger
	hub                  *ws.Hub
	consultationUsecase  usecase.ConsultationUsecase
	transcriptionService service.TranscriptionService
}

func NewRoomHandler(
	log *logrus.Logger,
	hub *ws.Hub,
	consultationUsecase usecase.ConsultationUsecase,
	transcriptionService service.TranscriptionService,
) *RoomHandler {
	return &RoomHandler{
		log:                  log,
		hub:                  hub,
		consultationUsecase:  consultationUsecase,
		transcriptionService: transcriptionService,
	}
}

// Connect upgrades the request to a websocket and joins the caller to the
// consultation room. Authorization runs before the upgrade so rejected
// callers get a proper HTTP status instead of a dropped socket.
func (h *RoomHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	if err := h.consultationUsecase.AuthorizeRoomAccess(r.Context(), userID, consultationID); err != nil {
		writeRoomError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Warnf("Failed to upgrade websocket for consultation %s: %+v", consultationID, err)
		return
	}

	client := ws.NewClient(h.hub, consultationID, userID, conn)
	h.hub.Join(consultationID, client)

	go client.WritePump()
	go client.ReadPump()
}

// Transcribe accepts one audio chunk (multipart field "audio") and returns
// the filtered transcript text. An empty text means the chunk was silence or
// filler and was dropped.
func (h *RoomHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	consultationID, ok := parseConsultationID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadSize)
	if err := r.ParseMultipartForm(maxAudioUploadSize); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart body", nil)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing audio file", nil)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read audio file", nil)
		return
	}

	text, err := h.transcriptionService.Submit(r.Context(), consultationID, userID, audio)
	if err != nil {
		switch err {
		case service.ErrRoomNotFound:
			response.NotFound(w, "Consultation not found")
		case service.ErrRoomForbidden:
			response.Forbidden(w, "You are not a participant of this consultation")
		case service.ErrRoomNotActive:
			response.Conflict(w, "Consultation is not active")
		default:
			response.InternalServerError(w, "Failed to transcribe audio")
		}
		return
	}

	response.Success(w, http.StatusOK, "Audio processed", dto.TranscriptionResponse{Text: text})
}

package http

import (
	"net/http"

	"telehealth-consultation-service/internal/delivery/http/handler"
	"telehealth-consultation-service/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	consultationHandler *handler.ConsultationHandler
	doctorHandler       *handler.DoctorHandler
	auditLogHandler     *handler.AuditLogHandler
	roomHandler         *handler.RoomHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	consultationHandler *handler.ConsultationHandler,
	doctorHandler *handler.DoctorHandler,
	auditLogHandler *handler.AuditLogHandler,
	roomHandler *handler.RoomHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		consultationHandler: consultationHandler,
		doctorHandler:       doctorHandler,
		auditLogHandler:     auditLogHandler,
		roomHandler:         roomHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.Me).Methods(http.MethodGet)

	// Patient routes
	patient := api.PathPrefix("").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("/triage", r.consultationHandler.StartTriage).Methods(http.MethodPost)
	patient.HandleFunc("/billing/resolve", r.consultationHandler.ResolveBilling).Methods(http.MethodPost)
	patient.HandleFunc("/audit/logs/mine", r.auditLogHandler.ListMine).Methods(http.MethodGet)

	// Consultation routes (participant checks happen in the usecase)
	consultations := api.PathPrefix("/consultations").Subrouter()
	consultations.Use(r.authMiddleware.Authenticate)
	consultations.HandleFunc("/{id}/room", r.consultationHandler.EnterRoom).Methods(http.MethodGet)
	consultations.HandleFunc("/{id}/end", r.consultationHandler.EndSession).Methods(http.MethodPost)
	consultations.HandleFunc("/{id}/transcribe", r.roomHandler.Transcribe).Methods(http.MethodPost)

	// Consultation routes (doctor only)
	consultationsDoctor := api.PathPrefix("/consultations").Subrouter()
	consultationsDoctor.Use(r.authMiddleware.Authenticate)
	consultationsDoctor.Use(middleware.RequireDoctor)
	consultationsDoctor.HandleFunc("/{id}/notes", r.consultationHandler.SaveNotes).Methods(http.MethodPut)
	consultationsDoctor.HandleFunc("/{id}/transfer", r.consultationHandler.Transfer).Methods(http.MethodPost)
	consultationsDoctor.HandleFunc("/{id}/available-doctors", r.consultationHandler.AvailableDoctors).Methods(http.MethodGet)

	// Doctor self-service
	doctors := api.PathPrefix("/doctors").Subrouter()
	doctors.Use(r.authMiddleware.Authenticate)
	doctors.Use(middleware.RequireDoctor)
	doctors.HandleFunc("/status/toggle", r.doctorHandler.ToggleStatus).Methods(http.MethodPost)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/doctors", r.doctorHandler.OnboardDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors", r.doctorHandler.ListDoctors).Methods(http.MethodGet)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.RemoveDoctor).Methods(http.MethodDelete)
	admin.HandleFunc("/audit/logs", r.auditLogHandler.ListAll).Methods(http.MethodGet)

	// Websocket signaling (token also accepted via query parameter)
	wsRoute := api.PathPrefix("/ws").Subrouter()
	wsRoute.Use(r.authMiddleware.Authenticate)
	wsRoute.HandleFunc("/{id}", r.roomHandler.Connect).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

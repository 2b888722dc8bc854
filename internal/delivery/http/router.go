package http

import (
	"net/http"

	"clinic-practice-api/internal/delivery/http/handler"
	"clinic-practice-api/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	bookingHandler      *handler.BookingHandler
	consultationHandler *handler.ConsultationHandler
	clinicHandler       *handler.ClinicHandler
	availabilityHandler *handler.AvailabilityHandler
	patientHandler      *handler.PatientHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	metricsMiddleware   *middleware.MetricsMiddleware
	metricsHandler      http.Handler
}

func NewRouter(
	authHandler *handler.AuthHandler,
	bookingHandler *handler.BookingHandler,
	consultationHandler *handler.ConsultationHandler,
	clinicHandler *handler.ClinicHandler,
	availabilityHandler *handler.AvailabilityHandler,
	patientHandler *handler.PatientHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		bookingHandler:      bookingHandler,
		consultationHandler: consultationHandler,
		clinicHandler:       clinicHandler,
		availabilityHandler: availabilityHandler,
		patientHandler:      patientHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		metricsMiddleware:   metricsMiddleware,
		metricsHandler:      metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.Use(r.rateLimitMiddleware.Handle)

	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Clinic browsing (public)
	api.HandleFunc("/clinics", r.clinicHandler.ListClinics).Methods(http.MethodGet)
	api.HandleFunc("/clinics/{id}", r.clinicHandler.GetClinic).Methods(http.MethodGet)
	api.HandleFunc("/clinics/{id}/slots", r.clinicHandler.GenerateSlots).Methods(http.MethodGet)
	api.HandleFunc("/clinics/{id}/availability", r.availabilityHandler.ListRules).Methods(http.MethodGet)

	// Everything below requires a valid access token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Appointments; the usecases scope access by role and ownership
	protected.HandleFunc("/appointments", r.bookingHandler.BookAppointment).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.bookingHandler.ListAppointments).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.bookingHandler.GetAppointment).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}/cancel", r.bookingHandler.CancelAppointment).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}/note", r.consultationHandler.GetNote).Methods(http.MethodGet)

	// Consultation flow (clinic staff)
	flow := protected.PathPrefix("/appointments/{id}").Subrouter()
	flow.Use(middleware.RequireStaff)
	flow.HandleFunc("/no-show", r.bookingHandler.MarkNoShow).Methods(http.MethodPost)
	flow.HandleFunc("/arrive", r.consultationHandler.MarkArrived).Methods(http.MethodPost)
	flow.HandleFunc("/start-eligibility", r.consultationHandler.GetStartEligibility).Methods(http.MethodGet)
	flow.HandleFunc("/identity-validations", r.consultationHandler.ValidateIdentity).Methods(http.MethodPost)
	flow.HandleFunc("/identity", r.consultationHandler.GetIdentityEvidence).Methods(http.MethodGet)
	flow.HandleFunc("/start", r.consultationHandler.StartConsultation).Methods(http.MethodPost)
	flow.HandleFunc("/end", r.consultationHandler.EndConsultation).Methods(http.MethodPost)
	flow.HandleFunc("/note", r.consultationHandler.SaveNote).Methods(http.MethodPut)

	// Clinic administration (admin or owning doctor)
	clinicAdmin := protected.PathPrefix("/clinics").Subrouter()
	clinicAdmin.Use(middleware.RequireAdminOrDoctor)
	clinicAdmin.HandleFunc("", r.clinicHandler.CreateClinic).Methods(http.MethodPost)
	clinicAdmin.HandleFunc("/{id}", r.clinicHandler.UpdateClinic).Methods(http.MethodPut)
	clinicAdmin.HandleFunc("/{id}/availability", r.availabilityHandler.CreateRule).Methods(http.MethodPost)
	clinicAdmin.HandleFunc("/{id}/availability/{ruleId}", r.availabilityHandler.UpdateRule).Methods(http.MethodPut)
	clinicAdmin.HandleFunc("/{id}/availability/{ruleId}", r.availabilityHandler.DeleteRule).Methods(http.MethodDelete)
	clinicAdmin.HandleFunc("/{id}/assistants", r.clinicHandler.AssignAssistant).Methods(http.MethodPost)
	clinicAdmin.HandleFunc("/{id}/metrics", r.bookingHandler.GetClinicMetrics).Methods(http.MethodGet)

	// Clinic floor (staff incl. assistants)
	clinicStaff := protected.PathPrefix("/clinics/{id}").Subrouter()
	clinicStaff.Use(middleware.RequireStaff)
	clinicStaff.HandleFunc("/assistants", r.clinicHandler.ListAssistants).Methods(http.MethodGet)
	clinicStaff.HandleFunc("/waiting-room", r.bookingHandler.GetWaitingRoom).Methods(http.MethodGet)

	// Patient documents; patients reach only their own
	protected.HandleFunc("/patients/{id}/documents", r.patientHandler.RegisterDocument).Methods(http.MethodPost)
	protected.HandleFunc("/patients/{id}/documents", r.patientHandler.ListDocuments).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/staff", r.authHandler.CreateStaff).Methods(http.MethodPost)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	r.router.Use(r.metricsMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/medbook/doctor-booking-platform/internal/appointment"
	"github.com/medbook/doctor-booking-platform/internal/directory"
	"github.com/medbook/doctor-booking-platform/internal/identity"
	"github.com/medbook/doctor-booking-platform/internal/schedule"
)

type RouterConfig struct {
	Appointments *appointment.Service
	Calendar     *schedule.Service
	Directory    *directory.Service
	Tokens       *identity.TokenIssuer
	Admin        AdminCredentials
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	doctorOnly := identity.Require(cfg.Tokens, identity.RoleDoctor)
	patientOnly := identity.Require(cfg.Tokens, identity.RolePatient)
	adminOnly := identity.Require(cfg.Tokens, identity.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/admin/login", adminLoginHandler(cfg.Admin, cfg.Tokens))
		r.Post("/doctors/login", doctorLoginHandler(cfg.Directory, cfg.Tokens))
		r.Post("/patients/signup", patientSignupHandler(cfg.Directory))
		r.Post("/patients/login", patientLoginHandler(cfg.Directory, cfg.Tokens))
		r.Get("/doctors", listDoctorsHandler(cfg.Directory))
		r.Get("/specializations", listSpecializationsHandler())

		// Doctor: slot calendar and day schedule
		r.Group(func(r chi.Router) {
			r.Use(doctorOnly)
			r.Post("/doctors/slots", addSlotsHandler(cfg.Calendar))
			r.Get("/doctors/slots", getCalendarHandler(cfg.Calendar))
			r.Delete("/doctors/slots", deleteSlotHandler(cfg.Calendar))
			r.Get("/doctors/appointments", listDoctorAppointmentsHandler(cfg.Appointments))
			r.Post("/doctors/sync-slots", syncSlotsHandler(cfg.Calendar))
			r.Put("/doctors/appointments/{id}/complete", completeAppointmentHandler(cfg.Appointments))
		})

		// Patient: booking and own records
		r.Group(func(r chi.Router) {
			r.Use(patientOnly)
			r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
			r.Get("/appointments/patient/{patientId}", listPatientAppointmentsHandler(cfg.Appointments))
			r.Get("/patients/{id}", getPatientHandler(cfg.Directory))
		})

		// Cancellation is shared: patients cancel their own, doctors any
		r.Group(func(r chi.Router) {
			r.Use(identity.Require(cfg.Tokens, identity.RolePatient, identity.RoleDoctor))
			r.Put("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/doctors", createDoctorHandler(cfg.Directory))
			r.Get("/appointments", listAllAppointmentsHandler(cfg.Appointments))
		})
	})

	return r
}

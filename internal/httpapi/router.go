package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"facilitybooking/internal/account"
	"facilitybooking/internal/api"
	"facilitybooking/internal/approval"
	"facilitybooking/internal/booking"
	"facilitybooking/internal/escalation"
	"facilitybooking/internal/facility"
	"facilitybooking/internal/notify"
	"facilitybooking/internal/schedule"
	"facilitybooking/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Log *zap.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	accountRepo := account.NewRepository(deps.DB)
	facilityRepo := facility.NewRepository(deps.DB)
	bookingRepo := booking.NewRepository(deps.DB)
	approvalRepo := approval.NewRepository(deps.DB)
	notifyRepo := notify.NewRepository(deps.DB)

	dispatcher := notify.NewDispatcher(notifyRepo, accountRepo, deps.Log)
	detector := schedule.NewDetector(deps.DB)
	policy := escalation.NewPolicy(detector, dispatcher, deps.Log)

	bookingService := booking.NewService(bookingRepo, dispatcher, policy)
	bookingEngine := booking.NewEngine(bookingRepo, dispatcher, facilityRepo)

	bookingHandlers := booking.Handlers{
		Service:   bookingService,
		Engine:    bookingEngine,
		Store:     bookingRepo,
		Approvals: approvalRepo,
	}
	notifyHandlers := notify.Handlers{Store: notifyRepo}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// Browser frontend lives on a separate domain; only allow CORS for
		// explicitly configured origins.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAgeSeconds:  600,
		}))

		r.Group(func(r chi.Router) {
			// Production: bearer session token auth.
			// Dev: falls back to X-Account-ID if Authorization is missing.
			r.Use(api.SessionAuth(deps.Cfg))

			r.Get("/bookings", bookingHandlers.List)
			r.Post("/bookings", bookingHandlers.Create)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Patch("/bookings/{id}/status", bookingHandlers.PatchStatus)
			r.Post("/bookings/{id}/cancel", bookingHandlers.Cancel)
			r.Get("/bookings/{id}/approvals", bookingHandlers.History)

			r.Get("/notifications", notifyHandlers.List)
			r.Post("/notifications/{id}/read", notifyHandlers.MarkRead)
		})
	})

	return r
}

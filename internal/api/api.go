// Package api exposes the parcel tracking services over HTTP as a JSON API.
package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Houeta/logitrack/internal/auth"
	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/parcels"
	"github.com/Houeta/logitrack/internal/registry"
	"github.com/Houeta/logitrack/internal/report"
	"github.com/Houeta/logitrack/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Authenticator handles credentials and bearer tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Register(ctx context.Context, input auth.RegisterInput) (*auth.Session, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Authenticate(ctx context.Context, raw string) (*session.Actor, *auth.Claims, error)
}

// ParcelService is the parcel lifecycle controller.
type ParcelService interface {
	Visible(ctx context.Context, actor *session.Actor, query string) ([]models.Parcel, error)
	Stats(ctx context.Context, actor *session.Actor) (parcels.Stats, error)
	View(ctx context.Context, actor *session.Actor, id int64) (models.Parcel, error)
	Create(ctx context.Context, actor *session.Actor, in parcels.Input) (models.Parcel, error)
	Update(ctx context.Context, actor *session.Actor, id int64, in parcels.Input) (models.Parcel, error)
	Delete(ctx context.Context, actor *session.Actor, id int64) error
}

// Registry is the CRUD surface shared by the client, employee and office registries.
type Registry[T, In any] interface {
	List(ctx context.Context, actor *session.Actor, filter string) ([]T, error)
	Get(ctx context.Context, actor *session.Actor, id int64) (T, error)
	Create(ctx context.Context, actor *session.Actor, in In) (T, error)
	Update(ctx context.Context, actor *session.Actor, id int64, in In) (T, error)
	Delete(ctx context.Context, actor *session.Actor, id int64) error
}

// Tracker answers public tracking lookups.
type Tracker interface {
	Lookup(ctx context.Context, source, code string) (models.Parcel, error)
}

// Reporter builds reports.
type Reporter interface {
	Run(ctx context.Context, actor *session.Actor, kind string, params report.Params) (report.Table, error)
	Export(table report.Table) (*bytes.Buffer, error)
	ClientParcels(ctx context.Context, actor *session.Actor, clientID int64, direction string) (report.ClientParcels, error)
	Clients(ctx context.Context, actor *session.Actor) (report.ClientsReport, error)
}

// Services groups everything the API serves.
type Services struct {
	Auth      Authenticator
	Parcels   ParcelService
	Clients   Registry[models.Client, registry.ClientInput]
	Employees Registry[models.Employee, registry.EmployeeInput]
	Offices   Registry[models.Office, registry.OfficeInput]
	Tracking  Tracker
	Reports   Reporter
}

// Options configures cross-cutting HTTP behavior.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Handler holds the dependencies of every HTTP handler.
type Handler struct {
	log     *slog.Logger
	svc     Services
	metrics *metrics.Metrics
}

// NewRouter builds the API router.
func NewRouter(log *slog.Logger, svc Services, appMetrics *metrics.Metrics, opts Options) http.Handler {
	h := &Handler{log: log, svc: svc, metrics: appMetrics}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second //nolint:mnd // default request budget
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false, // bearer tokens only, no cookies
	}).Handler)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(public chi.Router) {
			public.Use(h.identify)
			public.Post("/auth/login", h.login)
			public.Post("/auth/register", h.register)
			public.Get("/track/{tracking}", h.track)
			public.Get("/pages/{page}", h.page)
		})

		r.Group(func(private chi.Router) {
			private.Use(h.authenticate)
			private.Post("/auth/logout", h.logout)
			private.Get("/me", h.me)

			private.Route("/parcels", func(r chi.Router) {
				r.Get("/", h.listParcels)
				r.Post("/", h.createParcel)
				r.Get("/stats", h.parcelStats)
				r.Get("/{id}", h.viewParcel)
				r.Put("/{id}", h.updateParcel)
				r.Delete("/{id}", h.deleteParcel)
			})

			private.Route("/clients", func(r chi.Router) { mountRegistry(h, r, svc.Clients) })
			private.Route("/employees", func(r chi.Router) { mountRegistry(h, r, svc.Employees) })
			private.Route("/offices", func(r chi.Router) { mountRegistry(h, r, svc.Offices) })

			private.Get("/reports/{kind}", h.runReport)
		})
	})

	r.Group(func(legacy chi.Router) {
		legacy.Use(h.authenticate)
		legacy.Get("/reports/client-parcels/all/", h.allClientParcels)
		legacy.Get("/reports/client-parcels/{clientID}/{direction}/", h.clientParcels)
		legacy.Get("/reports/clients/", h.clientsReport)
	})

	return r
}

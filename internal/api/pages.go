package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/report"
	"github.com/Houeta/logitrack/internal/session"
	"github.com/go-chi/chi/v5"
)

// Page identifiers of the front-end.
const (
	PageAuth      = "auth"
	PageTrack     = "track"
	PageDashboard = "dashboard"
	PageParcels   = "parcels"
	PageEmployees = "employees"
	PageClients   = "clients"
	PageOffices   = "offices"
	PageReports   = "reports"
)

var (
	publicPages    = []string{PageAuth, PageTrack}
	appNavigation  = []string{PageDashboard, PageParcels, PageEmployees, PageClients, PageOffices, PageReports}
	clientSections = []string{PageDashboard, PageParcels}
)

// Capabilities tells the front-end which controls to offer.
type Capabilities struct {
	ManageParcels    bool `json:"manageParcels"`
	DeleteParcels    bool `json:"deleteParcels"`
	ManageRegistries bool `json:"manageRegistries"`
	RunReports       bool `json:"runReports"`
}

// PageView is the view state of one page.
type PageView struct {
	Page         string         `json:"page"`
	User         *session.Actor `json:"user,omitempty"`
	Navigation   []string       `json:"navigation,omitempty"`
	Active       string         `json:"active,omitempty"`
	Capabilities Capabilities   `json:"capabilities"`
	Data         any            `json:"data,omitempty"`
}

// Present builds the view state of a page for the actor, without page data.
// It returns false for unknown page identifiers.
func Present(page string, actor *session.Actor) (PageView, bool) {
	if slices.Contains(publicPages, page) {
		return PageView{Page: page, User: actor}, true
	}
	if !slices.Contains(appNavigation, page) {
		return PageView{}, false
	}

	view := PageView{
		Page:       page,
		User:       actor,
		Navigation: appNavigation,
		Active:     page,
		Capabilities: Capabilities{
			ManageParcels:    session.CanManageParcels(actor),
			DeleteParcels:    session.CanDeleteParcel(actor),
			ManageRegistries: session.IsAdmin(actor),
			RunReports:       session.CanRunReports(actor),
		},
	}
	if actor != nil && actor.Role == models.RoleClient {
		view.Navigation = clientSections
	}

	return view, true
}

type reportsPageData struct {
	Kinds     []string          `json:"kinds"`
	Employees []models.Employee `json:"employees"`
	Clients   []models.Client   `json:"clients"`
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	actor := session.FromContext(r.Context())

	view, ok := Present(name, actor)
	if !ok {
		h.log.WarnContext(r.Context(), "Unknown page", "page", name)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if slices.Contains(publicPages, name) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	if actor == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	data, err := h.pageData(r.Context(), name, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view.Data = data

	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) pageData(ctx context.Context, name string, actor *session.Actor) (any, error) {
	switch name {
	case PageDashboard:
		return h.svc.Parcels.Stats(ctx, actor)
	case PageParcels:
		return h.svc.Parcels.Visible(ctx, actor, "")
	case PageEmployees:
		return h.svc.Employees.List(ctx, actor, "")
	case PageClients:
		return h.svc.Clients.List(ctx, actor, "")
	case PageOffices:
		return h.svc.Offices.List(ctx, actor, "")
	case PageReports:
		if err := session.Require(actor, "open reports", session.CanRunReports); err != nil {
			return nil, err
		}
		employees, err := h.svc.Employees.List(ctx, actor, "")
		if err != nil {
			return nil, err
		}
		clients, err := h.svc.Clients.List(ctx, actor, "")
		if err != nil {
			return nil, err
		}
		return reportsPageData{
			Kinds: []string{
				report.KindEmployees, report.KindClients, report.KindParcels,
				report.KindPending, report.KindParcelsByEmployee, report.KindIncome,
			},
			Employees: employees,
			Clients:   clients,
		}, nil
	default:
		return nil, nil
	}
}

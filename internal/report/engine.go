// Package report builds the company reports shown on the reports page and
// exports them as Excel workbooks.
package report

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Report kinds accepted by Run.
const (
	KindEmployees         = "employees_all"
	KindClients           = "clients_all"
	KindParcels           = "parcels_all"
	KindPending           = "pending_deliveries"
	KindParcelsByEmployee = "parcels_by_employee"
	KindIncome            = "income_period"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Store is the read side of the storage gateway the reports need.
type Store interface {
	GetEmployees(ctx context.Context) ([]models.Employee, error)
	GetClients(ctx context.Context) ([]models.Client, error)
	GetParcels(ctx context.Context) ([]models.Parcel, error)
}

// Table is a rendered report: a titled grid of display strings plus its totals.
type Table struct {
	Kind         string     `json:"kind"`
	Title        string     `json:"title"`
	Subtitle     string     `json:"subtitle"`
	Summary      string     `json:"summary"`
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	Total        int        `json:"total"`
	Income       float64    `json:"income,omitempty"`       // Sum of prices, income report only
	Unattributed int        `json:"unattributed,omitempty"` // Parcels without a known registering employee
}

// Params carries the inputs of the interactive reports.
type Params struct {
	Employee string // Employee email for parcels_by_employee
	From     string // Inclusive start date, YYYY-MM-DD
	To       string // Inclusive end date, YYYY-MM-DD
}

// Engine runs reports for staff members.
type Engine struct {
	store   Store
	loc     *time.Location
	metrics *metrics.Metrics
}

// NewEngine creates a report engine. Dates are interpreted and displayed in loc.
func NewEngine(store Store, loc *time.Location, appMetrics *metrics.Metrics) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, loc: loc, metrics: appMetrics}
}

// Run dispatches to the report named by kind.
func (e *Engine) Run(ctx context.Context, actor *session.Actor, kind string, params Params) (Table, error) {
	switch kind {
	case KindEmployees:
		return e.AllEmployees(ctx, actor)
	case KindClients:
		return e.AllClients(ctx, actor)
	case KindParcels:
		return e.AllParcels(ctx, actor)
	case KindPending:
		return e.PendingDeliveries(ctx, actor)
	case KindParcelsByEmployee:
		return e.ParcelsByEmployee(ctx, actor, params.Employee)
	case KindIncome:
		return e.IncomeByPeriod(ctx, actor, params.From, params.To)
	default:
		return Table{}, fmt.Errorf("%w: unknown report %q", models.ErrNotFound, kind)
	}
}

func (e *Engine) start(actor *session.Actor, kind string) (func(), error) {
	if err := session.Require(actor, "run reports", session.CanRunReports); err != nil {
		return nil, err
	}
	timer := prometheus.NewTimer(e.metrics.ReportGeneration.WithLabelValues(kind, "json"))
	return func() { timer.ObserveDuration() }, nil
}

// AllEmployees lists every employee.
func (e *Engine) AllEmployees(ctx context.Context, actor *session.Actor) (Table, error) {
	done, err := e.start(actor, KindEmployees)
	if err != nil {
		return Table{}, err
	}
	defer done()

	employees, err := e.store.GetEmployees(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load employees: %w", err)
	}

	rows := make([][]string, 0, len(employees))
	for _, emp := range employees {
		rows = append(rows, []string{emp.Name, emp.Email, emp.Position, emp.Office, emp.Phone})
	}

	return Table{
		Kind:     KindEmployees,
		Title:    "All Employees",
		Subtitle: "Complete list of employees",
		Summary:  fmt.Sprintf("Total: %d", len(rows)),
		Columns:  []string{"Name", "Email", "Position", "Office", "Phone"},
		Rows:     rows,
		Total:    len(rows),
	}, nil
}

// AllClients lists every client.
func (e *Engine) AllClients(ctx context.Context, actor *session.Actor) (Table, error) {
	done, err := e.start(actor, KindClients)
	if err != nil {
		return Table{}, err
	}
	defer done()

	clients, err := e.store.GetClients(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load clients: %w", err)
	}

	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{c.Name, c.Email, c.Phone})
	}

	return Table{
		Kind:     KindClients,
		Title:    "All Clients",
		Subtitle: "Complete list of clients",
		Summary:  fmt.Sprintf("Total: %d", len(rows)),
		Columns:  []string{"Name", "Email", "Phone"},
		Rows:     rows,
		Total:    len(rows),
	}, nil
}

// AllParcels lists every parcel with its price and creation time.
func (e *Engine) AllParcels(ctx context.Context, actor *session.Actor) (Table, error) {
	done, err := e.start(actor, KindParcels)
	if err != nil {
		return Table{}, err
	}
	defer done()

	parcels, err := e.store.GetParcels(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	rows := make([][]string, 0, len(parcels))
	for _, p := range parcels {
		rows = append(rows, []string{p.Tracking, p.Sender, p.Recipient, string(p.Status), money(p.Price), e.created(p)})
	}

	return Table{
		Kind:     KindParcels,
		Title:    "All Parcels",
		Subtitle: "All parcels in the system",
		Summary:  fmt.Sprintf("Total: %d", len(rows)),
		Columns:  []string{"Tracking", "Sender", "Recipient", "Status", "Price", "Created"},
		Rows:     rows,
		Total:    len(rows),
	}, nil
}

// PendingDeliveries lists parcels that are not delivered yet.
func (e *Engine) PendingDeliveries(ctx context.Context, actor *session.Actor) (Table, error) {
	done, err := e.start(actor, KindPending)
	if err != nil {
		return Table{}, err
	}
	defer done()

	parcels, err := e.store.GetParcels(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	rows := make([][]string, 0, len(parcels))
	for _, p := range parcels {
		if p.Status == models.StatusDelivered {
			continue
		}
		rows = append(rows, []string{p.Tracking, p.Sender, p.Recipient, string(p.Status), money(p.Price)})
	}

	return Table{
		Kind:     KindPending,
		Title:    "Pending Deliveries",
		Subtitle: "Parcels not delivered yet",
		Summary:  fmt.Sprintf("Total: %d", len(rows)),
		Columns:  []string{"Tracking", "Sender", "Recipient", "Status", "Price"},
		Rows:     rows,
		Total:    len(rows),
	}, nil
}

// ParcelsByEmployee lists the parcels registered by the employee with the given email.
// Parcels with no recorded registering employee are counted in Unattributed.
func (e *Engine) ParcelsByEmployee(ctx context.Context, actor *session.Actor, email string) (Table, error) {
	done, err := e.start(actor, KindParcelsByEmployee)
	if err != nil {
		return Table{}, err
	}
	defer done()

	email = strings.TrimSpace(email)
	if email == "" {
		return Table{}, fmt.Errorf("%w: select employee", models.ErrValidation)
	}

	parcels, err := e.store.GetParcels(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	var unattributed int
	rows := make([][]string, 0, len(parcels))
	for _, p := range parcels {
		by := p.Registrar()
		if by == "" {
			unattributed++
			continue
		}
		if by != email {
			continue
		}
		rows = append(rows, []string{
			p.Tracking, p.Sender, p.Recipient, string(p.Status), money(p.Price), e.created(p),
		})
	}

	summary := fmt.Sprintf("Total parcels: %d", len(rows))
	if unattributed > 0 {
		summary += fmt.Sprintf(" | Unattributed parcels: %d", unattributed)
	}

	return Table{
		Kind:         KindParcelsByEmployee,
		Title:        "Parcels by Employee",
		Subtitle:     "Employee: " + email,
		Summary:      summary,
		Columns:      []string{"Tracking", "Sender", "Recipient", "Status", "Price", "Created"},
		Rows:         rows,
		Total:        len(rows),
		Unattributed: unattributed,
	}, nil
}

// IncomeByPeriod counts the parcels created between from and the end of day to,
// both inclusive, and sums their prices.
func (e *Engine) IncomeByPeriod(ctx context.Context, actor *session.Actor, from, to string) (Table, error) {
	done, err := e.start(actor, KindIncome)
	if err != nil {
		return Table{}, err
	}
	defer done()

	start, end, err := e.period(from, to)
	if err != nil {
		return Table{}, err
	}

	parcels, err := e.store.GetParcels(ctx)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	var income float64
	rows := make([][]string, 0, len(parcels))
	for _, p := range parcels {
		created, ok := p.CreatedTime()
		if !ok || created.Before(start) || created.After(end) {
			continue
		}
		income += p.Price
		rows = append(rows, []string{p.Tracking, money(p.Price), e.created(p), string(p.Status)})
	}
	income = math.Round(income*100) / 100 //nolint:mnd // cents

	return Table{
		Kind:     KindIncome,
		Title:    "Income Report",
		Subtitle: fmt.Sprintf("Period: %s → %s", strings.TrimSpace(from), strings.TrimSpace(to)),
		Summary:  fmt.Sprintf("Parcels: %d | Total income: %s", len(rows), money(income)),
		Columns:  []string{"Tracking", "Price", "Created", "Status"},
		Rows:     rows,
		Total:    len(rows),
		Income:   income,
	}, nil
}

// period parses the report bounds; the end is moved to the last instant of its day.
func (e *Engine) period(from, to string) (time.Time, time.Time, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: select both dates", models.ErrValidation)
	}

	start, err := time.ParseInLocation(dateLayout, from, e.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start date %q", models.ErrValidation, from)
	}
	day, err := time.ParseInLocation(dateLayout, to, e.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end date %q", models.ErrValidation, to)
	}
	if day.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date is after end date", models.ErrValidation)
	}

	end := day.AddDate(0, 0, 1).Add(-time.Millisecond)

	return start, end, nil
}

func (e *Engine) created(p models.Parcel) string {
	created, ok := p.CreatedTime()
	if !ok {
		return ""
	}
	return created.In(e.loc).Format(dateTimeLayout)
}

func money(amount float64) string {
	return "$" + strconv.FormatFloat(amount, 'f', 2, 64)
}

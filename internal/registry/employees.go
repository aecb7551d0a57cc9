package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/Houeta/logitrack/internal/session"
)

// EmployeeInput holds the editable fields of an employee.
type EmployeeInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"role"`
	Office   string `json:"office"`
	Phone    string `json:"phone"`
	Password string `json:"password,omitempty"`
}

func (in EmployeeInput) normalize() EmployeeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Position = strings.TrimSpace(in.Position)
	in.Office = strings.TrimSpace(in.Office)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

func (in EmployeeInput) validate() error {
	return required("name, email, role and office are required", in.Name, in.Email, in.Position, in.Office)
}

func (in EmployeeInput) employee(id int64) models.Employee {
	return models.Employee{
		ID:       id,
		Name:     in.Name,
		Email:    in.Email,
		Position: in.Position,
		Office:   in.Office,
		Phone:    in.Phone,
	}
}

// EmployeeService manages employee records and their employee-role accounts.
type EmployeeService struct {
	log     *slog.Logger
	store   Store
	ids     IDSource
	mirror  mirror
	metrics *metrics.Metrics
}

// NewEmployeeService creates an employee registry.
func NewEmployeeService(
	log *slog.Logger,
	store Store,
	ids IDSource,
	hasher PasswordHasher,
	appMetrics *metrics.Metrics,
) *EmployeeService {
	return &EmployeeService{
		log:     log,
		store:   store,
		ids:     ids,
		mirror:  mirror{hasher: hasher, ids: ids, role: models.RoleEmployee, defaultPassword: DefaultEmployeePassword},
		metrics: appMetrics,
	}
}

// List returns the employees whose name or email contains filter.
func (s *EmployeeService) List(ctx context.Context, actor *session.Actor, filter string) ([]models.Employee, error) {
	if err := session.Require(actor, "list employees", session.IsStaff); err != nil {
		return nil, err
	}

	employees, err := s.store.GetEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	result := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if matches(filter, e.Name, e.Email) {
			result = append(result, e)
		}
	}

	return result, nil
}

// Get returns a single employee.
func (s *EmployeeService) Get(ctx context.Context, actor *session.Actor, id int64) (models.Employee, error) {
	if err := session.Require(actor, "view employee", session.IsStaff); err != nil {
		return models.Employee{}, err
	}

	employees, err := s.store.GetEmployees(ctx)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to load employees: %w", err)
	}

	idx := slices.IndexFunc(employees, func(e models.Employee) bool { return e.ID == id })
	if idx == -1 {
		return models.Employee{}, notFound("employee", id)
	}

	return employees[idx], nil
}

// Create adds an employee and its login account in one write.
func (s *EmployeeService) Create(
	ctx context.Context,
	actor *session.Actor,
	in EmployeeInput,
) (models.Employee, error) {
	employee, err := s.create(ctx, actor, in.normalize())
	record(s.metrics, "employee", "create", err)
	return employee, err
}

func (s *EmployeeService) create(
	ctx context.Context,
	actor *session.Actor,
	in EmployeeInput,
) (models.Employee, error) {
	if err := session.Require(actor, "create employee", session.IsAdmin); err != nil {
		return models.Employee{}, err
	}
	if err := in.validate(); err != nil {
		return models.Employee{}, err
	}

	var employee models.Employee
	err := s.store.Update(ctx, func(c *repository.Collections) error {
		employee = in.employee(s.ids.Next())
		c.Employees = append(c.Employees, employee)
		return s.mirror.upsert(c, in.Name, in.Email, in.Password)
	})
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	s.log.InfoContext(ctx, "Employee created", "id", employee.ID, "email", employee.Email, "by", actor.Email)

	return employee, nil
}

// Update replaces the employee's fields. An email change moves the login account to the new address.
func (s *EmployeeService) Update(
	ctx context.Context,
	actor *session.Actor,
	id int64,
	in EmployeeInput,
) (models.Employee, error) {
	employee, err := s.update(ctx, actor, id, in.normalize())
	record(s.metrics, "employee", "update", err)
	return employee, err
}

func (s *EmployeeService) update(
	ctx context.Context,
	actor *session.Actor,
	id int64,
	in EmployeeInput,
) (models.Employee, error) {
	if err := session.Require(actor, "update employee", session.IsAdmin); err != nil {
		return models.Employee{}, err
	}
	if err := in.validate(); err != nil {
		return models.Employee{}, err
	}

	var employee models.Employee
	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Employees, func(e models.Employee) bool { return e.ID == id })
		if idx == -1 {
			return notFound("employee", id)
		}

		oldEmail := c.Employees[idx].Email
		employee = in.employee(id)
		c.Employees[idx] = employee

		if oldEmail != in.Email {
			s.mirror.remove(c, oldEmail)
		}
		return s.mirror.upsert(c, in.Name, in.Email, in.Password)
	})
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to update employee: %w", err)
	}

	s.log.InfoContext(ctx, "Employee updated", "id", id, "email", employee.Email, "by", actor.Email)

	return employee, nil
}

// Delete removes the employee together with its login account.
func (s *EmployeeService) Delete(ctx context.Context, actor *session.Actor, id int64) error {
	err := s.delete(ctx, actor, id)
	record(s.metrics, "employee", "delete", err)
	return err
}

func (s *EmployeeService) delete(ctx context.Context, actor *session.Actor, id int64) error {
	if err := session.Require(actor, "delete employee", session.IsAdmin); err != nil {
		return err
	}

	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Employees, func(e models.Employee) bool { return e.ID == id })
		if idx == -1 {
			return notFound("employee", id)
		}

		email := c.Employees[idx].Email
		c.Employees = slices.Delete(c.Employees, idx, idx+1)
		s.mirror.remove(c, email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	s.log.InfoContext(ctx, "Employee deleted", "id", id, "by", actor.Email)

	return nil
}

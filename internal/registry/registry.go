// Package registry implements the client, employee and office registries.
// Clients and employees each keep a mirrored login account in the users collection;
// record and account are always written in the same atomic update.
package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/repository"
)

// Store is the part of the storage gateway the registries need.
type Store interface {
	GetClients(ctx context.Context) ([]models.Client, error)
	GetEmployees(ctx context.Context) ([]models.Employee, error)
	GetOffices(ctx context.Context) ([]models.Office, error)
	Update(ctx context.Context, fn func(*repository.Collections) error) error
}

// IDSource hands out fresh record ids.
type IDSource interface {
	Next() int64
}

// PasswordHasher turns a plaintext password into its stored form.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Default passwords of mirrored accounts created without an explicit password.
const (
	DefaultClientPassword   = "client123"
	DefaultEmployeePassword = "emp123"
)

// mirror keeps the login account paired with a registry record in sync.
type mirror struct {
	hasher          PasswordHasher
	ids             IDSource
	role            models.Role
	defaultPassword string
}

// upsert updates the account with the given email in place, or creates it.
// An existing password is only replaced when a new one is provided.
func (m mirror) upsert(c *repository.Collections, name, email, password string) error {
	password = strings.TrimSpace(password)

	if idx := c.UserIndex(email); idx != -1 {
		user := &c.Users[idx]
		if name != "" {
			user.Name = name
		}
		user.Role = m.role
		if password != "" {
			hash, err := m.hasher.Hash(password)
			if err != nil {
				return err
			}
			user.Password = hash
		}
		return nil
	}

	if password == "" {
		password = m.defaultPassword
	}
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return err
	}

	c.Users = append(c.Users, models.User{
		ID:       m.ids.Next(),
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     m.role,
	})

	return nil
}

// remove deletes the account with the given email, if any.
func (m mirror) remove(c *repository.Collections, email string) {
	c.Users = slices.DeleteFunc(c.Users, func(u models.User) bool { return u.Email == email })
}

// matches reports whether any field contains query, ignoring case. An empty query matches everything.
func matches(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}

	return false
}

func required(what string, fields ...string) error {
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("%w: %s", models.ErrValidation, what)
		}
	}
	return nil
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", models.ErrNotFound, entity, id)
}

func record(m *metrics.Metrics, entity, action string, err error) {
	m.RecordOperation(entity, action, err)
}

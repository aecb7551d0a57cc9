// Package session carries the authenticated actor through a call and answers
// role-based capability questions about it. A nil *Actor means "no session".
package session

import (
	"context"
	"fmt"

	"github.com/Houeta/logitrack/internal/models"
)

// Actor is the current authenticated user of a request.
type Actor struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// FromUser builds an actor from a stored user record.
func FromUser(user models.User) *Actor {
	return &Actor{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

// CurrentRole returns the actor's role and whether a session exists.
func CurrentRole(actor *Actor) (models.Role, bool) {
	if actor == nil {
		return "", false
	}
	return actor.Role, true
}

func IsAdmin(actor *Actor) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}

// IsStaff reports whether the actor is an admin or an employee.
func IsStaff(actor *Actor) bool {
	return actor != nil && (actor.Role == models.RoleAdmin || actor.Role == models.RoleEmployee)
}

func CanManageParcels(actor *Actor) bool {
	return IsStaff(actor)
}

func CanDeleteParcel(actor *Actor) bool {
	return IsAdmin(actor)
}

func CanRunReports(actor *Actor) bool {
	return IsStaff(actor)
}

// IsOwner reports whether the parcel belongs to the actor.
func IsOwner(parcel models.Parcel, actor *Actor) bool {
	return actor != nil && parcel.OwnerEmail != nil && *parcel.OwnerEmail == actor.Email
}

// CanViewParcel allows staff to see every parcel and clients to see their own.
func CanViewParcel(parcel models.Parcel, actor *Actor) bool {
	return IsStaff(actor) || IsOwner(parcel, actor)
}

// Require returns nil when allowed(actor) holds, ErrUnauthenticated without a session
// and ErrForbidden otherwise. action names the attempt in the error.
func Require(actor *Actor, action string, allowed func(*Actor) bool) error {
	if actor == nil {
		return fmt.Errorf("%s: %w", action, models.ErrUnauthenticated)
	}
	if !allowed(actor) {
		return fmt.Errorf("%s as %s: %w", action, actor.Role, models.ErrForbidden)
	}
	return nil
}

type contextKey struct{}

// WithActor returns a copy of ctx carrying the actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext returns the actor stored in ctx, or nil.
func FromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(contextKey{}).(*Actor)
	return actor
}

package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Houeta/logitrack/internal/models"
)

const (
	// AdminEmail is the login of the built-in administrator account.
	AdminEmail    = "admin@logitrack.com"
	adminName     = "Admin User"
	adminPassword = "admin123"
)

// PasswordHasher turns a plaintext password into its stored form.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// SeedDemoData makes sure the administrator account exists and fills every absent
// collection with demo records. Collections that are present, even when empty,
// are left untouched, so calling it repeatedly changes nothing.
func (r *Repository) SeedDemoData(ctx context.Context, hasher PasswordHasher, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []Entry

	users, err := load[models.User](ctx, r.store, KeyUsers)
	if err != nil {
		return err
	}

	hasAdmin := slices.ContainsFunc(users, func(u models.User) bool { return u.Email == AdminEmail })
	if !hasAdmin {
		hash, hashErr := hasher.Hash(adminPassword)
		if hashErr != nil {
			return fmt.Errorf("failed to hash admin password: %w", hashErr)
		}

		users = append(users, models.User{
			ID:       nextUserID(users),
			Name:     adminName,
			Email:    AdminEmail,
			Password: hash,
			Role:     models.RoleAdmin,
		})

		entry, encErr := encode(KeyUsers, users)
		if encErr != nil {
			return encErr
		}
		entries = append(entries, entry)
	}

	seeds := []struct {
		key   string
		build func() (Entry, error)
	}{
		{KeyEmployees, func() (Entry, error) { return encode(KeyEmployees, seedEmployees()) }},
		{KeyParcels, func() (Entry, error) { return encode(KeyParcels, seedParcels(now)) }},
		{KeyOffices, func() (Entry, error) { return encode(KeyOffices, seedOffices()) }},
		{KeyClients, func() (Entry, error) { return encode(KeyClients, seedClients()) }},
	}

	for _, seed := range seeds {
		exists, existsErr := r.store.Exists(ctx, seed.key)
		if existsErr != nil {
			return fmt.Errorf("failed to check %s before seeding: %w", seed.key, existsErr)
		}
		if exists {
			continue
		}

		entry, buildErr := seed.build()
		if buildErr != nil {
			return buildErr
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil
	}

	if err = r.store.Put(ctx, entries...); err != nil {
		return fmt.Errorf("failed to write seed data: %w", err)
	}

	return nil
}

func nextUserID(users []models.User) int64 {
	var maxID int64
	for _, u := range users {
		maxID = max(maxID, u.ID)
	}
	return maxID + 1
}

func seedEmployees() []models.Employee {
	return []models.Employee{
		{ID: 1, Name: "Michael Roberts", Email: "m.roberts@logitrack.com", Position: "Courier",
			Office: "Downtown Office", Phone: "+1 (555) 111-2222"},
		{ID: 2, Name: "Sarah Chen", Email: "s.chen@logitrack.com", Position: "Office Staff",
			Office: "Westside Branch", Phone: "+1 (555) 222-3333"},
		{ID: 3, Name: "James Wilson", Email: "j.wilson@logitrack.com", Position: "Courier",
			Office: "Central Hub", Phone: "+1 (555) 333-4444"},
		{ID: 4, Name: "Emma Davis", Email: "e.davis@logitrack.com", Position: "Office Staff",
			Office: "Downtown Office", Phone: "+1 (555) 444-5555"},
		{ID: 5, Name: "Robert Taylor", Email: "r.taylor@logitrack.com", Position: "Courier",
			Office: "Tech District", Phone: "+1 (555) 555-6666"},
		{ID: 6, Name: "Lisa Anderson", Email: "l.anderson@logitrack.com", Position: "Office Staff",
			Office: "Harbor Point", Phone: "+1 (555) 666-7777"},
	}
}

func seedParcels(now time.Time) []models.Parcel {
	johnEmail := "john@example.com"
	aliceEmail := "alice@example.com"

	return []models.Parcel{
		{
			ID:           1,
			Tracking:     "LT-2024-001234",
			Sender:       "John Smith",
			OwnerEmail:   &johnEmail,
			Recipient:    "Jane Doe",
			DeliveryType: models.DeliveryAddress,
			Weight:       2.5, //nolint:mnd // demo data
			Price:        15.99,
			Status:       models.StatusInTransit,
			History:      []models.HistoryEntry{{Date: now, Status: models.StatusInTransit}},
		},
		{
			ID:           2, //nolint:mnd // demo data
			Tracking:     "LT-2024-001235",
			Sender:       "Alice Brown",
			OwnerEmail:   &aliceEmail,
			Recipient:    "Bob Wilson",
			DeliveryType: models.DeliveryOffice,
			Weight:       1.2, //nolint:mnd // demo data
			Price:        8.5,
			Status:       models.StatusDelivered,
			History:      []models.HistoryEntry{{Date: now, Status: models.StatusDelivered}},
		},
	}
}

func seedOffices() []models.Office {
	return []models.Office{
		{ID: 1, Name: "Downtown Office", City: "Sofia", Address: "Main St 1", Phone: "+359 2 111 1111"},
		{ID: 2, Name: "Westside Branch", City: "Sofia", Address: "West Blvd 23", Phone: "+359 2 222 2222"},
	}
}

func seedClients() []models.Client {
	return []models.Client{
		{ID: 1, Name: "John Smith", Email: "john@example.com", Phone: "+1 (555) 111-0000"},
		{ID: 2, Name: "Alice Brown", Email: "alice@example.com", Phone: "+1 (555) 222-0000"},
	}
}

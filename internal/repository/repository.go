package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Houeta/logitrack/internal/models"
)

// Logical keys of the persisted state.
const (
	KeyUsers       = "users"
	KeyEmployees   = "employees"
	KeyParcels     = "parcels"
	KeyOffices     = "offices"
	KeyClients     = "clients"
	KeyCurrentUser = "currentUser"
)

// ErrCorruptCollection is returned when a stored collection cannot be decoded
// or holds a record that fails validation.
var ErrCorruptCollection = errors.New("stored collection is malformed")

// Repository is the storage gateway: typed whole-collection access on top of a Store.
// Writes made through one Repository are serialized; writers in other processes
// sharing the same Store still follow last-writer-wins.
type Repository struct {
	store Store
	mu    sync.Mutex
}

// NewRepository creates a new instance of Repository with the provided Store.
func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Collections is an in-memory copy of the five record collections.
type Collections struct {
	Users     []models.User
	Employees []models.Employee
	Clients   []models.Client
	Offices   []models.Office
	Parcels   []models.Parcel
}

// UserIndex returns the position of the user with the given email, or -1.
func (c *Collections) UserIndex(email string) int {
	for i := range c.Users {
		if c.Users[i].Email == email {
			return i
		}
	}
	return -1
}

type record interface {
	Validate() error
}

func load[T record](ctx context.Context, store Store, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var items []T
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptCollection, key, err)
	}
	if items == nil {
		items = []T{}
	}

	for i, item := range items {
		if err = item.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrCorruptCollection, key, i, err)
		}
	}

	return items, nil
}

func encode[T any](key string, items []T) (Entry, error) {
	if items == nil {
		items = []T{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode %s: %w", key, err)
	}

	return Entry{Key: key, Value: raw}, nil
}

func (r *Repository) save(ctx context.Context, entry Entry, err error) error {
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err = r.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to save %s: %w", entry.Key, err)
	}

	return nil
}

// GetUsers returns the users collection in insertion order.
func (r *Repository) GetUsers(ctx context.Context) ([]models.User, error) {
	return load[models.User](ctx, r.store, KeyUsers)
}

// SaveUsers overwrites the users collection.
func (r *Repository) SaveUsers(ctx context.Context, users []models.User) error {
	entry, err := encode(KeyUsers, users)
	return r.save(ctx, entry, err)
}

func (r *Repository) GetEmployees(ctx context.Context) ([]models.Employee, error) {
	return load[models.Employee](ctx, r.store, KeyEmployees)
}

func (r *Repository) SaveEmployees(ctx context.Context, employees []models.Employee) error {
	entry, err := encode(KeyEmployees, employees)
	return r.save(ctx, entry, err)
}

func (r *Repository) GetClients(ctx context.Context) ([]models.Client, error) {
	return load[models.Client](ctx, r.store, KeyClients)
}

func (r *Repository) SaveClients(ctx context.Context, clients []models.Client) error {
	entry, err := encode(KeyClients, clients)
	return r.save(ctx, entry, err)
}

func (r *Repository) GetOffices(ctx context.Context) ([]models.Office, error) {
	return load[models.Office](ctx, r.store, KeyOffices)
}

func (r *Repository) SaveOffices(ctx context.Context, offices []models.Office) error {
	entry, err := encode(KeyOffices, offices)
	return r.save(ctx, entry, err)
}

func (r *Repository) GetParcels(ctx context.Context) ([]models.Parcel, error) {
	return load[models.Parcel](ctx, r.store, KeyParcels)
}

func (r *Repository) SaveParcels(ctx context.Context, parcels []models.Parcel) error {
	entry, err := encode(KeyParcels, parcels)
	return r.save(ctx, entry, err)
}

// GetCurrentUser returns the persisted session pointer, or nil when nobody is logged in.
func (r *Repository) GetCurrentUser(ctx context.Context) (*models.User, error) {
	raw, err := r.store.Get(ctx, KeyCurrentUser)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil //nolint:nilnil // no session is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read current user: %w", err)
	}

	var user *models.User
	if err = json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptCollection, KeyCurrentUser, err)
	}

	return user, nil
}

// SetCurrentUser stores the session pointer. The password is never persisted there.
func (r *Repository) SetCurrentUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user.Public())
	if err != nil {
		return fmt.Errorf("failed to encode current user: %w", err)
	}

	return r.save(ctx, Entry{Key: KeyCurrentUser, Value: raw}, nil)
}

// Logout clears the session pointer.
func (r *Repository) Logout(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}

	return nil
}

// Snapshot reads all five collections under the write lock, so the copy is consistent.
func (r *Repository) Snapshot(ctx context.Context) (*Collections, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshot(ctx)
}

func (r *Repository) snapshot(ctx context.Context) (*Collections, error) {
	var (
		cols Collections
		err  error
	)

	if cols.Users, err = load[models.User](ctx, r.store, KeyUsers); err != nil {
		return nil, err
	}
	if cols.Employees, err = load[models.Employee](ctx, r.store, KeyEmployees); err != nil {
		return nil, err
	}
	if cols.Clients, err = load[models.Client](ctx, r.store, KeyClients); err != nil {
		return nil, err
	}
	if cols.Offices, err = load[models.Office](ctx, r.store, KeyOffices); err != nil {
		return nil, err
	}
	if cols.Parcels, err = load[models.Parcel](ctx, r.store, KeyParcels); err != nil {
		return nil, err
	}

	return &cols, nil
}

func (c *Collections) entries() ([]Entry, error) {
	var err error
	entries := make([]Entry, 5) //nolint:mnd // one entry per collection

	if entries[0], err = encode(KeyUsers, c.Users); err != nil {
		return nil, err
	}
	if entries[1], err = encode(KeyEmployees, c.Employees); err != nil {
		return nil, err
	}
	if entries[2], err = encode(KeyClients, c.Clients); err != nil {
		return nil, err
	}
	if entries[3], err = encode(KeyOffices, c.Offices); err != nil {
		return nil, err
	}
	if entries[4], err = encode(KeyParcels, c.Parcels); err != nil {
		return nil, err
	}

	return entries, nil
}

// Update runs a read-modify-write cycle: fn receives fresh copies of all collections,
// and every collection it changed is written back in one atomic Put. When fn returns
// an error nothing is written and the error is returned as is.
func (r *Repository) Update(ctx context.Context, fn func(*Collections) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cols, err := r.snapshot(ctx)
	if err != nil {
		return err
	}

	before, err := cols.entries()
	if err != nil {
		return err
	}

	if err = fn(cols); err != nil {
		return err
	}

	after, err := cols.entries()
	if err != nil {
		return err
	}

	var changed []Entry
	for i := range after {
		if !bytes.Equal(before[i].Value, after[i].Value) {
			changed = append(changed, after[i])
		}
	}
	if len(changed) == 0 {
		return nil
	}

	if err = r.store.Put(ctx, changed...); err != nil {
		return fmt.Errorf("failed to write collections: %w", err)
	}

	return nil
}

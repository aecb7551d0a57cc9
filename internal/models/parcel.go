package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status is a stage of the parcel lifecycle.
type Status string

const (
	StatusRegistered Status = "Registered"
	StatusInTransit  Status = "In Transit"
	StatusDelivered  Status = "Delivered"
	StatusReturned   Status = "Returned"
)

// Statuses lists every lifecycle stage in display order.
var Statuses = []Status{StatusRegistered, StatusInTransit, StatusDelivered, StatusReturned}

// Valid reports whether s is a known lifecycle stage.
func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusInTransit, StatusDelivered, StatusReturned:
		return true
	default:
		return false
	}
}

// DeliveryType tells whether the parcel goes to a street address or is collected at an office.
type DeliveryType string

const (
	DeliveryAddress DeliveryType = "Address"
	DeliveryOffice  DeliveryType = "Office"
)

// Valid reports whether d is a known delivery type.
func (d DeliveryType) Valid() bool {
	return d == DeliveryAddress || d == DeliveryOffice
}

// Weight is a parcel weight in kilograms. It is persisted as "<n> kg"
// and accepts either a bare number or that string on load.
type Weight float64

// ParseWeight parses "2.5", "2.5kg" or "2.5 kg" into a finite weight.
func ParseWeight(raw string) (Weight, error) {
	value := strings.TrimSpace(strings.ToLower(raw))
	value = strings.TrimSpace(strings.TrimSuffix(value, "kg"))

	num, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, fmt.Errorf("%w: weight %q is not a number", ErrValidation, raw)
	}

	return Weight(num), nil
}

// Kg returns the weight as a plain number.
func (w Weight) Kg() float64 {
	return float64(w)
}

func (w Weight) String() string {
	return strconv.FormatFloat(float64(w), 'f', -1, 64) + " kg"
}

// MarshalJSON writes the weight with its unit suffix.
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON accepts a number, a "<n> kg" string, an empty string or null.
func (w *Weight) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*w = 0
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*w = Weight(num)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("weight must be a number or a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*w = 0
		return nil
	}

	parsed, err := ParseWeight(raw)
	if err != nil {
		return err
	}
	*w = parsed

	return nil
}

// HistoryEntry is one status transition of a parcel.
type HistoryEntry struct {
	Date   time.Time `json:"date"`
	Status Status    `json:"status"`
	By     string    `json:"by,omitempty"` // Email of the actor who made the transition
}

// Parcel is a shipment tracked from registration to delivery.
type Parcel struct {
	ID             int64          `json:"id"`
	Tracking       string         `json:"tracking"`                 // Public tracking code
	Sender         string         `json:"sender"`                   // Sender display name
	Recipient      string         `json:"recipient"`                // Recipient display name
	RecipientEmail string         `json:"recipientEmail,omitempty"` // Optional link to the receiving client
	OwnerEmail     *string        `json:"ownerEmail"`               // Email of the owning client, nil when unowned
	DeliveryType   DeliveryType   `json:"deliveryType"`
	Weight         Weight         `json:"weight"`
	Price          float64        `json:"price"`
	Status         Status         `json:"status"`
	History        []HistoryEntry `json:"history"`

	// Provenance, in order of precedence. Older records carry only some of these.
	RegisteredByEmail string     `json:"registeredByEmail,omitempty"`
	RegisteredBy      string     `json:"registeredBy,omitempty"` // Email of the registering employee
	CreatedByEmail    string     `json:"createdByEmail,omitempty"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
}

// Validate checks the enumerated fields of a stored parcel.
func (p Parcel) Validate() error {
	if !p.Status.Valid() {
		return fmt.Errorf("%w: parcel %s has unknown status %q", ErrValidation, p.Tracking, p.Status)
	}
	if !p.DeliveryType.Valid() {
		return fmt.Errorf("%w: parcel %s has unknown delivery type %q", ErrValidation, p.Tracking, p.DeliveryType)
	}
	for _, entry := range p.History {
		if !entry.Status.Valid() {
			return fmt.Errorf("%w: parcel %s history has unknown status %q", ErrValidation, p.Tracking, entry.Status)
		}
	}
	return nil
}

// Owner returns the owner email or an empty string.
func (p Parcel) Owner() string {
	if p.OwnerEmail == nil {
		return ""
	}
	return *p.OwnerEmail
}

// CreatedTime resolves when the parcel was created: the explicit creation time,
// else the date of the earliest history entry.
func (p Parcel) CreatedTime() (time.Time, bool) {
	if p.CreatedAt != nil && !p.CreatedAt.IsZero() {
		return *p.CreatedAt, true
	}
	if len(p.History) > 0 && !p.History[0].Date.IsZero() {
		return p.History[0].Date, true
	}
	return time.Time{}, false
}

// Registrar resolves who registered the parcel from the first non-empty of
// registeredByEmail, registeredBy, createdByEmail, createdBy and the actor of
// the earliest history entry. Empty when unknown.
func (p Parcel) Registrar() string {
	switch {
	case p.RegisteredByEmail != "":
		return p.RegisteredByEmail
	case p.RegisteredBy != "":
		return p.RegisteredBy
	case p.CreatedByEmail != "":
		return p.CreatedByEmail
	case p.CreatedBy != "":
		return p.CreatedBy
	case len(p.History) > 0:
		return p.History[0].By
	default:
		return ""
	}
}

package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/session"
)

// Parcel directions of the client parcels report.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
	DirectionAll      = "all"
)

// ErrInvalidDirection is returned for a client parcels direction other than sent, received or all.
var ErrInvalidDirection = errors.New("invalid role")

// ClientParcel is one row of the client parcels report.
type ClientParcel struct {
	Tracking       string              `json:"tracking_number"`
	Status         models.Status       `json:"status"`
	DeliveryType   models.DeliveryType `json:"delivery_type"`
	Price          float64             `json:"price"`
	WeightKg       float64             `json:"weight_kg"`
	SenderClient   string              `json:"sender_client"`
	ReceiverClient string              `json:"receiver_client"`
	CreatedAt      string              `json:"created_at"`
	DeliveredAt    string              `json:"delivered_at"`
}

// ClientParcels is the client parcels report. ClientID is nil for the "all" direction.
type ClientParcels struct {
	ClientID     *int64         `json:"client_id"`
	ParcelsCount int            `json:"parcels_count"`
	Parcels      []ClientParcel `json:"parcels"`
}

// ClientSummary is one row of the clients report.
type ClientSummary struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ParcelsSent     int    `json:"parcels_sent"`
	ParcelsReceived int    `json:"parcels_received"`
}

// ClientsReport lists every client with its parcel counts.
type ClientsReport struct {
	Clients []ClientSummary `json:"clients_report"`
}

// ClientParcels lists the parcels a client sent, received, or every parcel for "all",
// newest first. A parcel is sent by the client owning it; it is received by the client
// named in its recipient email, or, without one, whose name or email appears in the recipient.
func (e *Engine) ClientParcels(
	ctx context.Context,
	actor *session.Actor,
	clientID int64,
	direction string,
) (ClientParcels, error) {
	done, err := e.start(actor, "client_parcels")
	if err != nil {
		return ClientParcels{}, err
	}
	defer done()

	if direction != DirectionSent && direction != DirectionReceived && direction != DirectionAll {
		return ClientParcels{}, fmt.Errorf("%w: %w", models.ErrValidation, ErrInvalidDirection)
	}

	parcels, err := e.store.GetParcels(ctx)
	if err != nil {
		return ClientParcels{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	var (
		client *models.Client
		keep   = func(models.Parcel) bool { return true }
	)
	if direction != DirectionAll {
		client, err = e.client(ctx, clientID)
		if err != nil {
			return ClientParcels{}, err
		}
		if direction == DirectionSent {
			keep = func(p models.Parcel) bool { return sentBy(p, *client) }
		} else {
			keep = func(p models.Parcel) bool { return receivedBy(p, *client) }
		}
	}

	selected := make([]models.Parcel, 0, len(parcels))
	for _, p := range parcels {
		if keep(p) {
			selected = append(selected, p)
		}
	}
	slices.SortStableFunc(selected, func(a, b models.Parcel) int {
		at, _ := a.CreatedTime()
		bt, _ := b.CreatedTime()
		return bt.Compare(at)
	})

	report := ClientParcels{ParcelsCount: len(selected), Parcels: make([]ClientParcel, 0, len(selected))}
	if client != nil {
		report.ClientID = &client.ID
	}
	for _, p := range selected {
		report.Parcels = append(report.Parcels, e.clientParcel(p))
	}

	return report, nil
}

// Clients summarizes every client with the number of parcels sent and received.
func (e *Engine) Clients(ctx context.Context, actor *session.Actor) (ClientsReport, error) {
	done, err := e.start(actor, "clients")
	if err != nil {
		return ClientsReport{}, err
	}
	defer done()

	clients, err := e.store.GetClients(ctx)
	if err != nil {
		return ClientsReport{}, fmt.Errorf("failed to load clients: %w", err)
	}
	parcels, err := e.store.GetParcels(ctx)
	if err != nil {
		return ClientsReport{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	report := ClientsReport{Clients: make([]ClientSummary, 0, len(clients))}
	for _, c := range clients {
		summary := ClientSummary{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
		for _, p := range parcels {
			if sentBy(p, c) {
				summary.ParcelsSent++
			}
			if receivedBy(p, c) {
				summary.ParcelsReceived++
			}
		}
		report.Clients = append(report.Clients, summary)
	}

	return report, nil
}

func (e *Engine) client(ctx context.Context, id int64) (*models.Client, error) {
	clients, err := e.store.GetClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}

	idx := slices.IndexFunc(clients, func(c models.Client) bool { return c.ID == id })
	if idx == -1 {
		return nil, fmt.Errorf("%w: client %d", models.ErrNotFound, id)
	}

	return &clients[idx], nil
}

func (e *Engine) clientParcel(p models.Parcel) ClientParcel {
	row := ClientParcel{
		Tracking:       p.Tracking,
		Status:         p.Status,
		DeliveryType:   p.DeliveryType,
		Price:          p.Price,
		WeightKg:       p.Weight.Kg(),
		SenderClient:   p.Sender,
		ReceiverClient: p.Recipient,
		CreatedAt:      e.created(p),
		DeliveredAt:    "-",
	}

	for i := len(p.History) - 1; i >= 0; i-- {
		if p.History[i].Status == models.StatusDelivered {
			row.DeliveredAt = p.History[i].Date.In(e.loc).Format(dateTimeLayout)
			break
		}
	}

	return row
}

func sentBy(p models.Parcel, c models.Client) bool {
	return c.Email != "" && p.Owner() == c.Email
}

func receivedBy(p models.Parcel, c models.Client) bool {
	if p.RecipientEmail != "" {
		return p.RecipientEmail == c.Email
	}

	recipient := strings.ToLower(p.Recipient)
	name := strings.ToLower(c.Name)
	email := strings.ToLower(c.Email)

	return (name != "" && strings.Contains(recipient, name)) || (email != "" && strings.Contains(recipient, email))
}

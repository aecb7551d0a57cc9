package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/tracking"
	"github.com/go-chi/chi/v5"
)

// Messages shown on the public tracking page.
const (
	msgTrackingRequired = "Please enter tracking number."
	msgTrackingNotFound = "No parcel found with this tracking number."
)

// TrackEvent is one public status transition.
type TrackEvent struct {
	Date   time.Time     `json:"date"`
	Status models.Status `json:"status"`
}

// TrackView is the public projection of a parcel. It leaves out owner and staff emails.
type TrackView struct {
	Tracking     string              `json:"tracking"`
	Status       models.Status       `json:"status"`
	Sender       string              `json:"sender"`
	Recipient    string              `json:"recipient"`
	DeliveryType models.DeliveryType `json:"deliveryType"`
	Weight       models.Weight       `json:"weight"`
	Price        float64             `json:"price"`
	History      []TrackEvent        `json:"history"`
}

// NewTrackView projects a parcel for public display.
func NewTrackView(p models.Parcel) TrackView {
	view := TrackView{
		Tracking:     p.Tracking,
		Status:       p.Status,
		Sender:       p.Sender,
		Recipient:    p.Recipient,
		DeliveryType: p.DeliveryType,
		Weight:       p.Weight,
		Price:        p.Price,
		History:      make([]TrackEvent, 0, len(p.History)),
	}
	for _, entry := range p.History {
		view.History = append(view.History, TrackEvent{Date: entry.Date, Status: entry.Status})
	}
	return view
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	parcel, err := h.svc.Tracking.Lookup(r.Context(), tracking.SourceAPI, chi.URLParam(r, "tracking"))
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgTrackingRequired})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgTrackingNotFound})
	case err != nil:
		h.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, NewTrackView(parcel))
	}
}

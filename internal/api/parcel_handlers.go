package api

import (
	"net/http"

	"github.com/Houeta/logitrack/internal/parcels"
	"github.com/Houeta/logitrack/internal/session"
)

func (h *Handler) listParcels(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Parcels.Visible(r.Context(), session.FromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) parcelStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Parcels.Stats(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) viewParcel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	parcel, err := h.svc.Parcels.View(r.Context(), session.FromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parcel)
}

func (h *Handler) createParcel(w http.ResponseWriter, r *http.Request) {
	var in parcels.Input
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	parcel, err := h.svc.Parcels.Create(r.Context(), session.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, parcel)
}

func (h *Handler) updateParcel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in parcels.Input
	if err = decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	parcel, err := h.svc.Parcels.Update(r.Context(), session.FromContext(r.Context()), id, in)
	if err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parcel)
}

func (h *Handler) deleteParcel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !confirmed(r) {
		writeJSON(w, http.StatusPreconditionRequired, errorBody{Error: "confirmation required"})
		return
	}

	if err = h.svc.Parcels.Delete(r.Context(), session.FromContext(r.Context()), id); err != nil {
		h.writeMutationError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

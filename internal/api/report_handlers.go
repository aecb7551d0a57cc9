package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Houeta/logitrack/internal/report"
	"github.com/Houeta/logitrack/internal/session"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) runReport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	query := r.URL.Query()

	table, err := h.svc.Reports.Run(r.Context(), session.FromContext(r.Context()), kind, report.Params{
		Employee: query.Get("employee"),
		From:     query.Get("from"),
		To:       query.Get("to"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if query.Get("format") != "xlsx" {
		writeJSON(w, http.StatusOK, table)
		return
	}

	buffer, err := h.svc.Reports.Export(table)
	if errors.Is(err, report.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "No results"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", kind, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err = buffer.WriteTo(w); err != nil {
		h.log.ErrorContext(r.Context(), "Failed to write report", "kind", kind, "error", err)
	}
}

func (h *Handler) clientParcels(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "clientID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeClientParcels(w, r, id, chi.URLParam(r, "direction"))
}

func (h *Handler) allClientParcels(w http.ResponseWriter, r *http.Request) {
	h.writeClientParcels(w, r, 0, report.DirectionAll)
}

func (h *Handler) writeClientParcels(w http.ResponseWriter, r *http.Request, clientID int64, direction string) {
	result, err := h.svc.Reports.ClientParcels(r.Context(), session.FromContext(r.Context()), clientID, direction)
	if errors.Is(err, report.ErrInvalidDirection) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid role"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) clientsReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Reports.Clients(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

package api

import (
	"net/http"

	"github.com/Houeta/logitrack/internal/session"
	"github.com/go-chi/chi/v5"
)

// mountRegistry wires the CRUD routes of one registry under the current route.
func mountRegistry[T, In any](h *Handler, r chi.Router, reg Registry[T, In]) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		items, err := reg.List(r.Context(), session.FromContext(r.Context()), r.URL.Query().Get("q"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decode(w, r, &in); err != nil {
			h.writeError(w, r, err)
			return
		}

		item, err := reg.Create(r.Context(), session.FromContext(r.Context()), in)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		item, err := reg.Get(r.Context(), session.FromContext(r.Context()), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	})

	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		var in In
		if err = decode(w, r, &in); err != nil {
			h.writeError(w, r, err)
			return
		}

		item, err := reg.Update(r.Context(), session.FromContext(r.Context()), id, in)
		if err != nil {
			h.writeMutationError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	})

	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !confirmed(r) {
			writeJSON(w, http.StatusPreconditionRequired, errorBody{Error: "confirmation required"})
			return
		}

		if err = reg.Delete(r.Context(), session.FromContext(r.Context()), id); err != nil {
			h.writeMutationError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

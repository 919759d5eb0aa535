// Package catalog serves the backend API the dashboard reads from, backed
// by a Store (PostgreSQL in production).
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"newsletter_dashboard/internal/db"
	"newsletter_dashboard/internal/logger"
	"newsletter_dashboard/internal/middleware"
	"newsletter_dashboard/internal/models"
)

// Store is the persistence the catalog needs.
type Store interface {
	ListNewsletters(ctx context.Context) ([]models.Newsletter, error)
	ListRecommendations(ctx context.Context) ([]models.Recommendation, error)
	CreateNewsletter(ctx context.Context, n models.NewNewsletter) (*models.Newsletter, error)
	DeleteNewsletter(ctx context.Context, id models.ID) error
}

type Handler struct {
	store Store
	log   *logger.Entry
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, log: logger.Component("catalog")}
}

// Routes registers the four backend routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/newsletters", h.ListNewsletters)
	mux.HandleFunc("POST /api/newsletters", h.CreateNewsletter)
	mux.HandleFunc("DELETE /api/newsletters/{id}", h.DeleteNewsletter)
	mux.HandleFunc("GET /api/recommendations", h.ListRecommendations)
	return middleware.RequestID(middleware.Logging(mux))
}

func (h *Handler) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListNewsletters(r.Context())
	if err != nil {
		h.log.WithField("error", err.Error()).Error("List newsletters failed")
		http.Error(w, "Failed to list newsletters", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListRecommendations(r.Context())
	if err != nil {
		h.log.WithField("error", err.Error()).Error("List recommendations failed")
		http.Error(w, "Failed to list recommendations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
	var form models.NewNewsletter
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "Invalid newsletter payload", http.StatusBadRequest)
		return
	}
	if err := form.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.store.CreateNewsletter(r.Context(), form)
	if err != nil {
		h.log.WithField("error", err.Error()).Error("Create newsletter failed")
		http.Error(w, "Failed to create newsletter", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	id := models.ID(r.PathValue("id"))

	err := h.store.DeleteNewsletter(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "Newsletter not found", http.StatusNotFound)
	case err != nil:
		h.log.WithFields(logger.Fields{"id": id.String(), "error": err.Error()}).Error("Delete newsletter failed")
		http.Error(w, "Failed to delete newsletter", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithField("error", err.Error()).Error("Failed to encode response")
	}
}

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"newsletter_dashboard/internal/loader"
	"newsletter_dashboard/internal/logger"
	"newsletter_dashboard/internal/models"
)

// SubmitAdd handles the add form on the HTML page and redirects back to it.
func (s *Server) SubmitAdd(w http.ResponseWriter, r *http.Request) {
	form, err := parseNewsletterForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.session.Add(r.Context(), form); err != nil {
		var addErr *loader.AddError
		if errors.As(err, &addErr) {
			http.Error(w, "Failed to add newsletter", http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SubmitDelete handles a row's delete button on the HTML page.
func (s *Server) SubmitDelete(w http.ResponseWriter, r *http.Request) {
	id := models.ID(r.PathValue("id"))
	if id == "" {
		http.Error(w, "Missing newsletter id", http.StatusBadRequest)
		return
	}

	if err := s.session.Delete(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete newsletter", http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

var errInvalidNumber = errors.New("cost and engagement must be numbers")

func parseNewsletterForm(r *http.Request) (models.NewNewsletter, error) {
	if err := r.ParseForm(); err != nil {
		logger.Log.WithField("error", err.Error()).Warn("Malformed form")
		return models.NewNewsletter{}, err
	}

	form := models.NewNewsletter{
		Name:     r.PostFormValue("name"),
		Author:   r.PostFormValue("author"),
		Category: r.PostFormValue("category"),
	}
	switch r.PostFormValue("paid") {
	case "on", "true":
		form.Paid = true
	}

	var err error
	if form.Cost, err = formFloat(r, "cost"); err != nil {
		return form, err
	}
	if form.Engagement, err = formFloat(r, "engagement"); err != nil {
		return form, err
	}
	return form, nil
}

func formFloat(r *http.Request, key string) (float64, error) {
	v := strings.TrimSpace(r.PostFormValue(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errInvalidNumber
	}
	return f, nil
}

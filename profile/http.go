package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/autofill/booking"
)

// RegisterHTTP mounts the profile API on r:
//
//	GET    /api/profile                  the fill request the profile builds
//	GET    /api/profile/passengers
//	POST   /api/profile/passengers
//	DELETE /api/profile/passengers/{id}
//	GET    /api/profile/contact
//	PUT    /api/profile/contact
//	GET    /api/profile/payment
//	PUT    /api/profile/payment
//	DELETE /api/profile/payment
func (s *Store) RegisterHTTP(r chi.Router) {
	r.Route("/api/profile", func(r chi.Router) {
		r.Get("/", s.handleRequest)
		r.Get("/passengers", s.handleListPassengers)
		r.Post("/passengers", s.handleAddPassenger)
		r.Delete("/passengers/{id}", s.handleDeletePassenger)
		r.Get("/contact", s.handleGetContact)
		r.Put("/contact", s.handleSetContact)
		r.Get("/payment", s.handleGetPayment)
		r.Put("/payment", s.handleSetPayment)
		r.Delete("/payment", s.handleClearPayment)
	})
}

func (s *Store) handleRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.Request(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Store) handleListPassengers(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ListPassengers(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Store) handleAddPassenger(w http.ResponseWriter, r *http.Request) {
	var p booking.Passenger
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	e, err := s.AddPassenger(r.Context(), p)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Store) handleDeletePassenger(w http.ResponseWriter, r *http.Request) {
	if err := s.DeletePassenger(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) handleGetContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.Contact(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Store) handleSetContact(w http.ResponseWriter, r *http.Request) {
	var c booking.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.SetContact(r.Context(), c); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Store) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.Payment(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Store) handleSetPayment(w http.ResponseWriter, r *http.Request) {
	var p booking.Payment
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.SetPayment(r.Context(), p); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) handleClearPayment(w http.ResponseWriter, r *http.Request) {
	if err := s.ClearPayment(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Store) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonErr(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrInvalidRequest), errors.Is(err, ErrIncomplete):
		jsonErr(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("profile: request failed", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

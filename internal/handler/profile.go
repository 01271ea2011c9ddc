package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/service"
)

// ProfileHandler handles skills profile CRUD.
type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HandleList returns profiles, optionally filtered.
// GET /api/profiles?skill=&role=&q=
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profiles, err := h.profiles.List(r.Context(), domain.ProfileFilter{
		Skill: q.Get("skill"),
		Role:  q.Get("role"),
		Query: q.Get("q"),
	})
	if err != nil {
		writeServiceError(w, "list profiles", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTOs(profiles))
}

// GET /api/profiles/{id}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// POST /api/profiles
func (h *ProfileHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var in service.ProfileInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	p, err := h.profiles.Create(r.Context(), user.ID, in)
	if err != nil {
		writeServiceError(w, "create profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(p))
}

// PUT /api/profiles/{id}
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var in service.ProfileInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	p, err := h.profiles.Update(r.Context(), user.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// DELETE /api/profiles/{id}
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.profiles.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete profile", err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile deleted successfully.")
}

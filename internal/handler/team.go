package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/skill-match/internal/service"
)

// TeamHandler handles team CRUD.
type TeamHandler struct {
	teams *service.TeamService
}

func NewTeamHandler(teams *service.TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

// HandleList returns every team with its owner summary.
// GET /api/teams
func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List(r.Context())
	if err != nil {
		writeServiceError(w, "list teams", err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamDTOs(teams))
}

// GET /api/teams/{id}
func (h *TeamHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.teams.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get team", err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamDTO(t))
}

// POST /api/teams
func (h *TeamHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var in service.TeamInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	t, err := h.teams.Create(r.Context(), user.ID, in)
	if err != nil {
		writeServiceError(w, "create team", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamDTO(t))
}

// PUT /api/teams/{id}
func (h *TeamHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var in service.TeamInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}

	t, err := h.teams.Update(r.Context(), user.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, "update team", err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamDTO(t))
}

// DELETE /api/teams/{id}
func (h *TeamHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.teams.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete team", err)
		return
	}
	writeMessage(w, http.StatusOK, "Team deleted successfully.")
}

package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
)

type TeamHandler struct {
	teamService services.TeamService
	access      services.AccessService
}

func NewTeamHandler(ts services.TeamService, access services.AccessService) *TeamHandler {
	return &TeamHandler{
		teamService: ts,
		access:      access,
	}
}

func (h *TeamHandler) GetTeamByID(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, h.teamService.AddPlayer)
}

func (h *TeamHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	h.changeRoster(w, r, h.teamService.RemovePlayer)
}

func (h *TeamHandler) changeRoster(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, teamID int) (*models.Team, error),
) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.access.AuthorizeTeam(r.Context(), actor, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	team, err := change(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

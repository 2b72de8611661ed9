package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
	"go.uber.org/zap"
)

const maxEvidenceSize = 10 << 20

type MatchHandler struct {
	resultService services.ResultService
	access        services.AccessService
}

func NewMatchHandler(rs services.ResultService, access services.AccessService) *MatchHandler {
	return &MatchHandler{
		resultService: rs,
		access:        access,
	}
}

func (h *MatchHandler) GetMatchByID(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.resultService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResult принимает отчёт одной из команд матча.
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}
	input.MatchID = matchID

	if err := h.access.AuthorizeTeam(r.Context(), actor, input.TeamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	match, err := h.resultService.Submit(r.Context(), input)
	h.writeMatchResult(w, r, match, err)
}

func (h *MatchHandler) ReopenMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.authorizeMatch(w, r)
	if !ok {
		return
	}

	match, err := h.resultService.Reopen(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.authorizeMatch(w, r)
	if !ok {
		return
	}

	var input services.ResolveDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.MatchID = matchID

	match, err := h.resultService.ResolveDispute(r.Context(), input)
	h.writeMatchResult(w, r, match, err)
}

// UploadEvidence ожидает multipart-форму с полями "file" и "team_id".
func (h *MatchHandler) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxEvidenceSize)
	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	teamID, err := strconv.Atoi(r.FormValue("team_id"))
	if err != nil || teamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id form field is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get evidence file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	if err := h.access.AuthorizeTeam(r.Context(), actor, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	upload, err := h.resultService.UploadEvidence(r.Context(), matchID, teamID, header.Filename, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"evidence": upload}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) authorizeMatch(w http.ResponseWriter, r *http.Request) (int, bool) {
	actor, ok := currentActor(w, r)
	if !ok {
		return 0, false
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, false
	}
	if err := h.access.AuthorizeMatch(r.Context(), actor, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return 0, false
	}
	return matchID, true
}

// writeMatchResult reports a committed result even when the follow-up stage progression failed.
func (h *MatchHandler) writeMatchResult(w http.ResponseWriter, r *http.Request, match *models.Match, err error) {
	var progErr *services.StageProgressionError
	switch {
	case err == nil:
		if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	case errors.As(err, &progErr) && match != nil:
		middleware.LoggerFromContext(r.Context()).Warn("result confirmed but stage progression failed",
			zap.Int("tournament_id", progErr.TournamentID), zap.Error(err))
		env := jsonResponse{"match": match, "progression_error": err.Error()}
		if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
	default:
		mapServiceErrorToHTTP(w, r, err)
	}
}

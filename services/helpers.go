package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(v int) *int {
	return &v
}

func stringPtr(s string) *string {
	return &s
}

// isValidStatusTransition допускает только линейное движение турнира вперёд.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusRegistration: {models.StatusGroupStage},
		models.StatusGroupStage:   {models.StatusKnockout},
		models.StatusKnockout:     {models.StatusCompleted},
		models.StatusCompleted:    {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисов.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrTournamentSlugConflict):
		return ErrTournamentSlugConflict
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrMatchConflict):
		return ErrMatchConflict
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrInvalidReference):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

// Виды сущностей в слагах.
const (
	slugKindTournament = "tournament"
	slugKindTeam       = "team"
	slugKindMatch      = "match"
)

// newSlug builds <yyyymmddHHMM>_<kind>_<name>_<8 hex chars>.
func newSlug(kind, name string, now time.Time) string {
	base := slug.Make(name)
	if base == "" {
		base = kind
	}
	return fmt.Sprintf("%s_%s_%s_%s", now.UTC().Format("200601021504"), kind, base, uuid.NewString()[:8])
}

func matchSlugName(m *models.Match) string {
	name := fmt.Sprintf("%s %d vs %d", strings.ToLower(string(m.Stage)), m.HomeTeamID, m.AwayTeamID)
	if m.HomeTeam != nil && m.AwayTeam != nil {
		name = fmt.Sprintf("%s %s vs %s", strings.ToLower(string(m.Stage)), m.HomeTeam.Name, m.AwayTeam.Name)
	}
	return name
}

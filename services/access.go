package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// AccessService решает, может ли пользователь действовать от имени команды или турнира.
type AccessService interface {
	AuthorizeTeam(ctx context.Context, actor Actor, teamID int) error
	AuthorizeTournament(ctx context.Context, actor Actor, tournamentID int) error
	AuthorizeMatch(ctx context.Context, actor Actor, matchID int) error
}

type accessService struct {
	store repositories.Store
}

func NewAccessService(store repositories.Store) AccessService {
	return &accessService{store: store}
}

// AuthorizeTeam allows the team's manager and admins.
func (s *accessService) AuthorizeTeam(ctx context.Context, actor Actor, teamID int) error {
	team, err := s.store.Teams().GetByID(ctx, teamID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if actor.IsAdmin() {
		return nil
	}
	if team.ManagerID == nil || *team.ManagerID != actor.UserID {
		return fmt.Errorf("%w: user %d does not manage team %d", ErrForbiddenOperation, actor.UserID, teamID)
	}
	return nil
}

// AuthorizeTournament allows the tournament's organizer and admins.
func (s *accessService) AuthorizeTournament(ctx context.Context, actor Actor, tournamentID int) error {
	t, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if actor.IsAdmin() {
		return nil
	}
	if t.OrganizerID == nil || *t.OrganizerID != actor.UserID {
		return fmt.Errorf("%w: user %d does not organize tournament %d", ErrForbiddenOperation, actor.UserID, tournamentID)
	}
	return nil
}

// AuthorizeMatch checks organizer rights on the tournament the match belongs to.
func (s *accessService) AuthorizeMatch(ctx context.Context, actor Actor, matchID int) error {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return handleRepositoryError(err)
	}
	return s.AuthorizeTournament(ctx, actor, m.TournamentID)
}

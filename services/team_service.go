package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"go.uber.org/zap"
)

// RegistrationDispatcher queues an asynchronous registration check for a team.
type RegistrationDispatcher interface {
	DispatchRegistrationCheck(teamID int)
}

type RegisterTeamInput struct {
	Name        string `json:"name"`
	Strength    int    `json:"strength"`
	PlayerCount int    `json:"player_count"`
}

type TeamService interface {
	Register(ctx context.Context, managerID, tournamentID int, input RegisterTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, teamID int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	AddPlayer(ctx context.Context, teamID int) (*models.Team, error)
	RemovePlayer(ctx context.Context, teamID int) (*models.Team, error)
	// ValidateRegistration re-derives RegistrationComplete from the player count.
	ValidateRegistration(ctx context.Context, teamID int) (*models.Team, error)
	// ValidateOpenRegistrations checks every team of tournaments still in registration.
	ValidateOpenRegistrations(ctx context.Context) (int, error)
	SetDispatcher(dispatcher RegistrationDispatcher)
}

type teamService struct {
	store      repositories.Store
	dispatcher RegistrationDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewTeamService(store repositories.Store, logger *zap.Logger) TeamService {
	return &teamService{
		store:  store,
		logger: logger.Named("teams"),
		now:    time.Now,
	}
}

// SetDispatcher is called once at startup, after the scheduler that needs this service exists.
func (s *teamService) SetDispatcher(dispatcher RegistrationDispatcher) {
	s.dispatcher = dispatcher
}

func (s *teamService) Register(ctx context.Context, managerID, tournamentID int, input RegisterTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	if input.Strength < 0 || input.Strength > models.MaxStrength {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrInvalidStrength, input.Strength, models.MaxStrength)
	}
	if input.PlayerCount < 0 || input.PlayerCount > models.MaxPlayersPerTeam {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrPlayerLimit, input.PlayerCount, models.MaxPlayersPerTeam)
	}

	team := &models.Team{
		Slug:                 newSlug(slugKindTeam, name, s.now()),
		TournamentID:         tournamentID,
		Name:                 name,
		ManagerID:            &managerID,
		Strength:             input.Strength,
		PlayerCount:          input.PlayerCount,
		RegistrationComplete: models.EligiblePlayerCount(input.PlayerCount),
	}

	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		t, err := tx.Tournaments().GetForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if t.Status != models.StatusRegistration {
			return fmt.Errorf("%w: tournament %d is %s", ErrRegistrationNotOpen, t.ID, t.Status)
		}
		return handleRepositoryError(tx.Teams().Create(ctx, team))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team registered",
		zap.Int("team_id", team.ID), zap.Int("tournament_id", tournamentID), zap.Int("players", team.PlayerCount))
	s.dispatch(team.ID)
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.store.Teams().GetByID(ctx, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return team, nil
}

func (s *teamService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	teams, err := s.store.Teams().ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", tournamentID, err)
	}
	return teams, nil
}

func (s *teamService) AddPlayer(ctx context.Context, teamID int) (*models.Team, error) {
	return s.changePlayerCount(ctx, teamID, 1)
}

func (s *teamService) RemovePlayer(ctx context.Context, teamID int) (*models.Team, error) {
	return s.changePlayerCount(ctx, teamID, -1)
}

func (s *teamService) changePlayerCount(ctx context.Context, teamID int, delta int) (*models.Team, error) {
	var team *models.Team
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		current, err := tx.Teams().GetByID(ctx, teamID)
		if err != nil {
			return handleRepositoryError(err)
		}
		t, err := tx.Tournaments().GetForUpdate(ctx, current.TournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if t.Status != models.StatusRegistration {
			return fmt.Errorf("%w: tournament %d is %s", ErrRegistrationNotOpen, t.ID, t.Status)
		}

		next := current.PlayerCount + delta
		if next < 0 {
			return fmt.Errorf("%w: team %d has no players", ErrPlayerLimit, teamID)
		}
		if next > models.MaxPlayersPerTeam {
			return fmt.Errorf("%w: team %d already has %d players", ErrPlayerLimit, teamID, models.MaxPlayersPerTeam)
		}
		current.PlayerCount = next
		current.RegistrationComplete = models.EligiblePlayerCount(next)
		if err := tx.Teams().Update(ctx, current); err != nil {
			return handleRepositoryError(err)
		}
		team = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(team.ID)
	return team, nil
}

func (s *teamService) ValidateRegistration(ctx context.Context, teamID int) (*models.Team, error) {
	var team *models.Team
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		current, err := tx.Teams().GetByID(ctx, teamID)
		if err != nil {
			return handleRepositoryError(err)
		}
		team = current

		complete := models.EligiblePlayerCount(current.PlayerCount)
		if complete == current.RegistrationComplete {
			return nil
		}
		current.RegistrationComplete = complete
		s.logger.Info("registration status corrected",
			zap.Int("team_id", teamID), zap.Int("players", current.PlayerCount), zap.Bool("complete", complete))
		return handleRepositoryError(tx.Teams().Update(ctx, current))
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) ValidateOpenRegistrations(ctx context.Context) (int, error) {
	status := models.StatusRegistration
	tournaments, err := s.store.Tournaments().List(ctx, repositories.ListTournamentsFilter{Status: &status})
	if err != nil {
		return 0, fmt.Errorf("failed to list open tournaments: %w", err)
	}

	checked := 0
	for _, t := range tournaments {
		teams, err := s.store.Teams().ListByTournament(ctx, t.ID, false)
		if err != nil {
			return checked, fmt.Errorf("failed to list teams of tournament %d: %w", t.ID, err)
		}
		for _, team := range teams {
			if _, err := s.ValidateRegistration(ctx, team.ID); err != nil {
				return checked, err
			}
			checked++
		}
	}
	return checked, nil
}

func (s *teamService) dispatch(teamID int) {
	if s.dispatcher != nil {
		s.dispatcher.DispatchRegistrationCheck(teamID)
	}
}

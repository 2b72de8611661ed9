package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/standings"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name           string    `json:"name"`
	StartDate      time.Time `json:"start_date"`
	NumberOfGroups int       `json:"number_of_groups"`
	TeamsPerGroup  int       `json:"teams_per_group"`
}

type ListTournamentsInput struct {
	OrganizerID *int
	Status      *models.TournamentStatus
	Limit       int
	Offset      int
}

// GroupView is one group with its current table.
type GroupView struct {
	Label     string            `json:"label"`
	Teams     []*models.Team    `json:"teams"`
	Standings []models.Standing `json:"standings"`
	Matches   []*models.Match   `json:"matches"`
	Complete  bool              `json:"complete"`
}

type BracketRound struct {
	Stage   models.MatchStage `json:"stage"`
	Matches []*models.Match   `json:"matches"`
}

// TournamentOverview is the tournament page: details, groups, bracket and overall table.
type TournamentOverview struct {
	Tournament *models.Tournament `json:"tournament"`
	Groups     []GroupView        `json:"groups"`
	Bracket    []BracketRound     `json:"bracket"`
	Standings  []models.Standing  `json:"standings"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, tournamentID int) (*models.Tournament, error)
	List(ctx context.Context, input ListTournamentsInput) ([]*models.Tournament, error)
	GroupInfo(ctx context.Context, tournamentID int) ([]GroupView, error)
	Standings(ctx context.Context, tournamentID int) ([]models.Standing, error)
	Bracket(ctx context.Context, tournamentID int) ([]BracketRound, error)
	Overview(ctx context.Context, tournamentID int) (*TournamentOverview, error)
}

type tournamentService struct {
	store  repositories.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewTournamentService(store repositories.Store, logger *zap.Logger) TournamentService {
	return &tournamentService{store: store, logger: logger.Named("tournaments"), now: time.Now}
}

func validateGroupLayout(groups, perGroup int) error {
	if groups < 1 || perGroup < standings.QualifiersPerGroup {
		return fmt.Errorf("%w: %d groups of %d", ErrInvalidGroupLayout, groups, perGroup)
	}
	if groups*perGroup < 2 {
		return fmt.Errorf("%w: at least 2 teams are required", ErrInvalidGroupLayout)
	}
	// Первый раунд плей-офф состоит из 2N команд.
	if _, err := brackets.StageForTeamCount(groups * standings.QualifiersPerGroup); err != nil {
		return fmt.Errorf("%w: %d groups cannot seed a knockout bracket", ErrInvalidGroupLayout, groups)
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrValidationFailed)
	}
	if input.NumberOfGroups == 0 {
		input.NumberOfGroups = models.DefaultNumberOfGroups
	}
	if input.TeamsPerGroup == 0 {
		input.TeamsPerGroup = models.DefaultTeamsPerGroup
	}
	if err := validateGroupLayout(input.NumberOfGroups, input.TeamsPerGroup); err != nil {
		return nil, err
	}

	t := &models.Tournament{
		Slug:           newSlug(slugKindTournament, name, s.now()),
		Name:           name,
		OrganizerID:    &organizerID,
		StartDate:      input.StartDate.UTC(),
		NumberOfGroups: input.NumberOfGroups,
		TeamsPerGroup:  input.TeamsPerGroup,
		IsActive:       true,
		Status:         models.StatusRegistration,
	}
	if err := s.store.Tournaments().Create(ctx, t); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.Info("tournament created",
		zap.Int("tournament_id", t.ID), zap.String("slug", t.Slug),
		zap.Int("groups", t.NumberOfGroups), zap.Int("teams_per_group", t.TeamsPerGroup))
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, input ListTournamentsInput) ([]*models.Tournament, error) {
	tournaments, err := s.store.Tournaments().List(ctx, repositories.ListTournamentsFilter{
		OrganizerID: input.OrganizerID,
		Status:      input.Status,
		Limit:       input.Limit,
		Offset:      input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// load fetches the tournament, its teams and its matches in parallel.
func (s *tournamentService) load(ctx context.Context, tournamentID int) (*models.Tournament, []*models.Team, []*models.Match, error) {
	var (
		t       *models.Tournament
		teams   []*models.Team
		matches []*models.Match
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.store.Tournaments().GetByID(gctx, tournamentID)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		teams, err = s.store.Teams().ListByTournament(gctx, tournamentID, false)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.store.Matches().ListByTournament(gctx, tournamentID, repositories.ListMatchesFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return t, teams, matches, nil
}

func (s *tournamentService) GroupInfo(ctx context.Context, tournamentID int) ([]GroupView, error) {
	_, teams, matches, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return buildGroupViews(teams, matches), nil
}

func (s *tournamentService) Standings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	_, teams, matches, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return standings.Overall(teams, matches), nil
}

func (s *tournamentService) Bracket(ctx context.Context, tournamentID int) ([]BracketRound, error) {
	_, _, matches, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return buildBracket(matches), nil
}

func (s *tournamentService) Overview(ctx context.Context, tournamentID int) (*TournamentOverview, error) {
	t, teams, matches, err := s.load(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	t.Teams = teams
	return &TournamentOverview{
		Tournament: t,
		Groups:     buildGroupViews(teams, matches),
		Bracket:    buildBracket(matches),
		Standings:  standings.Overall(teams, matches),
	}, nil
}

func buildGroupViews(teams []*models.Team, matches []*models.Match) []GroupView {
	groups := standings.ReconstructGroups(teams, matches)
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		groupMatches := make([]*models.Match, 0)
		for _, m := range matches {
			if m.Stage == models.StageGroup && m.GroupLabel != nil && *m.GroupLabel == g.Label {
				groupMatches = append(groupMatches, m)
			}
		}
		confirmed, required := standings.Complete(g.Teams, groupMatches)
		views = append(views, GroupView{
			Label:     g.Label,
			Teams:     g.Teams,
			Standings: standings.Compute(g.Label, g.Teams, groupMatches),
			Matches:   groupMatches,
			Complete:  confirmed == required,
		})
	}
	return views
}

// buildBracket groups knockout matches by stage in playing order.
func buildBracket(matches []*models.Match) []BracketRound {
	byStage := make(map[models.MatchStage][]*models.Match)
	for _, m := range matches {
		if m.Stage.IsKnockout() {
			byStage[m.Stage] = append(byStage[m.Stage], m)
		}
	}

	rounds := make([]BracketRound, 0, len(byStage))
	for _, stage := range models.KnockoutStages {
		round, ok := byStage[stage]
		if !ok {
			continue
		}
		sort.Slice(round, func(i, j int) bool { return round[i].BracketSlot < round[j].BracketSlot })
		rounds = append(rounds, BracketRound{Stage: stage, Matches: round})
	}
	return rounds
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/locks"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/standings"
	"go.uber.org/zap"
)

// KnockoutRestDays separates the last match of a stage from the next knockout round.
const KnockoutRestDays = 3

// ProgressionOutcome describes what a progression call did.
// Advanced is false for no-op calls.
type ProgressionOutcome struct {
	TournamentID   int                     `json:"tournament_id"`
	From           models.TournamentStatus `json:"from"`
	To             models.TournamentStatus `json:"to"`
	Stage          models.MatchStage       `json:"stage,omitempty"`
	Matches        []*models.Match         `json:"matches,omitempty"`
	ChampionTeamID *int                    `json:"champion_team_id,omitempty"`
	Advanced       bool                    `json:"advanced"`
}

type ProgressionController interface {
	// StartGroupStage seeds registration-complete teams into groups and schedules the group fixtures.
	StartGroupStage(ctx context.Context, tournamentID int) (*ProgressionOutcome, error)
	// Advance moves the tournament forward if its current stage is finished. Safe to repeat.
	Advance(ctx context.Context, tournamentID int) (*ProgressionOutcome, error)
}

type progressionController struct {
	store             repositories.Store
	locker            locks.Locker
	notifier          Notifier
	groupGenerator    brackets.FixtureGenerator
	knockoutGenerator brackets.FixtureGenerator
	logger            *zap.Logger
	now               func() time.Time
}

func NewProgressionController(
	store repositories.Store,
	locker locks.Locker,
	notifier Notifier,
	logger *zap.Logger,
) ProgressionController {
	return &progressionController{
		store:             store,
		locker:            locker,
		notifier:          notifier,
		groupGenerator:    brackets.NewRoundRobinGenerator(),
		knockoutGenerator: brackets.NewSingleEliminationGenerator(),
		logger:            logger.Named("progression"),
		now:               time.Now,
	}
}

func (c *progressionController) StartGroupStage(ctx context.Context, tournamentID int) (*ProgressionOutcome, error) {
	unlock, err := c.locker.Lock(ctx, locks.TournamentKey(tournamentID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var outcome *ProgressionOutcome
	err = c.store.WithinTx(ctx, func(tx repositories.Store) error {
		t, err := tx.Tournaments().GetForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if t.Status != models.StatusRegistration {
			return fmt.Errorf("%w: tournament %d is %s", ErrInvalidTournamentState, t.ID, t.Status)
		}

		teams, err := tx.Teams().ListByTournament(ctx, t.ID, true)
		if err != nil {
			return fmt.Errorf("failed to list registered teams: %w", err)
		}
		groups, err := brackets.PartitionGroups(teams, t.NumberOfGroups, t.TeamsPerGroup)
		if err != nil {
			return err
		}

		created := make([]*models.Match, 0, t.NumberOfGroups*t.GroupMatchCount())
		for i := range groups {
			fixtures, err := c.groupGenerator.Generate(ctx, brackets.GenerateParams{
				Tournament: t,
				Group:      &groups[i],
				Start:      t.StartDate,
				Offset:     len(created),
			})
			if err != nil {
				return fmt.Errorf("group %s fixtures: %w", groups[i].Label, err)
			}
			created = append(created, fixtures...)
		}

		if err := c.persistMatches(ctx, tx, created); err != nil {
			return err
		}
		if err := c.transition(ctx, tx, t, models.StatusGroupStage); err != nil {
			return err
		}

		outcome = &ProgressionOutcome{
			TournamentID: t.ID,
			From:         models.StatusRegistration,
			To:           models.StatusGroupStage,
			Stage:        models.StageGroup,
			Matches:      created,
			Advanced:     true,
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("group stage start failed", zap.Int("tournament_id", tournamentID), zap.Error(err))
		return nil, &StageProgressionError{TournamentID: tournamentID, Stage: models.StatusRegistration, Err: err}
	}

	c.logger.Info("group stage started",
		zap.Int("tournament_id", tournamentID), zap.Int("matches_created", len(outcome.Matches)))
	c.notifier.NotifyStageAdvanced(ctx, outcome)
	return outcome, nil
}

func (c *progressionController) Advance(ctx context.Context, tournamentID int) (*ProgressionOutcome, error) {
	unlock, err := c.locker.Lock(ctx, locks.TournamentKey(tournamentID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		outcome *ProgressionOutcome
		stage   models.TournamentStatus
	)
	err = c.store.WithinTx(ctx, func(tx repositories.Store) error {
		t, err := tx.Tournaments().GetForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		stage = t.Status

		switch t.Status {
		case models.StatusGroupStage:
			outcome, err = c.advanceGroupStage(ctx, tx, t)
		case models.StatusKnockout:
			outcome, err = c.advanceKnockout(ctx, tx, t)
		default:
			outcome = noProgress(t)
		}
		return err
	})
	if err != nil {
		c.logger.Error("tournament progression failed",
			zap.Int("tournament_id", tournamentID), zap.String("status", string(stage)), zap.Error(err))
		return nil, &StageProgressionError{TournamentID: tournamentID, Stage: stage, Err: err}
	}

	if outcome.Advanced {
		c.logger.Info("tournament advanced",
			zap.Int("tournament_id", tournamentID),
			zap.String("from", string(outcome.From)),
			zap.String("to", string(outcome.To)),
			zap.String("stage", string(outcome.Stage)),
			zap.Int("matches_created", len(outcome.Matches)))
		c.notifier.NotifyStageAdvanced(ctx, outcome)
	}
	return outcome, nil
}

func noProgress(t *models.Tournament) *ProgressionOutcome {
	return &ProgressionOutcome{TournamentID: t.ID, From: t.Status, To: t.Status}
}

func (c *progressionController) advanceGroupStage(ctx context.Context, tx repositories.Store, t *models.Tournament) (*ProgressionOutcome, error) {
	groupStage := models.StageGroup
	matches, err := tx.Matches().ListByTournament(ctx, t.ID, repositories.ListMatchesFilter{Stage: &groupStage})
	if err != nil {
		return nil, fmt.Errorf("failed to list group matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, errors.New("group stage has no matches")
	}
	if !allConfirmed(matches) {
		return noProgress(t), nil
	}

	teams, err := tx.Teams().ListByTournament(ctx, t.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	groups := standings.ReconstructGroups(teams, matches)
	qualifiers := make([][]*models.Team, 0, len(groups))
	for _, g := range groups {
		top, err := standings.Qualify(g.Label, g.Teams, matches)
		if err != nil {
			return nil, err
		}
		qualifiers = append(qualifiers, top)
	}

	seeded, err := brackets.SeedQualifiers(qualifiers)
	if err != nil {
		return nil, err
	}

	created, err := c.knockoutGenerator.Generate(ctx, brackets.GenerateParams{
		Tournament: t,
		Teams:      seeded,
		Start:      nextRoundStart(matches),
	})
	if err != nil {
		return nil, err
	}
	if err := c.persistMatches(ctx, tx, created); err != nil {
		return nil, err
	}
	if err := c.transition(ctx, tx, t, models.StatusKnockout); err != nil {
		return nil, err
	}

	return &ProgressionOutcome{
		TournamentID: t.ID,
		From:         models.StatusGroupStage,
		To:           models.StatusKnockout,
		Stage:        created[0].Stage,
		Matches:      created,
		Advanced:     true,
	}, nil
}

func (c *progressionController) advanceKnockout(ctx context.Context, tx repositories.Store, t *models.Tournament) (*ProgressionOutcome, error) {
	all, err := tx.Matches().ListByTournament(ctx, t.ID, repositories.ListMatchesFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	current := latestKnockoutRound(all)
	if len(current) == 0 {
		return nil, errors.New("knockout stage has no matches")
	}
	if !allConfirmed(current) {
		return noProgress(t), nil
	}
	stage := current[0].Stage

	if stage == models.StageFinal {
		championID, ok := current[0].Winner()
		if !ok {
			return nil, fmt.Errorf("%w: final match %d", ErrKnockoutDrawUnresolved, current[0].ID)
		}
		if err := tx.Tournaments().SetChampion(ctx, t.ID, championID); err != nil {
			return nil, handleRepositoryError(err)
		}
		if err := c.transition(ctx, tx, t, models.StatusCompleted); err != nil {
			return nil, err
		}
		return &ProgressionOutcome{
			TournamentID:   t.ID,
			From:           models.StatusKnockout,
			To:             models.StatusCompleted,
			Stage:          stage,
			ChampionTeamID: &championID,
			Advanced:       true,
		}, nil
	}

	teams, err := tx.Teams().ListByTournament(ctx, t.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	byID := make(map[int]*models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	winners := make([]*models.Team, 0, len(current))
	for _, m := range current {
		winnerID, ok := m.Winner()
		if !ok {
			return nil, fmt.Errorf("%w: match %d", ErrKnockoutDrawUnresolved, m.ID)
		}
		winner, found := byID[winnerID]
		if !found {
			return nil, fmt.Errorf("%w: winner %d of match %d", ErrTeamNotFound, winnerID, m.ID)
		}
		winners = append(winners, winner)
	}

	created, err := c.knockoutGenerator.Generate(ctx, brackets.GenerateParams{
		Tournament: t,
		Teams:      winners,
		Start:      nextRoundStart(current),
	})
	if err != nil {
		return nil, err
	}
	if err := c.persistMatches(ctx, tx, created); err != nil {
		return nil, err
	}

	return &ProgressionOutcome{
		TournamentID: t.ID,
		From:         models.StatusKnockout,
		To:           models.StatusKnockout,
		Stage:        created[0].Stage,
		Matches:      created,
		Advanced:     true,
	}, nil
}

func (c *progressionController) persistMatches(ctx context.Context, tx repositories.Store, matches []*models.Match) error {
	now := c.now()
	for _, m := range matches {
		m.Slug = newSlug(slugKindMatch, matchSlugName(m), now)
		if err := tx.Matches().Create(ctx, m); err != nil {
			return fmt.Errorf("failed to save %s match %d vs %d: %w", m.Stage, m.HomeTeamID, m.AwayTeamID, handleRepositoryError(err))
		}
	}
	return nil
}

func (c *progressionController) transition(ctx context.Context, tx repositories.Store, t *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(t.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, next)
	}
	if err := tx.Tournaments().UpdateStatus(ctx, t.ID, next); err != nil {
		return handleRepositoryError(err)
	}
	t.Status = next
	return nil
}

func allConfirmed(matches []*models.Match) bool {
	for _, m := range matches {
		if m.Status != models.MatchConfirmed {
			return false
		}
	}
	return true
}

// latestKnockoutRound returns the matches of the most advanced knockout stage in bracket-slot order.
func latestKnockoutRound(matches []*models.Match) []*models.Match {
	var latest models.MatchStage
	for _, m := range matches {
		if m.Stage.IsKnockout() && m.Stage.Order() > latest.Order() {
			latest = m.Stage
		}
	}
	if latest == "" {
		return nil
	}

	round := make([]*models.Match, 0)
	for _, m := range matches {
		if m.Stage == latest {
			round = append(round, m)
		}
	}
	sort.Slice(round, func(i, j int) bool { return round[i].BracketSlot < round[j].BracketSlot })
	return round
}

func nextRoundStart(matches []*models.Match) time.Time {
	var latest time.Time
	for _, m := range matches {
		if m.MatchDate.After(latest) {
			latest = m.MatchDate
		}
	}
	return latest.AddDate(0, 0, KnockoutRestDays)
}

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/locks"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"go.uber.org/zap"
)

var testStart = time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)

type pendingCall struct {
	matchID        int
	awaitingTeamID int
}

type recordingNotifier struct {
	mu        sync.Mutex
	pending   []pendingCall
	confirmed []int
	disputed  []int
	advanced  []*ProgressionOutcome
}

func (n *recordingNotifier) NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, pendingCall{matchID: match.ID, awaitingTeamID: awaitingTeamID})
}

func (n *recordingNotifier) NotifyMatchConfirmed(ctx context.Context, match *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, match.ID)
}

func (n *recordingNotifier) NotifyMatchDisputed(ctx context.Context, match *models.Match) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disputed = append(n.disputed, match.ID)
}

func (n *recordingNotifier) NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.advanced = append(n.advanced, outcome)
}

func (n *recordingNotifier) advancedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.advanced)
}

type stubVerifier struct {
	ok    bool
	err   error
	calls int
}

func (v *stubVerifier) Verify(ctx context.Context, report models.ScoreReport, evidenceKey string) (bool, error) {
	v.calls++
	return v.ok, v.err
}

type testEngine struct {
	store       *repositories.MemoryStore
	notifier    *recordingNotifier
	progression ProgressionController
	results     ResultService
	teams       TeamService
	tournaments TournamentService

	organizer *models.User
	manager   *models.User
}

func newTestEngine(t *testing.T, verifier Verifier) *testEngine {
	t.Helper()
	store := repositories.NewMemoryStore()
	notifier := &recordingNotifier{}
	locker := locks.NewLocalLocker()
	logger := zap.NewNop()
	progression := NewProgressionController(store, locker, notifier, logger)

	e := &testEngine{
		store:       store,
		notifier:    notifier,
		progression: progression,
		results:     NewResultService(store, locker, progression, notifier, verifier, nil, logger),
		teams:       NewTeamService(store, logger),
		tournaments: NewTournamentService(store, logger),
	}
	e.organizer = e.createUser(t, "organizer@example.com", models.RoleOrganizer)
	e.manager = e.createUser(t, "manager@example.com", models.RoleManager)
	return e
}

func (e *testEngine) createUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Nickname: email, Email: email, PasswordHash: "hash", Role: role}
	if err := e.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// newTournament creates a tournament and registers groups*perGroup complete teams.
// Team i has strength i+1.
func (e *testEngine) newTournament(t *testing.T, groups, perGroup int) (*models.Tournament, []*models.Team) {
	t.Helper()
	ctx := context.Background()

	tournament, err := e.tournaments.Create(ctx, e.organizer.ID, CreateTournamentInput{
		Name:           fmt.Sprintf("Cup %dx%d", groups, perGroup),
		StartDate:      testStart,
		NumberOfGroups: groups,
		TeamsPerGroup:  perGroup,
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}

	teams := make([]*models.Team, 0, groups*perGroup)
	for i := 0; i < groups*perGroup; i++ {
		team, err := e.teams.Register(ctx, e.manager.ID, tournament.ID, RegisterTeamInput{
			Name:        fmt.Sprintf("Team %02d", i+1),
			Strength:    i + 1,
			PlayerCount: models.MinPlayersForRegistration,
		})
		if err != nil {
			t.Fatalf("register team %d: %v", i+1, err)
		}
		teams = append(teams, team)
	}
	return tournament, teams
}

// startedTournament returns a tournament in GROUP_STAGE with its group matches.
func (e *testEngine) startedTournament(t *testing.T, groups, perGroup int) (*models.Tournament, []*models.Match) {
	t.Helper()
	tournament, _ := e.newTournament(t, groups, perGroup)
	outcome, err := e.progression.StartGroupStage(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("start group stage: %v", err)
	}
	return tournament, outcome.Matches
}

func (e *testEngine) submit(m *models.Match, teamID, score, opponentScore int) (*models.Match, error) {
	return e.results.Submit(context.Background(), SubmitResultInput{
		MatchID:       m.ID,
		TeamID:        teamID,
		Score:         score,
		OpponentScore: opponentScore,
	})
}

// confirm has both sides report the same home/away score.
func (e *testEngine) confirm(t *testing.T, m *models.Match, homeScore, awayScore int) *models.Match {
	t.Helper()
	if _, err := e.submit(m, m.HomeTeamID, homeScore, awayScore); err != nil {
		t.Fatalf("home submission for match %d: %v", m.ID, err)
	}
	confirmed, err := e.submit(m, m.AwayTeamID, awayScore, homeScore)
	if err != nil {
		t.Fatalf("away submission for match %d: %v", m.ID, err)
	}
	if confirmed.Status != models.MatchConfirmed {
		t.Fatalf("match %d status = %s, want %s", m.ID, confirmed.Status, models.MatchConfirmed)
	}
	return confirmed
}

func (e *testEngine) dispute(t *testing.T, m *models.Match) *models.Match {
	t.Helper()
	if _, err := e.submit(m, m.HomeTeamID, 2, 1); err != nil {
		t.Fatalf("home submission: %v", err)
	}
	disputed, err := e.submit(m, m.AwayTeamID, 1, 1)
	if err != nil {
		t.Fatalf("away submission: %v", err)
	}
	if disputed.Status != models.MatchDisputed {
		t.Fatalf("match %d status = %s, want %s", m.ID, disputed.Status, models.MatchDisputed)
	}
	return disputed
}

func (e *testEngine) tournament(t *testing.T, id int) *models.Tournament {
	t.Helper()
	tournament, err := e.store.Tournaments().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get tournament %d: %v", id, err)
	}
	return tournament
}

func (e *testEngine) match(t *testing.T, id int) *models.Match {
	t.Helper()
	m, err := e.store.Matches().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get match %d: %v", id, err)
	}
	return m
}

func (e *testEngine) stageMatches(t *testing.T, tournamentID int, stage models.MatchStage) []*models.Match {
	t.Helper()
	matches, err := e.store.Matches().ListByTournament(context.Background(), tournamentID, repositories.ListMatchesFilter{Stage: &stage})
	if err != nil {
		t.Fatalf("list %s matches: %v", stage, err)
	}
	return matches
}

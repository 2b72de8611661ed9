package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

func TestFullTournamentOf32Teams(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	tournament, teams := e.newTournament(t, 8, 4)

	byID := make(map[int]*models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	started, err := e.progression.StartGroupStage(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("StartGroupStage: %v", err)
	}
	if len(started.Matches) != 48 {
		t.Fatalf("group matches = %d, want 48", len(started.Matches))
	}
	if got := e.tournament(t, tournament.ID).Status; got != models.StatusGroupStage {
		t.Fatalf("status = %s, want %s", got, models.StatusGroupStage)
	}

	// Хозяева всегда выигрывают: первые две команды каждой группы выходят дальше.
	for _, m := range started.Matches {
		e.confirm(t, m, 2, 1)
	}

	if got := e.tournament(t, tournament.ID).Status; got != models.StatusKnockout {
		t.Fatalf("status after groups = %s, want %s", got, models.StatusKnockout)
	}
	ro16 := e.stageMatches(t, tournament.ID, models.StageRO16)
	if len(ro16) != 8 {
		t.Fatalf("RO16 matches = %d, want 8", len(ro16))
	}

	qualified := make(map[int]bool)
	for _, m := range ro16 {
		qualified[m.HomeTeamID] = true
		qualified[m.AwayTeamID] = true
	}
	if len(qualified) != 16 {
		t.Fatalf("distinct qualifiers = %d, want 16", len(qualified))
	}
	for id := range qualified {
		if byID[id].Strength < 17 {
			t.Errorf("team %s (strength %d) should not have qualified", byID[id].Name, byID[id].Strength)
		}
	}

	// Победитель группы A встречается со вторым местом группы B.
	if home, away := byID[ro16[0].HomeTeamID].Strength, byID[ro16[0].AwayTeamID].Strength; home != 32 || away != 18 {
		t.Errorf("first RO16 pairing = %d vs %d, want 32 vs 18", home, away)
	}
	if want := testStart.AddDate(0, 0, 47+KnockoutRestDays); !ro16[0].MatchDate.Equal(want) {
		t.Errorf("first RO16 date = %s, want %s", ro16[0].MatchDate, want)
	}

	rounds := []struct {
		played models.MatchStage
		next   models.MatchStage
		want   int
	}{
		{models.StageRO16, models.StageQuarter, 4},
		{models.StageQuarter, models.StageSemi, 2},
		{models.StageSemi, models.StageFinal, 1},
	}
	for _, round := range rounds {
		for _, m := range e.stageMatches(t, tournament.ID, round.played) {
			e.confirm(t, m, 1, 0)
		}
		next := e.stageMatches(t, tournament.ID, round.next)
		if len(next) != round.want {
			t.Fatalf("%s matches = %d, want %d", round.next, len(next), round.want)
		}
	}

	quarter := e.stageMatches(t, tournament.ID, models.StageQuarter)
	if want := testStart.AddDate(0, 0, 57+KnockoutRestDays); !quarter[0].MatchDate.Equal(want) {
		t.Errorf("first quarter-final date = %s, want %s", quarter[0].MatchDate, want)
	}

	final := e.stageMatches(t, tournament.ID, models.StageFinal)[0]
	e.confirm(t, final, 1, 0)

	done := e.tournament(t, tournament.ID)
	if done.Status != models.StatusCompleted {
		t.Fatalf("final status = %s, want %s", done.Status, models.StatusCompleted)
	}
	if done.ChampionTeamID == nil || byID[*done.ChampionTeamID].Strength != 32 {
		t.Errorf("champion = %v, want the strength 32 team", done.ChampionTeamID)
	}
	if got := e.notifier.advancedCount(); got != 6 {
		t.Errorf("stage notifications = %d, want 6", got)
	}
}

func TestAdvanceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	tournament, groupMatches := e.startedTournament(t, 2, 2)

	for _, m := range groupMatches {
		e.confirm(t, m, 3, 0)
	}
	if got := len(e.stageMatches(t, tournament.ID, models.StageSemi)); got != 2 {
		t.Fatalf("semi-finals = %d, want 2", got)
	}

	for i := 0; i < 3; i++ {
		outcome, err := e.progression.Advance(ctx, tournament.ID)
		if err != nil {
			t.Fatalf("repeated Advance: %v", err)
		}
		if outcome.Advanced {
			t.Errorf("repeated Advance %d reported progress", i)
		}
	}
	if got := len(e.stageMatches(t, tournament.ID, models.StageSemi)); got != 2 {
		t.Errorf("semi-finals after retries = %d, want 2", got)
	}

	_, err := e.progression.StartGroupStage(ctx, tournament.ID)
	if !errors.Is(err, ErrInvalidTournamentState) {
		t.Errorf("second StartGroupStage error = %v, want %v", err, ErrInvalidTournamentState)
	}
}

func TestAdvanceWaitsForAllGroupMatches(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	tournament, groupMatches := e.startedTournament(t, 2, 2)

	e.confirm(t, groupMatches[0], 1, 0)

	outcome, err := e.progression.Advance(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if outcome.Advanced || outcome.To != models.StatusGroupStage {
		t.Errorf("outcome = %+v, want no progress in group stage", outcome)
	}
	if got := e.tournament(t, tournament.ID).Status; got != models.StatusGroupStage {
		t.Errorf("status = %s, want %s", got, models.StatusGroupStage)
	}
}

func TestAdvanceIgnoresRegistrationAndCompleted(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	tournament, _ := e.newTournament(t, 1, 2)

	outcome, err := e.progression.Advance(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("Advance in registration: %v", err)
	}
	if outcome.Advanced {
		t.Errorf("registration Advance reported progress")
	}

	started, err := e.progression.StartGroupStage(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("StartGroupStage: %v", err)
	}
	e.confirm(t, started.Matches[0], 2, 0)
	e.confirm(t, e.stageMatches(t, tournament.ID, models.StageFinal)[0], 2, 0)

	outcome, err = e.progression.Advance(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("Advance when completed: %v", err)
	}
	if outcome.Advanced || outcome.To != models.StatusCompleted {
		t.Errorf("outcome = %+v, want no progress after completion", outcome)
	}
}

func TestStartGroupStageNeedsExactTeamCount(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	tournament, teams := e.newTournament(t, 2, 2)

	if _, err := e.teams.RemovePlayer(ctx, teams[0].ID); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}

	_, err := e.progression.StartGroupStage(ctx, tournament.ID)
	if !errors.Is(err, brackets.ErrInsufficientTeams) {
		t.Fatalf("error = %v, want %v", err, brackets.ErrInsufficientTeams)
	}
	var progressionErr *StageProgressionError
	if !errors.As(err, &progressionErr) {
		t.Fatalf("error %T is not a *StageProgressionError", err)
	}
	if progressionErr.TournamentID != tournament.ID || progressionErr.Stage != models.StatusRegistration {
		t.Errorf("progression error = %+v", progressionErr)
	}

	if got := e.tournament(t, tournament.ID).Status; got != models.StatusRegistration {
		t.Errorf("status = %s, want %s", got, models.StatusRegistration)
	}
	if got := len(e.stageMatches(t, tournament.ID, models.StageGroup)); got != 0 {
		t.Errorf("group matches after failed start = %d, want 0", got)
	}
}

func TestFinalIsDatedAfterRestDays(t *testing.T) {
	e := newTestEngine(t, nil)
	tournament, groupMatches := e.startedTournament(t, 1, 2)

	if len(groupMatches) != 1 || !groupMatches[0].MatchDate.Equal(testStart) {
		t.Fatalf("group matches = %d, first date %s", len(groupMatches), groupMatches[0].MatchDate)
	}
	e.confirm(t, groupMatches[0], 1, 0)

	finals := e.stageMatches(t, tournament.ID, models.StageFinal)
	if len(finals) != 1 {
		t.Fatalf("finals = %d, want 1", len(finals))
	}
	if want := testStart.AddDate(0, 0, KnockoutRestDays); !finals[0].MatchDate.Equal(want) {
		t.Errorf("final date = %s, want %s", finals[0].MatchDate, want)
	}
	if finals[0].HomeTeamID != groupMatches[0].HomeTeamID {
		t.Errorf("final home team = %d, want group winner %d", finals[0].HomeTeamID, groupMatches[0].HomeTeamID)
	}
}

func TestConcurrentConfirmationsAdvanceOnce(t *testing.T) {
	e := newTestEngine(t, nil)
	tournament, groupMatches := e.startedTournament(t, 2, 2)

	for _, m := range groupMatches {
		if _, err := e.submit(m, m.HomeTeamID, 1, 0); err != nil {
			t.Fatalf("home submission: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(groupMatches))
	for _, m := range groupMatches {
		wg.Add(1)
		go func(m *models.Match) {
			defer wg.Done()
			_, err := e.submit(m, m.AwayTeamID, 0, 1)
			errs <- err
		}(m)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent submission: %v", err)
		}
	}
	if got := len(e.stageMatches(t, tournament.ID, models.StageSemi)); got != 2 {
		t.Errorf("semi-finals = %d, want 2", got)
	}
	if got := e.tournament(t, tournament.ID).Status; got != models.StatusKnockout {
		t.Errorf("status = %s, want %s", got, models.StatusKnockout)
	}
}

package standings

import (
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

func confirmed(id, home, away, homeScore, awayScore int) *models.Match {
	label := "A"
	return &models.Match{
		ID:           id,
		TournamentID: 1,
		Stage:        models.StageGroup,
		GroupLabel:   &label,
		HomeTeamID:   home,
		AwayTeamID:   away,
		Status:       models.MatchConfirmed,
		HomeScore:    &homeScore,
		AwayScore:    &awayScore,
		MatchDate:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour),
	}
}

func teamsByID(ids ...int) []*models.Team {
	teams := make([]*models.Team, len(ids))
	for i, id := range ids {
		teams[i] = &models.Team{ID: id, TournamentID: 1}
	}
	return teams
}

func TestCompute_WinnerAndLoser(t *testing.T) {
	teams := teamsByID(10, 20)
	table := Compute("A", teams, []*models.Match{confirmed(1, 10, 20, 2, 1)})

	x, y := table[0], table[1]
	if x.TeamID != 10 || x.Points != 3 || x.GoalsFor != 2 || x.GoalsAgainst != 1 || x.GoalDifference != 1 {
		t.Errorf("unexpected winner row %+v", x)
	}
	if y.TeamID != 20 || y.Points != 0 || y.GoalsFor != 1 || y.GoalsAgainst != 2 || y.GoalDifference != -1 {
		t.Errorf("unexpected loser row %+v", y)
	}
	if x.Rank != 1 || y.Rank != 2 || x.Wins != 1 || y.Losses != 1 {
		t.Errorf("unexpected record: %+v / %+v", x, y)
	}
}

func TestCompute_AwayWinAndDraw(t *testing.T) {
	teams := teamsByID(1, 2, 3)
	matches := []*models.Match{
		confirmed(1, 1, 2, 0, 3),
		confirmed(2, 1, 3, 1, 1),
	}
	table := Compute("A", teams, matches)
	want := []struct{ id, points, played int }{{2, 3, 1}, {3, 1, 1}, {1, 1, 2}}
	for i, w := range want {
		if table[i].TeamID != w.id || table[i].Points != w.points || table[i].Played != w.played {
			t.Errorf("row %d = %+v, want team %d with %d points in %d games", i, table[i], w.id, w.points, w.played)
		}
	}
}

func TestCompute_IgnoresUnconfirmedAndForeignMatches(t *testing.T) {
	teams := teamsByID(1, 2)
	pending := confirmed(1, 1, 2, 5, 0)
	pending.Status = models.MatchPending
	disputed := confirmed(2, 1, 2, 5, 0)
	disputed.Status = models.MatchDisputed
	foreign := confirmed(3, 1, 99, 5, 0)

	table := Compute("A", teams, []*models.Match{pending, disputed, foreign})
	for _, row := range table {
		if row.Played != 0 || row.Points != 0 {
			t.Errorf("row %+v should be empty", row)
		}
	}
}

func TestSort_TieBreakIsDeterministic(t *testing.T) {
	teams := teamsByID(4, 3, 2, 1)
	matches := []*models.Match{
		confirmed(1, 4, 3, 1, 1),
		confirmed(2, 2, 1, 1, 1),
	}
	for run := 0; run < 5; run++ {
		table := Compute("A", teams, matches)
		for i, id := range []int{1, 2, 3, 4} {
			if table[i].TeamID != id {
				t.Fatalf("run %d: position %d holds team %d, want %d", run, i, table[i].TeamID, id)
			}
		}
	}
}

func TestSort_GoalDifferenceThenGoalsFor(t *testing.T) {
	table := []models.Standing{
		{TeamID: 1, Points: 4, GoalDifference: 1, GoalsFor: 3},
		{TeamID: 2, Points: 4, GoalDifference: 2, GoalsFor: 2},
		{TeamID: 3, Points: 4, GoalDifference: 1, GoalsFor: 5},
		{TeamID: 4, Points: 6, GoalDifference: -1, GoalsFor: 1},
	}
	Sort(table)
	for i, id := range []int{4, 2, 3, 1} {
		if table[i].TeamID != id {
			t.Errorf("position %d holds team %d, want %d", i, table[i].TeamID, id)
		}
	}
}

func TestQualify(t *testing.T) {
	teams := teamsByID(1, 2, 3)
	matches := []*models.Match{
		confirmed(1, 1, 2, 2, 0),
		confirmed(2, 1, 3, 0, 1),
	}
	if _, err := Qualify("A", teams, matches); !errors.Is(err, ErrIncompleteGroup) {
		t.Fatalf("expected ErrIncompleteGroup, got %v", err)
	}

	matches = append(matches, confirmed(3, 2, 3, 0, 4))
	qualified, err := Qualify("A", teams, matches)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qualified) != 2 || qualified[0].ID != 3 || qualified[1].ID != 1 {
		t.Fatalf("unexpected qualifiers %+v", qualified)
	}
}

func TestReconstructGroups(t *testing.T) {
	teams := teamsByID(1, 2, 3, 4)
	labelB := "B"
	b := confirmed(10, 3, 4, 0, 0)
	b.GroupLabel = &labelB
	knockout := confirmed(11, 1, 3, 1, 0)
	knockout.Stage = models.StageFinal
	knockout.GroupLabel = nil

	groups := ReconstructGroups(teams, []*models.Match{b, confirmed(1, 1, 2, 1, 0), knockout})
	if len(groups) != 2 {
		t.Fatalf("got %d groups", len(groups))
	}
	if groups[0].Label != "A" || groups[0].Teams[0].ID != 1 || groups[0].Teams[1].ID != 2 {
		t.Errorf("unexpected group A %+v", groups[0])
	}
	if groups[1].Label != "B" || len(groups[1].Teams) != 2 || groups[1].Teams[0].ID != 3 {
		t.Errorf("unexpected group B %+v", groups[1])
	}
}

func TestOverall(t *testing.T) {
	teams := teamsByID(1, 2, 3)
	final := confirmed(5, 1, 3, 0, 1)
	final.Stage = models.StageFinal
	table := Overall(teams, []*models.Match{confirmed(1, 1, 2, 3, 0), final})
	if table[0].TeamID != 1 || table[0].Played != 2 {
		t.Errorf("unexpected leader %+v", table[0])
	}
	if table[1].TeamID != 3 || table[2].TeamID != 2 {
		t.Errorf("unexpected order %+v", table)
	}
}

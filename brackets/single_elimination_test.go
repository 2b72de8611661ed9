package brackets

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
)

func TestSingleEliminationGenerator_SeedPairing(t *testing.T) {
	cases := []struct {
		size  int
		stage models.MatchStage
	}{
		{16, models.StageRO16},
		{8, models.StageQuarter},
		{4, models.StageSemi},
		{2, models.StageFinal},
	}
	for _, tc := range cases {
		teams := rankedTeams(tc.size)
		matches, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
			Tournament: &models.Tournament{ID: 1},
			Teams:      teams,
		})
		if err != nil {
			t.Fatalf("size %d: unexpected error: %v", tc.size, err)
		}
		if len(matches) != tc.size/2 {
			t.Fatalf("size %d: got %d matches", tc.size, len(matches))
		}
		for i, m := range matches {
			if m.HomeTeamID != teams[i].ID || m.AwayTeamID != teams[tc.size-1-i].ID {
				t.Errorf("size %d slot %d: %d vs %d", tc.size, i, m.HomeTeamID, m.AwayTeamID)
			}
			if m.Stage != tc.stage {
				t.Errorf("size %d: stage %s, want %s", tc.size, m.Stage, tc.stage)
			}
			if m.BracketSlot != i {
				t.Errorf("size %d: slot %d recorded as %d", tc.size, i, m.BracketSlot)
			}
			if m.Result == nil || m.Result.Confirmed() {
				t.Errorf("size %d: slot %d missing empty result", tc.size, i)
			}
		}
	}
}

func TestSingleEliminationGenerator_InvalidSizes(t *testing.T) {
	for _, size := range []int{0, 1, 3, 6, 12} {
		_, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
			Tournament: &models.Tournament{ID: 1},
			Teams:      rankedTeams(size),
		})
		if !errors.Is(err, ErrInvalidBracketSize) {
			t.Errorf("size %d: expected ErrInvalidBracketSize, got %v", size, err)
		}
	}

	_, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
		Tournament: &models.Tournament{ID: 1},
		Teams:      rankedTeams(32),
	})
	if !errors.Is(err, ErrUnsupportedStage) {
		t.Errorf("size 32: expected ErrUnsupportedStage, got %v", err)
	}
}

func TestSeedQualifiers_AvoidsGroupRematches(t *testing.T) {
	const groups = 8
	qualifiers := make([][]*models.Team, groups)
	groupOf := make(map[int]int)
	for g := 0; g < groups; g++ {
		winner := &models.Team{ID: 100 + g, TournamentID: 1}
		runnerUp := &models.Team{ID: 200 + g, TournamentID: 1}
		qualifiers[g] = []*models.Team{winner, runnerUp}
		groupOf[winner.ID] = g
		groupOf[runnerUp.ID] = g
	}

	seeded, err := SeedQualifiers(qualifiers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seeded) != 2*groups {
		t.Fatalf("got %d seeds", len(seeded))
	}

	matches, err := NewSingleEliminationGenerator().Generate(context.Background(), GenerateParams{
		Tournament: &models.Tournament{ID: 1},
		Teams:      seeded,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range matches {
		if groupOf[m.HomeTeamID] == groupOf[m.AwayTeamID] {
			t.Errorf("teams %d and %d meet again from group %d", m.HomeTeamID, m.AwayTeamID, groupOf[m.HomeTeamID])
		}
		if m.HomeTeamID >= 200 || m.AwayTeamID < 200 {
			t.Errorf("expected winner vs runner-up, got %d vs %d", m.HomeTeamID, m.AwayTeamID)
		}
	}
}

func TestSeedQualifiers_RejectsIncompleteGroup(t *testing.T) {
	_, err := SeedQualifiers([][]*models.Team{{{ID: 1}}})
	if err == nil {
		t.Fatal("expected an error for a group with one qualifier")
	}
}

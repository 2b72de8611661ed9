package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

func TestCreateTournamentLayout(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	tests := []struct {
		name           string
		input          CreateTournamentInput
		want           error
		groups, perGrp int
	}{
		{"defaults", CreateTournamentInput{Name: "Default Cup", StartDate: testStart}, nil, 2, 4},
		{"world cup", CreateTournamentInput{Name: "World", StartDate: testStart, NumberOfGroups: 8, TeamsPerGroup: 4}, nil, 8, 4},
		{"single group", CreateTournamentInput{Name: "Duel", StartDate: testStart, NumberOfGroups: 1, TeamsPerGroup: 2}, nil, 1, 2},
		{"three groups", CreateTournamentInput{Name: "Odd", StartDate: testStart, NumberOfGroups: 3, TeamsPerGroup: 4}, ErrInvalidGroupLayout, 0, 0},
		{"one team per group", CreateTournamentInput{Name: "Solo", StartDate: testStart, NumberOfGroups: 2, TeamsPerGroup: 1}, ErrInvalidGroupLayout, 0, 0},
		{"bracket too large", CreateTournamentInput{Name: "Huge", StartDate: testStart, NumberOfGroups: 16, TeamsPerGroup: 2}, ErrInvalidGroupLayout, 0, 0},
		{"negative groups", CreateTournamentInput{Name: "Broken", StartDate: testStart, NumberOfGroups: -2}, ErrInvalidGroupLayout, 0, 0},
		{"missing name", CreateTournamentInput{StartDate: testStart}, ErrTournamentNameRequired, 0, 0},
		{"missing start date", CreateTournamentInput{Name: "Someday"}, ErrValidationFailed, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.tournaments.Create(ctx, e.organizer.ID, tt.input)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if got.NumberOfGroups != tt.groups || got.TeamsPerGroup != tt.perGrp {
				t.Errorf("layout = %dx%d, want %dx%d", got.NumberOfGroups, got.TeamsPerGroup, tt.groups, tt.perGrp)
			}
			if got.Status != models.StatusRegistration {
				t.Errorf("status = %s, want %s", got.Status, models.StatusRegistration)
			}
			if !strings.Contains(got.Slug, "_tournament_") {
				t.Errorf("slug = %q", got.Slug)
			}
		})
	}
}

func TestCreateTournamentRequiresKnownOrganizer(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.tournaments.Create(context.Background(), 9999, CreateTournamentInput{Name: "Ghost", StartDate: testStart})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("error = %v, want %v", err, ErrValidationFailed)
	}
}

func TestListTournaments(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	early, err := e.tournaments.Create(ctx, e.organizer.ID, CreateTournamentInput{Name: "Early", StartDate: testStart})
	if err != nil {
		t.Fatalf("Create early: %v", err)
	}
	late, err := e.tournaments.Create(ctx, e.organizer.ID, CreateTournamentInput{Name: "Late", StartDate: testStart.Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("Create late: %v", err)
	}
	started, _ := e.startedTournament(t, 1, 2)

	all, err := e.tournaments.List(ctx, ListTournamentsInput{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("tournaments = %d, want 3", len(all))
	}
	if all[0].ID != late.ID {
		t.Errorf("first tournament = %d, want the latest start %d", all[0].ID, late.ID)
	}

	status := models.StatusRegistration
	open, err := e.tournaments.List(ctx, ListTournamentsInput{Status: &status})
	if err != nil {
		t.Fatalf("List open: %v", err)
	}
	for _, tournament := range open {
		if tournament.ID == started.ID {
			t.Errorf("started tournament %d listed as open", started.ID)
		}
	}
	if len(open) != 2 {
		t.Errorf("open tournaments = %d, want 2 (%d and %d)", len(open), early.ID, late.ID)
	}
}

func TestTournamentViews(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	tournament, groupMatches := e.startedTournament(t, 2, 2)

	groups, err := e.tournaments.GroupInfo(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("GroupInfo: %v", err)
	}
	if len(groups) != 2 || groups[0].Label != "A" || groups[1].Label != "B" {
		t.Fatalf("groups = %+v, want A and B", groups)
	}
	if groups[0].Complete {
		t.Errorf("group A complete before any result")
	}

	for _, m := range groupMatches {
		e.confirm(t, m, 2, 0)
	}

	groups, err = e.tournaments.GroupInfo(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("GroupInfo: %v", err)
	}
	for _, g := range groups {
		if !g.Complete || len(g.Matches) != 1 || len(g.Standings) != 2 {
			t.Errorf("group %s: complete %v, %d matches, %d rows", g.Label, g.Complete, len(g.Matches), len(g.Standings))
		}
		if g.Standings[0].Points != 3 || g.Standings[0].Rank != 1 {
			t.Errorf("group %s leader = %+v", g.Label, g.Standings[0])
		}
	}

	overall, err := e.tournaments.Standings(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	if len(overall) != 4 || overall[0].Points != 3 {
		t.Errorf("overall standings = %+v", overall)
	}

	bracket, err := e.tournaments.Bracket(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("Bracket: %v", err)
	}
	if len(bracket) != 1 || bracket[0].Stage != models.StageSemi || len(bracket[0].Matches) != 2 {
		t.Fatalf("bracket = %+v, want one SEMI round of 2", bracket)
	}
	if bracket[0].Matches[0].BracketSlot != 0 || bracket[0].Matches[1].BracketSlot != 1 {
		t.Errorf("bracket slots out of order")
	}

	overview, err := e.tournaments.Overview(ctx, tournament.ID)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Tournament.Status != models.StatusKnockout || len(overview.Tournament.Teams) != 4 {
		t.Errorf("overview tournament = %s with %d teams", overview.Tournament.Status, len(overview.Tournament.Teams))
	}
	if len(overview.Groups) != 2 || len(overview.Bracket) != 1 || len(overview.Standings) != 4 {
		t.Errorf("overview sizes: %d groups, %d rounds, %d rows", len(overview.Groups), len(overview.Bracket), len(overview.Standings))
	}

	if _, err := e.tournaments.Overview(ctx, 31337); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("unknown tournament: error = %v, want %v", err, ErrTournamentNotFound)
	}
}

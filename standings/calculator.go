// Package standings ranks teams from confirmed match results.
package standings

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

var ErrIncompleteGroup = errors.New("group has unconfirmed matches")

const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0

	// QualifiersPerGroup teams advance from each group.
	QualifiersPerGroup = 2
)

// Compute ranks teams using only CONFIRMED matches in which both sides belong to teams.
func Compute(group string, teams []*models.Team, matches []*models.Match) []models.Standing {
	rows := make(map[int]*models.Standing, len(teams))
	for _, team := range teams {
		rows[team.ID] = &models.Standing{TeamID: team.ID, TeamName: team.Name, Group: group}
	}

	for _, m := range matches {
		if m.Status != models.MatchConfirmed || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		home, away := rows[m.HomeTeamID], rows[m.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		record(home, *m.HomeScore, *m.AwayScore)
		record(away, *m.AwayScore, *m.HomeScore)
	}

	table := make([]models.Standing, 0, len(rows))
	for _, team := range teams {
		table = append(table, *rows[team.ID])
	}
	Sort(table)
	return table
}

func record(row *models.Standing, scored, conceded int) {
	row.Played++
	row.GoalsFor += scored
	row.GoalsAgainst += conceded
	row.GoalDifference = row.GoalsFor - row.GoalsAgainst
	switch {
	case scored > conceded:
		row.Wins++
		row.Points += PointsWin
	case scored == conceded:
		row.Draws++
		row.Points += PointsDraw
	default:
		row.Losses++
		row.Points += PointsLoss
	}
}

// Sort orders by points, goal difference and goals scored, all descending,
// and falls back to team ID so equal rows never depend on input order.
func Sort(table []models.Standing) {
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	})
	for i := range table {
		table[i].Rank = i + 1
	}
}

// Complete reports how many of the group's round-robin matches are confirmed.
func Complete(teams []*models.Team, matches []*models.Match) (confirmed, required int) {
	members := make(map[int]bool, len(teams))
	for _, team := range teams {
		members[team.ID] = true
	}
	for _, m := range matches {
		if m.Stage == models.StageGroup && m.Status == models.MatchConfirmed && members[m.HomeTeamID] && members[m.AwayTeamID] {
			confirmed++
		}
	}
	return confirmed, len(teams) * (len(teams) - 1) / 2
}

// Qualify returns the top QualifiersPerGroup teams of a finished group.
func Qualify(group string, teams []*models.Team, matches []*models.Match) ([]*models.Team, error) {
	confirmed, required := Complete(teams, matches)
	if confirmed < required {
		return nil, fmt.Errorf("%w: group %s has %d of %d matches confirmed", ErrIncompleteGroup, group, confirmed, required)
	}
	if len(teams) < QualifiersPerGroup {
		return nil, fmt.Errorf("group %s has only %d teams", group, len(teams))
	}

	byID := make(map[int]*models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	table := Compute(group, teams, matches)
	qualified := make([]*models.Team, 0, QualifiersPerGroup)
	for _, row := range table[:QualifiersPerGroup] {
		qualified = append(qualified, byID[row.TeamID])
	}
	return qualified, nil
}

// Overall ranks every team of the tournament across all confirmed matches.
func Overall(teams []*models.Team, matches []*models.Match) []models.Standing {
	return Compute("", teams, matches)
}

package standings

import (
	"sort"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

// ReconstructGroups rebuilds the group layout from GROUP matches: teams that
// share a group label played in the same group. Groups come back in label
// order; teams keep the order of their first appearance.
func ReconstructGroups(teams []*models.Team, matches []*models.Match) []brackets.Group {
	byID := make(map[int]*models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	members := make(map[string][]*models.Team)
	seen := make(map[string]map[int]bool)
	ordered := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Stage == models.StageGroup && m.GroupLabel != nil {
			ordered = append(ordered, m)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].MatchDate.Equal(ordered[j].MatchDate) {
			return ordered[i].MatchDate.Before(ordered[j].MatchDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, m := range ordered {
		label := *m.GroupLabel
		if seen[label] == nil {
			seen[label] = make(map[int]bool)
		}
		for _, id := range []int{m.HomeTeamID, m.AwayTeamID} {
			if seen[label][id] {
				continue
			}
			seen[label][id] = true
			team := byID[id]
			if team == nil {
				team = &models.Team{ID: id, TournamentID: m.TournamentID}
			}
			members[label] = append(members[label], team)
		}
	}

	labels := make([]string, 0, len(members))
	for label := range members {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) < len(labels[j])
		}
		return labels[i] < labels[j]
	})

	groups := make([]brackets.Group, 0, len(labels))
	for i, label := range labels {
		groups = append(groups, brackets.Group{Index: i, Label: label, Teams: members[label]})
	}
	return groups
}

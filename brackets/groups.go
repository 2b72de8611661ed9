package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

type Group struct {
	Index int            `json:"index"`
	Label string         `json:"label"`
	Teams []*models.Team `json:"teams"`
}

// PartitionGroups seeds exactly numGroups*perGroup teams into groups with a
// snake draft over the strength ranking: draft round r fills groups
// left to right when r is even and right to left when r is odd.
func PartitionGroups(teams []*models.Team, numGroups, perGroup int) ([]Group, error) {
	if numGroups <= 0 || perGroup <= 0 {
		return nil, fmt.Errorf("%w: invalid layout %d x %d", ErrInsufficientTeams, numGroups, perGroup)
	}
	if len(teams) != numGroups*perGroup {
		return nil, fmt.Errorf("%w: need %d teams, got %d", ErrInsufficientTeams, numGroups*perGroup, len(teams))
	}

	ranked := make([]*models.Team, len(teams))
	copy(ranked, teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Strength != ranked[j].Strength {
			return ranked[i].Strength > ranked[j].Strength
		}
		return ranked[i].ID < ranked[j].ID
	})

	groups := make([]Group, numGroups)
	for g := range groups {
		groups[g] = Group{
			Index: g,
			Label: groupLabel(g),
			Teams: make([]*models.Team, 0, perGroup),
		}
	}

	for r := 0; r < perGroup; r++ {
		for i := 0; i < numGroups; i++ {
			target := i
			if r%2 == 1 {
				target = numGroups - 1 - i
			}
			groups[target].Teams = append(groups[target].Teams, ranked[r*numGroups+i])
		}
	}

	return groups, nil
}

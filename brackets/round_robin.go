package brackets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() FixtureGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// Generate creates a single round-robin for one group: team[i] hosts team[j]
// for every i < j, so a group of M teams yields M*(M-1)/2 matches.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error) {
	if params.Tournament == nil {
		return nil, errors.New("RoundRobinGenerator: tournament is required")
	}
	if params.Group == nil {
		return nil, errors.New("RoundRobinGenerator: group is required")
	}
	teams := params.Group.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams in group %s (found %d, min 2 required)", params.Group.Label, len(teams))
	}

	label := params.Group.Label
	matches := make([]*models.Match, 0, len(teams)*(len(teams)-1)/2)
	matchDay := params.Offset

	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			date := params.Start.Add(time.Duration(matchDay) * MatchSpacing)
			m, err := models.NewMatch(params.Tournament.ID, teams[i], teams[j], models.StageGroup, date)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", label, err)
			}
			m.GroupLabel = &label
			m.BracketSlot = len(matches)
			matches = append(matches, m)
			matchDay++
		}
	}

	return matches, nil
}

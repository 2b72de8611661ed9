package brackets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() FixtureGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// StageForTeamCount maps the number of teams entering a knockout round to its stage.
func StageForTeamCount(n int) (models.MatchStage, error) {
	switch n {
	case 16:
		return models.StageRO16, nil
	case 8:
		return models.StageQuarter, nil
	case 4:
		return models.StageSemi, nil
	case 2:
		return models.StageFinal, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnsupportedStage, n)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Generate creates one knockout round from teams in seed order: seed i
// plays seed len-1-i. Match k is dated Start + (Offset+k)*MatchSpacing.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error) {
	if params.Tournament == nil {
		return nil, errors.New("SingleEliminationGenerator: tournament is required")
	}
	teams := params.Teams
	n := len(teams)
	if n < 2 || !isPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: got %d teams", ErrInvalidBracketSize, n)
	}

	stage, err := StageForTeamCount(n)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Match, 0, n/2)
	for i := 0; i < n/2; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := params.Start.Add(time.Duration(params.Offset+i) * MatchSpacing)
		m, err := models.NewMatch(params.Tournament.ID, teams[i], teams[n-1-i], stage, date)
		if err != nil {
			return nil, fmt.Errorf("%s slot %d: %w", stage, i, err)
		}
		m.BracketSlot = i
		matches = append(matches, m)
	}

	return matches, nil
}

// SeedQualifiers orders group qualifiers for the first knockout round.
// qualifiers[g] holds the winner and runner-up of group g. Winners take
// positions 0..N-1 and position 2N-1-i holds the runner-up of group (i+1)%N,
// so no first-round pairing repeats a group fixture when N > 1.
func SeedQualifiers(qualifiers [][]*models.Team) ([]*models.Team, error) {
	n := len(qualifiers)
	if n == 0 {
		return nil, fmt.Errorf("%w: no qualifiers", ErrInvalidBracketSize)
	}
	for g, q := range qualifiers {
		if len(q) != 2 {
			return nil, fmt.Errorf("group %s: expected 2 qualifiers, got %d", groupLabel(g), len(q))
		}
	}

	seeded := make([]*models.Team, 2*n)
	for g := 0; g < n; g++ {
		seeded[g] = qualifiers[g][0]
	}
	for i := 0; i < n; i++ {
		seeded[2*n-1-i] = qualifiers[(i+1)%n][1]
	}
	return seeded, nil
}

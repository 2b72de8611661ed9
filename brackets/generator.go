package brackets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

var (
	ErrInsufficientTeams  = errors.New("number of teams does not match groups times teams per group")
	ErrInvalidBracketSize = errors.New("knockout bracket size must be a power of two")
	ErrUnsupportedStage   = errors.New("no knockout stage for this number of teams")
)

// MatchSpacing separates consecutive fixtures of the same stage.
const MatchSpacing = 24 * time.Hour

type GenerateParams struct {
	Tournament *models.Tournament
	Teams      []*models.Team
	// Group is set for group fixtures only.
	Group *Group
	// Start is the date of the first generated match.
	Start time.Time
	// Offset shifts the first match by Offset*MatchSpacing, so fixtures of
	// several groups keep increasing dates across the stage.
	Offset int
}

type FixtureGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error)

	GetName() string
}

func groupLabel(index int) string {
	if index < 26 {
		return string(rune('A' + index))
	}
	return fmt.Sprintf("G%d", index+1)
}

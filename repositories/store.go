package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-engine/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentSlugConflict = errors.New("tournament slug already exists")
	ErrTeamNotFound           = errors.New("team not found")
	ErrTeamNameConflict       = errors.New("team name already used in this tournament")
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchConflict          = errors.New("match between these teams already exists for this stage")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrInvalidReference       = errors.New("referenced entity does not exist")
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store groups the repositories that must change together. Repositories
// obtained from the Store passed to WithinTx's callback share its transaction.
type Store interface {
	Tournaments() TournamentRepository
	Teams() TeamRepository
	Matches() MatchRepository
	Users() UserRepository

	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type ListTournamentsFilter struct {
	OrganizerID *int
	Status      *models.TournamentStatus
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetForUpdate locks the tournament row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	SetChampion(ctx context.Context, id int, teamID int) error
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int, onlyComplete bool) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
}

type ListMatchesFilter struct {
	Stage  *models.MatchStage
	Status *models.MatchStatus
}

type MatchRepository interface {
	// Create inserts the match together with its result.
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetForUpdate(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, filter ListMatchesFilter) ([]*models.Match, error)
	// Update persists the match state and its result.
	Update(ctx context.Context, match *models.Match) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

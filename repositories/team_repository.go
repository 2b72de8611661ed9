package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresTeamRepository struct {
	exec SQLExecutor
}

const teamColumns = `
	id, slug, tournament_id, name, manager_id, strength, player_count, registration_complete, created_at`

func scanTeam(row interface{ Scan(dest ...interface{}) error }) (*models.Team, error) {
	t := &models.Team{}
	err := row.Scan(
		&t.ID, &t.Slug, &t.TournamentID, &t.Name, &t.ManagerID, &t.Strength,
		&t.PlayerCount, &t.RegistrationComplete, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (slug, tournament_id, name, manager_id, strength, player_count, registration_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		team.Slug, team.TournamentID, team.Name, team.ManagerID, team.Strength,
		team.PlayerCount, team.RegistrationComplete,
	).Scan(&team.ID, &team.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := scanTeam(r.exec.QueryRowContext(ctx, `SELECT`+teamColumns+` FROM teams WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int, onlyComplete bool) ([]*models.Team, error) {
	query := `SELECT` + teamColumns + ` FROM teams WHERE tournament_id = $1`
	if onlyComplete {
		query += ` AND registration_complete = TRUE`
	}
	query += ` ORDER BY id`

	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $1,
			strength = $2,
			player_count = $3,
			registration_complete = $4
		WHERE id = $5`

	result, err := r.exec.ExecContext(ctx, query,
		team.Name, team.Strength, team.PlayerCount, team.RegistrationComplete, team.ID,
	)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint, ok := pqCode(err); ok {
		switch code {
		case pqUniqueViolation:
			if constraint == "teams_tournament_id_name_key" {
				return ErrTeamNameConflict
			}
		case pqForeignKeyViolation:
			if constraint == "teams_tournament_id_fkey" {
				return ErrTournamentNotFound
			}
			return ErrInvalidReference
		}
	}
	return err
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type postgresMatchRepository struct {
	exec SQLExecutor
}

const matchSelect = `
	SELECT
		m.id, m.slug, m.tournament_id, m.stage, m.group_label, m.bracket_slot,
		m.home_team_id, m.away_team_id, m.match_date, m.status,
		m.home_score, m.away_score, m.extra_time, m.penalties, m.penalty_winner_id,
		m.dispute_reason, m.created_at,
		r.id, r.home_score, r.away_score, r.home_team_confirmed, r.away_team_confirmed,
		r.extra_time, r.penalties, r.penalty_winner_id, r.home_report, r.away_report,
		r.created_at, r.updated_at
	FROM matches m
	JOIN results r ON r.match_id = m.id`

func scanMatch(row interface{ Scan(dest ...interface{}) error }) (*models.Match, error) {
	m := &models.Match{Result: &models.Result{}}
	res := m.Result
	err := row.Scan(
		&m.ID, &m.Slug, &m.TournamentID, &m.Stage, &m.GroupLabel, &m.BracketSlot,
		&m.HomeTeamID, &m.AwayTeamID, &m.MatchDate, &m.Status,
		&m.HomeScore, &m.AwayScore, &m.ExtraTime, &m.Penalties, &m.PenaltyWinnerID,
		&m.DisputeReason, &m.CreatedAt,
		&res.ID, &res.HomeScore, &res.AwayScore, &res.HomeConfirmed, &res.AwayConfirmed,
		&res.ExtraTime, &res.Penalties, &res.PenaltyWinnerID, &res.HomeReport, &res.AwayReport,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.MatchID = m.ID
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (
			slug, tournament_id, stage, group_label, bracket_slot, home_team_id, away_team_id, match_date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		m.Slug, m.TournamentID, m.Stage, m.GroupLabel, m.BracketSlot,
		m.HomeTeamID, m.AwayTeamID, m.MatchDate, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return r.handleMatchError(err)
	}

	if m.Result == nil {
		m.Result = &models.Result{}
	}
	res := m.Result
	res.MatchID = m.ID
	err = r.exec.QueryRowContext(ctx, `
		INSERT INTO results (match_id, home_score, away_score, home_team_confirmed, away_team_confirmed, extra_time, penalties)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		res.MatchID, res.HomeScore, res.AwayScore, res.HomeConfirmed, res.AwayConfirmed, res.ExtraTime, res.Penalties,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create result for match %d: %w", m.ID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return r.get(ctx, matchSelect+` WHERE m.id = $1`, id)
}

func (r *postgresMatchRepository) GetForUpdate(ctx context.Context, id int) (*models.Match, error) {
	return r.get(ctx, matchSelect+` WHERE m.id = $1 FOR UPDATE OF m, r`, id)
}

func (r *postgresMatchRepository) get(ctx context.Context, query string, id int) (*models.Match, error) {
	m, err := scanMatch(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, filter ListMatchesFilter) ([]*models.Match, error) {
	query := matchSelect + ` WHERE m.tournament_id = $1`
	args := []interface{}{tournamentID}
	argID := 2

	if filter.Stage != nil {
		query += fmt.Sprintf(" AND m.stage = $%d", argID)
		args = append(args, *filter.Stage)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND m.status = $%d", argID)
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY m.match_date, m.bracket_slot, m.id`

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			status = $1,
			home_score = $2,
			away_score = $3,
			extra_time = $4,
			penalties = $5,
			penalty_winner_id = $6,
			dispute_reason = $7
		WHERE id = $8`

	result, err := r.exec.ExecContext(ctx, query,
		m.Status, m.HomeScore, m.AwayScore, m.ExtraTime, m.Penalties, m.PenaltyWinnerID, m.DisputeReason, m.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	if err := checkAffectedRows(result, ErrMatchNotFound); err != nil {
		return err
	}
	if m.Result == nil {
		return nil
	}

	res := m.Result
	result, err = r.exec.ExecContext(ctx, `
		UPDATE results SET
			home_score = $1,
			away_score = $2,
			home_team_confirmed = $3,
			away_team_confirmed = $4,
			extra_time = $5,
			penalties = $6,
			penalty_winner_id = $7,
			home_report = $8,
			away_report = $9,
			updated_at = NOW()
		WHERE match_id = $10`,
		res.HomeScore, res.AwayScore, res.HomeConfirmed, res.AwayConfirmed, res.ExtraTime, res.Penalties,
		res.PenaltyWinnerID, res.HomeReport, res.AwayReport, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update result for match %d: %w", m.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint, ok := pqCode(err); ok {
		switch code {
		case pqUniqueViolation:
			if constraint == "matches_tournament_id_home_team_id_away_team_id_stage_key" {
				return ErrMatchConflict
			}
		case pqForeignKeyViolation:
			switch constraint {
			case "matches_tournament_id_fkey":
				return ErrTournamentNotFound
			case "matches_home_team_id_fkey", "matches_away_team_id_fkey":
				return ErrTeamNotFound
			}
			return ErrInvalidReference
		}
	}
	return err
}

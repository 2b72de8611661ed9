package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type postgresStore struct {
	db     *sql.DB
	exec   SQLExecutor
	inTx   bool
	logger *zap.Logger
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) Store {
	return &postgresStore{db: db, exec: db, logger: logger}
}

func (s *postgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.exec}
}

func (s *postgresStore) Teams() TeamRepository {
	return &postgresTeamRepository{exec: s.exec}
}

func (s *postgresStore) Matches() MatchRepository {
	return &postgresMatchRepository{exec: s.exec}
}

func (s *postgresStore) Users() UserRepository {
	return &postgresUserRepository{exec: s.exec}
}

// WithinTx runs fn in a single transaction. Nested calls reuse the outer one.
func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) (txErr error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("transaction rollback failed", zap.Error(rbErr), zap.NamedError("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(&postgresStore{db: s.db, exec: tx, inTx: true, logger: s.logger})
	return txErr
}

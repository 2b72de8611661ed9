package repositories

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// pqCode returns the SQLSTATE code and constraint name of a Postgres error.
func pqCode(err error) (string, string, bool) {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return "", "", false
	}
	return string(pqErr.Code), pqErr.Constraint, true
}

package postgres

import (
	"database/sql"
	"errors"
)

// IsNoRowsError reports whether err is the driver's no-rows sentinel.
// Callers outside this package should not need to import database/sql for it.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

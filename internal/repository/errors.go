package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/neurocare-patient-server/internal/domain"
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a unique-key conflict
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsDomainError reports whether err is already classified under the
// domain failure taxonomy and should pass through unwrapped
func IsDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidReference) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrPersistence)
}

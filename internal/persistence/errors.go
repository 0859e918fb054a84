package persistence

import (
	"errors"
	"fmt"

	"chirpd/internal/core"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Translate maps driver errors onto the core taxonomy. Anything that is not
// a recognizable data condition is treated as the store being unavailable so
// callers can apply the degrade or retry-once policies uniformly.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return core.ErrAlreadyExists
	}

	return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
}

package helper

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Unique indexes guarding net codes. Postgres treats NULLs as distinct, so
// linked and unlinked nets need separate constraints: the composite index
// covers rows with an operation id, the partial index covers the rest.
const (
	NetCodeLinkedIndex   = "uidx_nets_scope_operation_code"
	NetCodeUnlinkedIndex = "uidx_nets_scope_code_unlinked"
)

// IsDuplicateNetCode reports whether err is a unique violation on either
// net code index.
func IsDuplicateNetCode(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName == NetCodeLinkedIndex ||
			pgErr.ConstraintName == NetCodeUnlinkedIndex
	}
	return false
}

// internal/adapters/db/errors.go
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

// Postgres SQLSTATE codes the billing path reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeCheckViolation       = "23514"
	codeQueryCanceled        = "57014"
	codeTooManyConnections   = "53300"
)

// classifyError maps store failures onto the domain error kinds. Errors that
// already carry a kind pass through untouched.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsBillingError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeSerializationFailure,
			pgErr.Code == codeDeadlockDetected,
			pgErr.Code == codeLockNotAvailable,
			pgErr.Code == codeCheckViolation && strings.Contains(pgErr.ConstraintName, "quantity"):
			return domain.Conflict(uuid.Nil, "", err)
		case pgErr.Code == codeQueryCanceled,
			pgErr.Code == codeTooManyConnections,
			strings.HasPrefix(pgErr.Code, "08"),  // connection exception
			strings.HasPrefix(pgErr.Code, "57P"): // operator intervention
			return domain.StoreUnavailable(err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) ||
		pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return domain.StoreUnavailable(err)
	}

	return err
}

func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return classifyError(fmt.Errorf(format+": %w", append(args, err)...))
}

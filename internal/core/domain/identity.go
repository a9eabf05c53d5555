// internal/core/domain/identity.go
package domain

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the verified caller. The caller's user id is the owner scope.
type Identity struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != uuid.Nil
}

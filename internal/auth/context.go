package auth

import (
	"context"
	"errors"
)

// Identity is the caller resolved by the gate, scoped to one request.
type Identity struct {
	UserID int64
}

type ctxKey int

const ctxIdentity ctxKey = iota

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFrom(ctx context.Context) (Identity, error) {
	if id, ok := ctx.Value(ctxIdentity).(Identity); ok && id.UserID > 0 {
		return id, nil
	}
	return Identity{}, errors.New("identity not in context")
}

func UserID(ctx context.Context) (int64, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return 0, err
	}
	return id.UserID, nil
}

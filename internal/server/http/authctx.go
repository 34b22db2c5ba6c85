package httpserver

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const accountKey ctxKey = "fp.account"

// accountSlot is filled by a handler once the token is resolved so that
// outer middleware can report who made the request.
type accountSlot struct{ id uuid.UUID }

// withAccountSlot prepares ctx to receive an authenticated account id.
func withAccountSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, accountKey, &accountSlot{})
}

// setAccountID records id in the slot of ctx, if there is one.
func setAccountID(ctx context.Context, id uuid.UUID) {
	if s, ok := ctx.Value(accountKey).(*accountSlot); ok {
		s.id = id
	}
}

// AccountIDFromCtx fetches the authenticated account id from context.
func AccountIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	s, ok := ctx.Value(accountKey).(*accountSlot)
	if !ok || s.id == uuid.Nil {
		return uuid.Nil, false
	}
	return s.id, true
}

package identity

import "context"

type ctxKey string

const userKey ctxKey = "hodie.user"

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the authenticated user if present.
func UserFromContext(ctx context.Context) (*User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return nil, false
	}
	u, ok := val.(*User)
	return u, ok && u != nil && u.ID != ""
}

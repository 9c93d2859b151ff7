package identity

import "context"

type ctxKey string

const userKey ctxKey = "kniteciq.user"

// User is the signed-in principal attached to a request.
type User struct {
	Username string
	Name     string
}

// WithUser stores the signed-in user in context.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// FromContext extracts the signed-in user if present.
func FromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	user, ok := val.(User)
	return user, ok && user.Username != ""
}

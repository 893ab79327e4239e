package domain

import "context"

type contextKey string

const viewerContextKey contextKey = "viewer"

// WithViewer returns a new context carrying the current user.
func WithViewer(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, viewerContextKey, user)
}

// ViewerFrom extracts the current user from context, if any.
func ViewerFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(viewerContextKey).(*User)
	return u, ok && u != nil
}

// RequireViewer is ViewerFrom for operations that need an authenticated user.
func RequireViewer(ctx context.Context, op string) (*User, error) {
	u, ok := ViewerFrom(ctx)
	if !ok {
		return nil, &NotAuthenticatedError{Op: op}
	}
	return u, nil
}

// Package authctx propagates the request-scoped bearer token and request
// ID through tool handlers via context.Context, following the private-key
// + WithX/XFromCtx idiom in the teacher's internal/tools/context_keys.go.
package authctx

import "context"

type authContextKey string

const (
	ctxToken     authContextKey = "auth_token"
	ctxRequestID authContextKey = "auth_request_id"
)

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxToken, token)
}

// TokenFromCtx retrieves the bearer token attached by WithToken.
func TokenFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxToken).(string)
	return v
}

// WithRequestID attaches a request ID to ctx, for correlating log lines
// across the auth, session, and search layers.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestID, requestID)
}

// RequestIDFromCtx retrieves the request ID attached by WithRequestID.
func RequestIDFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}

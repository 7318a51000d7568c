package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const decisionKey ctxKey = 1

func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey, d)
}

// DecisionFrom returns the authorization decision computed for the request,
// or a rejected decision when no middleware ran.
func DecisionFrom(ctx context.Context) Decision {
	if d, ok := ctx.Value(decisionKey).(Decision); ok {
		return d
	}
	return Decision{reason: ErrUnauthorized}
}

// BearerToken extracts the token from an Authorization header. The scheme
// comparison is case-insensitive, matching common client behavior.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}

// Authorized evaluates the bearer token on every request and stores the
// resulting Decision in the context. It does not short-circuit: handlers
// map the decision to 401/403 themselves, since several of them vary their
// response shape on the privilege bit rather than failing outright.
func Authorized(gate *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var d Decision
			if token, ok := BearerToken(r); ok {
				d = gate.AuthorizeAdmin(token)
			} else {
				d = Decision{reason: ErrUnauthorized}
			}
			next.ServeHTTP(w, r.WithContext(WithDecision(r.Context(), d)))
		})
	}
}

package auth

import (
	"context"
	"net/http"
)

const (
	TokenHeader   = "X-LIFTLOG-TOKEN"
	SessionCookie = "liftlog_session"
)

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

type Checker interface {
	IsLogged(ctx context.Context, token string) (bool, error)
}

// TokenFromRequest reads the session token from the token header,
// falling back to the session cookie set by the login form.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

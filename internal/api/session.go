package api

import (
	"context"
	"net/http"

	"github.com/dunamismax/pixelconvert/internal/id"
	"github.com/google/uuid"
)

const defaultSessionCookie = "pixelconvert_session"

type sessionKey struct{}

// withSession resolves the session id from its cookie, issuing a new one
// when the cookie is missing or malformed.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(s.session.CookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				sessionID = c.Value
			}
		}
		if sessionID == "" {
			sessionID = id.New()
		}

		cookie := &http.Cookie{
			Name:     s.session.CookieName,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.session.Secure,
			SameSite: http.SameSiteLaxMode,
		}
		if s.session.TTL > 0 {
			cookie.MaxAge = int(s.session.TTL.Seconds())
		}
		http.SetCookie(w, cookie)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sessionID)))
	})
}

func sessionFrom(ctx context.Context) string {
	v, _ := ctx.Value(sessionKey{}).(string)
	return v
}

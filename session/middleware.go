package session

import (
	"net/http"

	"storefront/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CookieName = "storefront_session"

// UserLookup resolves the username stored in a session token.
type UserLookup interface {
	FindByUsername(username string) (*model.User, bool)
}

// Attach puts a Session into every request context. A request without a valid
// cookie gets a fresh guest session and a cookie for it.
func Attach(issuer *Issuer, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := &Session{}
			if c, err := r.Cookie(CookieName); err == nil {
				if sid, username, err := issuer.Parse(c.Value); err == nil {
					s.ID = sid
					if username != "" {
						if u, ok := users.FindByUsername(username); ok {
							s.User = u
						}
					}
				}
			}
			if s.ID == "" {
				s.ID = uuid.NewString()
				if err := SetCookie(w, issuer, s.ID, ""); err != nil {
					log.Error("failed to issue guest session", zap.Error(err))
					http.Error(w, "Failed to start session", http.StatusInternalServerError)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// SetCookie writes a session cookie for sessionID bound to username.
func SetCookie(w http.ResponseWriter, issuer *Issuer, sessionID, username string) error {
	token, err := issuer.Issue(sessionID, username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

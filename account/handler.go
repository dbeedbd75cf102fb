package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/session"

	"go.uber.org/zap"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// RegisterHandler creates an account. The caller still has to log in.
func RegisterHandler(s *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, "Invalid request", http.StatusBadRequest)
			return
		}
		_, err := s.Register(in.Username, in.Password)
		switch {
		case errors.Is(err, ErrEmptyCredentials):
			writeJSONError(w, "Username and password cannot be empty.", http.StatusBadRequest)
			return
		case errors.Is(err, ErrUsernameTaken):
			writeJSONError(w, "Username already exists. Please choose a different one.", http.StatusConflict)
			return
		case err != nil:
			log.Error("registration failed", zap.String("username", in.Username), zap.Error(err))
			writeJSONError(w, "Registration failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"message": "Registration successful!"})
	}
}

// LoginHandler binds the user to the current session. The session ID is kept
// so a cart filled as a guest survives the login.
func LoginHandler(s *Store, issuer *session.Issuer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, "Invalid request", http.StatusBadRequest)
			return
		}
		u, err := s.Authenticate(in.Username, in.Password)
		if err != nil {
			log.Info("login rejected", zap.String("username", in.Username))
			writeJSONError(w, "Invalid username or password. Please try again.", http.StatusUnauthorized)
			return
		}
		sess := session.FromContext(r.Context())
		if err := session.SetCookie(w, issuer, sess.ID, u.Username); err != nil {
			log.Error("failed to issue session", zap.Error(err))
			writeJSONError(w, "Login failed", http.StatusInternalServerError)
			return
		}
		sess.User = u
		log.Info("user logged in", zap.String("username", u.Username), zap.String("session", sess.ID))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":       "Login successful!",
			"username":      u.Username,
			"firstPurchase": u.IsFirstPurchase(),
		})
	}
}

// LogoutHandler unbinds the user but keeps the session and its cart.
// The cookie that carried the login is revoked so it cannot be replayed.
func LogoutHandler(issuer *session.Issuer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if c, err := r.Cookie(session.CookieName); err == nil {
			issuer.Revoke(c.Value)
		}
		if err := session.SetCookie(w, issuer, sess.ID, ""); err != nil {
			log.Error("failed to reset session", zap.Error(err))
			writeJSONError(w, "Logout failed", http.StatusInternalServerError)
			return
		}
		sess.User = nil
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
	}
}

// MeHandler reports the user bound to the session, if any.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := session.FromContext(r.Context()).CurrentUser()
		w.Header().Set("Content-Type", "application/json")
		if u == nil {
			json.NewEncoder(w).Encode(map[string]interface{}{"loggedIn": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"loggedIn":      true,
			"username":      u.Username,
			"firstPurchase": u.IsFirstPurchase(),
		})
	}
}

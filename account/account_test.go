package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/database"
	"storefront/model"
	"storefront/session"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.ApplySchema(db))
	s, err := Load(db, zap.NewNop(), bcrypt.MinCost)
	require.NoError(t, err)
	return s, db
}

func TestRegister(t *testing.T) {
	s, db := newStore(t)

	u, err := s.Register("alice", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.True(t, u.IsFirstPurchase())

	stored, err := database.GetUserByUsername(db, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, u.ID, stored.ID)

	_, err = s.Register("alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.Register("  ", "x")
	assert.ErrorIs(t, err, ErrEmptyCredentials)
	_, err = s.Register("bob", "")
	assert.ErrorIs(t, err, ErrEmptyCredentials)
}

func TestAuthenticate(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Register("alice", "secret")
	require.NoError(t, err)

	u, err := s.Authenticate("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = s.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAppendPurchaseAndPersist(t *testing.T) {
	s, db := newStore(t)
	u, err := s.Register("alice", "secret")
	require.NoError(t, err)

	rec := model.PurchaseRecord{
		ID: "p-1", Username: "alice", Total: decimal.NewFromInt(21), Date: time.Now().UTC(),
		Items: []model.PurchasedItem{{ProductID: "P1", Name: "Radio", Category: model.CategoryElectronics, UnitPrice: decimal.NewFromInt(10), Quantity: 3}},
	}
	s.AppendPurchase(u, rec)
	assert.False(t, u.IsFirstPurchase())

	require.NoError(t, s.PersistUsers(context.Background()))
	require.NoError(t, s.PersistUsers(context.Background()), "nothing pending")

	reloaded, err := Load(db, zap.NewNop(), bcrypt.MinCost)
	require.NoError(t, err)
	again, ok := reloaded.FindByUsername("alice")
	require.True(t, ok)
	require.Len(t, again.Purchases, 1)
	assert.True(t, again.Purchases[0].Total.Equal(decimal.NewFromInt(21)))
}

func withSession(h http.Handler, s *session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
	})
}

func TestLoginHandler_KeepsSessionID(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Register("alice", "secret")
	require.NoError(t, err)
	issuer := session.NewIssuer("test-secret", time.Hour)
	sess := &session.Session{ID: "sid-1"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"alice","password":"secret"}`))
	withSession(LoginHandler(s, issuer, zap.NewNop()), sess).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sess.User)
	assert.Equal(t, "alice", sess.User.Username)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	sid, username, err := issuer.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)
	assert.Equal(t, "alice", username)
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Register("alice", "secret")
	require.NoError(t, err)
	sess := &session.Session{ID: "sid-1"}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"alice","password":"nope"}`))
	withSession(LoginHandler(s, session.NewIssuer("k", time.Hour), zap.NewNop()), sess).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sess.User)
}

func TestRegisterHandler(t *testing.T) {
	s, _ := newStore(t)
	h := RegisterHandler(s, zap.NewNop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"alice","password":"secret"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"alice","password":"secret"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"","password":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandler(t *testing.T) {
	sess := &session.Session{ID: "sid-1", User: &model.User{Username: "alice"}}
	rec := httptest.NewRecorder()
	withSession(LogoutHandler(session.NewIssuer("k", time.Hour), zap.NewNop()), sess).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, sess.User)
	assert.Equal(t, "sid-1", sess.ID)
}

func TestLogoutHandler_OldCookieCannotBeReplayed(t *testing.T) {
	issuer := session.NewIssuer("k", time.Hour)
	loggedIn, err := issuer.Issue("sid-1", "alice")
	require.NoError(t, err)
	sess := &session.Session{ID: "sid-1", User: &model.User{Username: "alice"}}

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: loggedIn})
	rec := httptest.NewRecorder()
	withSession(LogoutHandler(issuer, zap.NewNop()), sess).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, err = issuer.Parse(loggedIn)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	sid, username, err := issuer.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)
	assert.Empty(t, username)
}

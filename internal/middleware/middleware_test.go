package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	id := uuid.New()

	token, err := tm.GenerateToken(id)
	require.NoError(t, err)
	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	id := uuid.New()

	other, err := NewTokenManager("other", time.Hour).GenerateToken(id)
	require.NoError(t, err)
	_, err = tm.ValidateToken(other)
	assert.Error(t, err, "wrong secret")

	expired, err := NewTokenManager("secret", time.Nanosecond).GenerateToken(id)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = tm.ValidateToken(expired)
	assert.Error(t, err, "expired")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.ValidateToken(none)
	assert.Error(t, err, "alg none")

	_, err = tm.ValidateToken("garbage")
	assert.Error(t, err)
}

type authFixture struct {
	tokens *TokenManager
	auth   *Authenticator
	user   *models.User
	admin  *models.User
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		tokens: NewTokenManager("secret", time.Hour),
		user:   &models.User{ID: uuid.New(), Username: "alice", Role: models.RoleUser},
		admin:  &models.User{ID: uuid.New(), Username: "root", Role: models.RoleAdmin},
	}
	f.auth = NewAuthenticator(f.tokens, func(_ context.Context, id uuid.UUID) (*models.User, error) {
		switch id {
		case f.user.ID:
			return f.user, nil
		case f.admin.ID:
			return f.admin, nil
		}
		return nil, utils.NewNotFoundError("User")
	})
	return f
}

func (f *authFixture) request(t *testing.T, h http.HandlerFunc, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != nil {
		token, err := f.tokens.GenerateToken(*userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func echoCaller(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())
	if caller == nil {
		WriteJSON(w, http.StatusOK, map[string]string{"caller": "anonymous"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"caller": caller.ID.String(), "role": string(caller.Role)})
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Message
}

func TestRequireAuth(t *testing.T) {
	f := newAuthFixture()
	h := f.auth.RequireAuth(echoCaller)

	rec := f.request(t, h, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header required", messageOf(t, rec))

	rec = f.request(t, h, &f.user.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), f.user.ID.String())

	ghost := uuid.New()
	rec = f.request(t, h, &ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	f := newAuthFixture()
	h := f.auth.RequireAdmin(echoCaller)

	assert.Equal(t, http.StatusUnauthorized, f.request(t, h, nil).Code)
	rec := f.request(t, h, &f.user.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", messageOf(t, rec))
	assert.Equal(t, http.StatusOK, f.request(t, h, &f.admin.ID).Code)
}

func TestOptionalAuth(t *testing.T) {
	f := newAuthFixture()
	h := f.auth.OptionalAuth(echoCaller)

	assert.Contains(t, f.request(t, h, nil).Body.String(), "anonymous")
	assert.Contains(t, f.request(t, h, &f.user.ID).Body.String(), f.user.ID.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anonymous")
}

func TestWriteErrorHidesServerErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, utils.NewDatabaseError("connection refused to 10.0.0.5", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", messageOf(t, rec))

	rec = httptest.NewRecorder()
	WriteError(rec, utils.NewNotFoundError("Post"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", messageOf(t, rec))
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := CORS(DefaultCORSConfig([]string{"https://news.example"}))(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://news.example")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://news.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerCountsRequests(t *testing.T) {
	metrics := utils.NewMetricsCollector()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}), Logger(metrics))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.EqualValues(t, 3, metrics.Snapshot().Requests)
}

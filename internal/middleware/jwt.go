// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

const tokenIssuer = "newsroom-api"

// Claims represents the JWT claims for our application
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken creates a new JWT token for the given user ID
func (m *TokenManager) GenerateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken validates the provided JWT token
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// UserLoader resolves the account a token was issued for.
type UserLoader func(ctx context.Context, id uuid.UUID) (*models.User, error)

// Authenticator resolves bearer tokens into the request's caller.
type Authenticator struct {
	tokens *TokenManager
	load   UserLoader
}

func NewAuthenticator(tokens *TokenManager, load UserLoader) *Authenticator {
	return &Authenticator{tokens: tokens, load: load}
}

func (a *Authenticator) authenticate(r *http.Request) (*models.User, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, utils.NewUnauthorizedError("Authorization header required")
	}
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return nil, utils.NewUnauthorizedError("Invalid authorization format")
	}
	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid token", err)
	}
	user, err := a.load(r.Context(), claims.UserID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, utils.NewUnauthorizedError("Account no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// QueryToken lets websocket handshakes, which cannot set headers from a
// browser, carry the bearer token in the token query parameter.
func QueryToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" &&
			strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		next(w, r)
	}
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// RequireAdmin is RequireAuth restricted to administrators.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !CallerFromContext(r.Context()).IsAdmin() {
			WriteError(w, utils.NewForbiddenError("Admin access required"))
			return
		}
		next(w, r)
	})
}

// OptionalAuth resolves the caller when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next(w, r)
			return
		}
		user, err := a.authenticate(r)
		if err != nil {
			slog.Debug("ignoring bad credentials on public route", "path", r.URL.Path, "error", err)
			next(w, r)
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// Define a custom context key type to avoid collisions
type contextKey string

const userKey contextKey = "user"

// WithUser stores the authenticated account in the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated account, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// CallerFromContext returns the caller identity, or nil for anonymous requests.
func CallerFromContext(ctx context.Context) *models.Caller {
	if user := UserFromContext(ctx); user != nil {
		return user.Caller()
	}
	return nil
}

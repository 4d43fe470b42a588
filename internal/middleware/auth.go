package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/pkg/jwt"
)

// TokenCookie carries the bearer token for browser sessions.
const TokenCookie = "lfg_token"

// AuthService defines the interface for token validation
type AuthService interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// UserProvisioner records the token's user in the directory on first sight.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, id, displayName string, role model.UserRole) (*model.User, error)
}

// ClaimsKey is the context key for JWT claims
const ClaimsKey contextKey = "claims"

// ActorKey is the context key for the permission actor
const ActorKey contextKey = "actor"

var errNoToken = errors.New("missing authorization header")

// Auth returns a middleware that requires a valid token
func Auth(authService AuthService, users UserProvisioner) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				model.NewUnauthorizedError(err.Error()).WriteJSON(w)
				return
			}

			claims, err := authService.ValidateAccessToken(token)
			if err != nil {
				switch err {
				case jwt.ErrTokenExpired:
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case jwt.ErrInvalidSignature:
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			ctx, err := authenticate(r.Context(), users, claims)
			if err != nil {
				model.NewUnauthorizedError("token does not describe a valid user").WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth is like Auth but doesn't require authentication
// It will set user info in context if token is present and valid
func OptionalAuth(authService AuthService, users UserProvisioner) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.ValidateAccessToken(token)
			if err != nil {
				// Invalid token, but optional so continue as anonymous
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := authenticate(r.Context(), users, claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the Authorization header, falling back to the cookie.
func extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errNoToken
}

func authenticate(ctx context.Context, users UserProvisioner, claims *jwt.Claims) (context.Context, error) {
	role := model.UserRole(claims.Role)
	if role == "" {
		role = model.UserRoleUser
	}
	if !role.IsValid() {
		return ctx, errors.New("unknown role")
	}

	if users != nil {
		if _, err := users.EnsureUser(ctx, claims.UserID(), claims.Name, role); err != nil {
			slog.Warn("user provisioning failed",
				slog.String("user_id", claims.UserID()),
				slog.String("error", err.Error()),
				slog.String("request_id", GetRequestID(ctx)),
			)
			return ctx, err
		}
	}

	ctx = context.WithValue(ctx, UserIDKey, claims.UserID())
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	ctx = context.WithValue(ctx, ActorKey, model.NewActor(claims.UserID(), role))
	return ctx, nil
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetActor returns the request's actor, anonymous when unauthenticated.
func GetActor(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ActorKey).(model.Actor); ok {
		return actor
	}
	return model.Anonymous()
}

// WithActor stores an actor in the context. Used by tests and background work.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, actor.UserID())
	return context.WithValue(ctx, ActorKey, actor)
}

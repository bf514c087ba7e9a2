package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"medledger/internal/domain/entity"
	"medledger/internal/service"
	"medledger/pkg/jwt"
	"medledger/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	IdentityKey  contextKey = "identity"
	TokenIDKey   contextKey = "token_id"
	ClientIPKey  contextKey = "client_ip"
	RequestIDKey contextKey = "request_id"
)

// Cookie names per realm so one browser can hold both sessions.
const (
	PortalAccessCookie  = "access_token"
	PortalRefreshCookie = "refresh_token"
	LedgerAccessCookie  = "ledger_access_token"
	LedgerRefreshCookie = "ledger_refresh_token"
)

// AccessCookieName returns the access cookie of a realm.
func AccessCookieName(realm string) string {
	if realm == jwt.RealmLedger {
		return LedgerAccessCookie
	}
	return PortalAccessCookie
}

// RefreshCookieName returns the refresh cookie of a realm.
func RefreshCookieName(realm string) string {
	if realm == jwt.RealmLedger {
		return LedgerRefreshCookie
	}
	return PortalRefreshCookie
}

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokenStore service.TokenStore
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, tokenStore service.TokenStore, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log,
	}
}

// Authenticate accepts a Bearer header or the realm's access cookie and
// rejects tokens of the other realm.
func (m *AuthMiddleware) Authenticate(realm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(r, AccessCookieName(realm))
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			claims, err := m.jwtService.ValidateToken(tokenString)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			if claims.TokenType != jwt.AccessToken {
				response.Unauthorized(w, "Invalid token type")
				return
			}

			if claims.Realm != realm {
				response.Unauthorized(w, "Token is not valid for this service")
				return
			}

			// Token must still exist in Redis (not revoked)
			exists, err := m.tokenStore.Exists(r.Context(), claims.Subject, jwt.AccessToken, claims.TokenID)
			if err != nil {
				m.log.Warnf("Failed to validate token: %+v", err)
				response.InternalServerError(w, "Failed to validate token")
				return
			}
			if !exists {
				response.Unauthorized(w, "Token has been revoked")
				return
			}

			ctx := WithIdentity(r.Context(), claims.Identity(), claims.TokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, cookieName string) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, id jwt.Identity, tokenID string) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, id)
	return context.WithValue(ctx, TokenIDKey, tokenID)
}

// GetIdentityFromContext extracts the authenticated identity from context
func GetIdentityFromContext(ctx context.Context) (jwt.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(jwt.Identity)
	return id, ok
}

// GetPortalUserID extracts the portal user ID from context
func GetPortalUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := GetIdentityFromContext(ctx)
	if !ok || id.Realm != jwt.RealmPortal {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(id.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// GetLedgerUserID extracts the ledger user ID from context
func GetLedgerUserID(ctx context.Context) (int64, bool) {
	id, ok := GetIdentityFromContext(ctx)
	if !ok || id.Realm != jwt.RealmLedger {
		return 0, false
	}
	userID, err := strconv.ParseInt(id.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}

// GetClientIP extracts the client address recorded by RequestLogger
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ClientIPKey).(string)
	return ip
}

// ActorFromContext describes the caller for audit entries.
func ActorFromContext(ctx context.Context) entity.Actor {
	actor := entity.Actor{IP: GetClientIP(ctx)}
	if id, ok := GetIdentityFromContext(ctx); ok {
		actor.Realm = id.Realm
		actor.ID = id.Subject
	}
	return actor
}

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenUser is the identity the auth service signs into access tokens.
type TokenUser struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
}

// Claims is the access token payload: {"data":{"user":{...}}, "exp": ...}.
type Claims struct {
	Data struct {
		User TokenUser `json:"user"`
	} `json:"data"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 access token for actor.
func SignToken(secret string, actor domain.Actor, ttl time.Duration) (string, error) {
	claims := &Claims{}
	claims.Data.User = TokenUser{UserID: actor.ID, Role: string(actor.Role)}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.Data.User.UserID == "" {
		return nil, errors.New("user id not found in token claims")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// JWTAuth rejects requests without a valid bearer token and stores the
// caller in the request context. A missing token is 401, a token that does
// not verify is 403.
func JWTAuth(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("JWTAuth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				log.Debug("Missing bearer token", zap.String("path", r.URL.Path))
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := parseToken(secret, tokenString)
			if err != nil {
				log.Warn("Token validation failed", zap.String("path", r.URL.Path), zap.Error(err))
				writeMessage(w, http.StatusForbidden, "Forbidden")
				return
			}

			role := domain.Role(claims.Data.User.Role)
			if role != domain.RoleAdmin {
				role = domain.RoleUser
			}
			actor := domain.Actor{ID: claims.Data.User.UserID, Role: role}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !actor.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Admin access only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// UserNameKey is the context key for the display name.
	UserNameKey = "user_name"
)

// IdentityClaims is the resolved caller identity.
type IdentityClaims struct {
	UserID uuid.UUID
	Name   string
}

// IdentityVerifier resolves a bearer token to a caller identity.
type IdentityVerifier interface {
	Verify(token string) (*IdentityClaims, error)
}

// JWTVerifier verifies HMAC-signed JWTs issued by the identity service.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

var errInvalidToken = errors.New("invalid token")

// Verify parses and validates the token, returning the caller identity.
func (v *JWTVerifier) Verify(tokenString string) (*IdentityClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errInvalidToken
	}

	name, _ := claims["name"].(string)
	return &IdentityClaims{UserID: userID, Name: name}, nil
}

// Sign issues a token for the given identity. Used by tests and local tooling;
// production tokens come from the identity service.
func (v *JWTVerifier) Sign(userID uuid.UUID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return token.SignedString(v.secret)
}

// Auth returns a middleware that validates bearer tokens.
// If the token is valid, it sets user_id and user_name in the context.
// If optional is true, the middleware will not abort on missing/invalid tokens.
func Auth(verifier IdentityVerifier, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			if !optional {
				abortUnauthorized(c, "UNAUTHENTICATED", "Authorization header required")
				return
			}
			c.Next()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			if !optional {
				abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
				return
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserNameKey, claims.Name)

		c.Next()
	}
}

// RequireAuth returns a middleware that requires a valid bearer token.
func RequireAuth(verifier IdentityVerifier) gin.HandlerFunc {
	return Auth(verifier, false)
}

// OptionalAuth returns a middleware that optionally validates bearer tokens.
func OptionalAuth(verifier IdentityVerifier) gin.HandlerFunc {
	return Auth(verifier, true)
}

// UserID returns the authenticated caller's ID from the gin context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, BearerPrefix)
}

package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"tussles/internal/apperror"
	"tussles/internal/authz"
	"tussles/internal/model"
	"tussles/internal/service"
	"tussles/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const currentUserKey = "currentUser"

var (
	ErrAuthDisabled  = errors.New("token verification is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingToken  = errors.New("authorization is missing")
	ErrInvalidFormat = errors.New("invalid authorization format, expected 'Bearer <token>'")
)

// Authenticator verifies HS256 bearer tokens issued by the auth provider and
// resolves their subject to a profile row.
type Authenticator struct {
	secret []byte
	users  service.UserService
}

// NewAuthenticator returns an Authenticator. An empty secret rejects every token.
func NewAuthenticator(secret string, users service.UserService) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users}
}

// ParseToken verifies the signature and expiry and returns the subject.
func (a *Authenticator) ParseToken(tokenString string) (uuid.UUID, error) {
	if len(a.secret) == 0 {
		return uuid.Nil, ErrAuthDisabled
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// UserFromToken resolves a raw token to its profile. Used by the websocket endpoint.
func (a *Authenticator) UserFromToken(ctx context.Context, tokenString string) (*model.User, error) {
	id, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}
	return a.users.Profile(ctx, id)
}

// Authenticate requires a valid bearer token whose subject has a profile.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(capitalize(err.Error())))
			return
		}

		id, err := a.ParseToken(tokenString)
		if err != nil {
			if errors.Is(err, ErrAuthDisabled) {
				log.Println("warning: rejecting request, SUPABASE_JWT_SECRET is not set")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid or expired token"))
			return
		}

		user, err := a.users.Profile(c.Request.Context(), id)
		if err != nil {
			status := apperror.StatusOf(err)
			message := "Failed to load user profile"
			if appErr, ok := apperror.As(err); ok && status != http.StatusInternalServerError {
				message = appErr.Message
			} else {
				log.Printf("Authenticate: %v", err)
			}
			c.AbortWithStatusJSON(status, response.Error(message))
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Require(CurrentUser(c), roles...); err != nil {
			c.AbortWithStatusJSON(apperror.StatusOf(err), response.Error(err.Error()))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// SetCurrentUser stores user on the context as Authenticate would.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(currentUserKey, user)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidFormat
	}
	return parts[1], nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

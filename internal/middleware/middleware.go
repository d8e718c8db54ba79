package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AdedejiAdetola/swans-backend/internal/config"
	apierrors "github.com/AdedejiAdetola/swans-backend/internal/errors"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys for storing caller identity
const (
	ContextKeyAccountID = "account_id"
	ContextKeyRole      = "role"
	ContextKeyClaims    = "claims"
)

// JWT validation errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims represents JWT claims: the registered account identifier and its role
type Claims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and validates account tokens
type JWTAuthenticator struct {
	config *config.JWTConfig
}

// NewJWTAuthenticator creates a new JWT authenticator
func NewJWTAuthenticator(cfg *config.JWTConfig) *JWTAuthenticator {
	return &JWTAuthenticator{config: cfg}
}

// IssueToken mints an access token for a registered account. Tokens are
// handed out at registration; there is no separate login flow.
func (j *JWTAuthenticator) IssueToken(accountID string, role models.AccountRole) (string, error) {
	now := time.Now()
	claims := &Claims{
		AccountID: accountID,
		Role:      string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "access",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.TokenExpiry) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// JWTAuth validates the Bearer token and sets caller identity in the context
func (j *JWTAuthenticator) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithError(c, apierrors.ErrInvalidCredentialsError)
			c.Abort()
			return
		}

		tokenString, err := extractBearerToken(authHeader)
		if err != nil {
			respondWithError(c, apierrors.ErrInvalidCredentialsError)
			c.Abort()
			return
		}

		claims, err := j.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				respondWithError(c, apierrors.ErrTokenExpiredError)
			} else {
				respondWithError(c, apierrors.ErrInvalidCredentialsError)
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyAccountID, claims.AccountID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// ValidateToken parses and validates a token, returning its claims
func (j *JWTAuthenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != "access" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func extractBearerToken(authHeader string) (string, error) {
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidToken
	}
	return authHeader[len(bearerPrefix):], nil
}

// RequireRole checks that the caller has one of the allowed roles.
// Must run after JWTAuth.
func RequireRole(allowedRoles ...models.AccountRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleStr, exists := c.Get(ContextKeyRole)
		if !exists {
			respondWithError(c, apierrors.ErrForbiddenError)
			c.Abort()
			return
		}

		role := models.AccountRole(roleStr.(string))
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		respondWithError(c, &apierrors.APIError{
			Code:       apierrors.ErrForbidden,
			Message:    fmt.Sprintf("Access denied. Required role: %v", allowedRoles),
			HTTPStatus: http.StatusForbidden,
		})
		c.Abort()
	}
}

// RequireBrand requires the brand role
func RequireBrand() gin.HandlerFunc {
	return RequireRole(models.RoleBrand)
}

// RequireCreator requires the creator role
func RequireCreator() gin.HandlerFunc {
	return RequireRole(models.RoleCreator)
}

// RequireAdmin requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireParty allows any authenticated brand or creator
func RequireParty() gin.HandlerFunc {
	return RequireRole(models.RoleBrand, models.RoleCreator)
}

// GetAccountIDFromContext extracts the caller's account ID, empty if absent
func GetAccountIDFromContext(c *gin.Context) string {
	accountID, exists := c.Get(ContextKeyAccountID)
	if !exists {
		return ""
	}
	return accountID.(string)
}

// GetRoleFromContext extracts the caller's role, empty if absent
func GetRoleFromContext(c *gin.Context) models.AccountRole {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return models.AccountRole(role.(string))
}

// GetRequestIDFromContext extracts the request ID, empty if absent
func GetRequestIDFromContext(c *gin.Context) string {
	requestID, exists := c.Get("request_id")
	if !exists {
		return ""
	}
	return requestID.(string)
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// CORS configures CORS headers
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, o := range allowedOrigins {
			if o == origin || o == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Remaining")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "43200") // 12 hours
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, err *apierrors.APIError) {
	c.JSON(err.HTTPStatus, apierrors.ErrorResponse{
		Error:     *err,
		RequestID: GetRequestIDFromContext(c),
	})
}

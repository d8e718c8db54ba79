package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdedejiAdetola/swans-backend/internal/config"
	"github.com/AdedejiAdetola/swans-backend/internal/models"
	"github.com/gin-gonic/gin"
)

func testAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator(&config.JWTConfig{
		Secret:      "test-secret",
		TokenExpiry: 1,
	})
}

func TestIssueAndValidateToken(t *testing.T) {
	auth := testAuthenticator()

	token, err := auth.IssueToken("nike", models.RoleBrand)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.AccountID != "nike" {
		t.Errorf("AccountID = %q, want %q", claims.AccountID, "nike")
	}
	if claims.Role != string(models.RoleBrand) {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleBrand)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := testAuthenticator().IssueToken("nike", models.RoleBrand)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	other := NewJWTAuthenticator(&config.JWTConfig{Secret: "different-secret", TokenExpiry: 1})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if tok, err := extractBearerToken("Bearer abc123"); err != nil || tok != "abc123" {
		t.Errorf("extractBearerToken = (%q, %v), want (abc123, nil)", tok, err)
	}
	if _, err := extractBearerToken("abc123"); err == nil {
		t.Error("header without Bearer prefix should be rejected")
	}
	if _, err := extractBearerToken(""); err == nil {
		t.Error("empty header should be rejected")
	}
}

// The limiter is installed globally and runs before JWTAuth, so it must be
// able to key authenticated traffic off the bearer token itself.
func TestRateLimiterIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := testAuthenticator()
	limiter := NewRateLimiter(nil, &config.RateLimitConfig{Enabled: true, RequestLimit: 10, WindowSeconds: 60}, auth)

	newCtx := func(authHeader string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.RemoteAddr = "203.0.113.7:4242"
		if authHeader != "" {
			c.Request.Header.Set("Authorization", authHeader)
		}
		return c
	}

	t.Run("valid bearer token keys by account", func(t *testing.T) {
		token, _ := auth.IssueToken("nike", models.RoleBrand)
		key, role := limiter.identity(newCtx("Bearer " + token))
		if key != "nike" {
			t.Errorf("key = %q, want %q", key, "nike")
		}
		if role != string(models.RoleBrand) {
			t.Errorf("role = %q, want %q", role, models.RoleBrand)
		}
	})

	t.Run("invalid token falls back to client IP", func(t *testing.T) {
		key, role := limiter.identity(newCtx("Bearer not-a-token"))
		if key != "203.0.113.7" {
			t.Errorf("key = %q, want client IP", key)
		}
		if role != "" {
			t.Errorf("role = %q, want empty", role)
		}
	})

	t.Run("no header falls back to client IP", func(t *testing.T) {
		if key, _ := limiter.identity(newCtx("")); key != "203.0.113.7" {
			t.Errorf("key = %q, want client IP", key)
		}
	})

	t.Run("context identity wins when already set", func(t *testing.T) {
		c := newCtx("")
		c.Set(ContextKeyAccountID, "adidas")
		c.Set(ContextKeyRole, string(models.RoleBrand))
		if key, _ := limiter.identity(c); key != "adidas" {
			t.Errorf("key = %q, want %q", key, "adidas")
		}
	})
}

func performRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_And_RequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := testAuthenticator()

	router := gin.New()
	router.GET("/protected", auth.JWTAuth(), RequireBrand(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"account": GetAccountIDFromContext(c)})
	})

	t.Run("missing token", func(t *testing.T) {
		if w := performRequest(router, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		token, _ := auth.IssueToken("alice", models.RoleCreator)
		if w := performRequest(router, token); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("correct role", func(t *testing.T) {
		token, _ := auth.IssueToken("nike", models.RoleBrand)
		if w := performRequest(router, token); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

// Package httptrigger exposes the scheduled scan over HTTP for the
// long-running deployment. The cron hits /api/scan; the response is the
// batch summary.
package httptrigger

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

// ScanFunc runs one scan cycle and reports its summary.
type ScanFunc func(ctx context.Context) (*types.Summary, error)

// NewRouter builds the trigger router. With an empty secret the scan
// endpoint is open; otherwise it requires an HS256 bearer token.
func NewRouter(scan ScanFunc, secret string) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if secret != "" {
		api.Use(authRequired(secret))
	}

	handler := scanHandler(scan)
	api.POST("/scan", handler)
	api.GET("/scan", handler)

	return r
}

func scanHandler(scan ScanFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := scan(c.Request.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, types.ErrAuthentication) {
				status = http.StatusBadGateway
			}
			c.JSON(status, gin.H{"error": err.Error(), "summary": summary})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func authRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c.Request)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return parts[1]
}

// Token mints a trigger token for the cron caller.
func Token(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

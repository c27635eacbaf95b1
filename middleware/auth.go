package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserKey is the gin context key carrying the authenticated user id.
const UserKey = "user_id"

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken issues a signed bearer token for the given user id.
func GenerateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(72 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// JWT_decoder extracts the user id from the Authorization header.
func JWT_decoder(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return "", jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sub, nil
}

// AuthRequired accepts either a Bearer token or a logged-in session and
// stores the resolved user id in the context.
func AuthRequired(c *gin.Context) {
	if userID, err := JWT_decoder(c); err == nil {
		c.Set(UserKey, userID)
		c.Next()
		return
	}

	session := sessions.Default(c)
	if userID, ok := session.Get(UserKey).(string); ok && userID != "" {
		c.Set(UserKey, userID)
		c.Next()
		return
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// UserID returns the authenticated user id set by AuthRequired.
func UserID(c *gin.Context) string {
	return c.GetString(UserKey)
}

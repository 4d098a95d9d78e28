package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"fpl-optimizer/pkg/utils"
)

const SubjectKey = "auth_subject"

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := parseToken(c, jwtSecret)
		if !ok {
			utils.SendUnauthorized(c, "missing or invalid token")
			c.Abort()
			return
		}
		c.Set(SubjectKey, subject)
		c.Next()
	}
}

// OptionalAuth attaches the subject when a valid token is present but never
// rejects.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject, ok := parseToken(c, jwtSecret); ok {
			c.Set(SubjectKey, subject)
		}
		c.Next()
	}
}

func parseToken(c *gin.Context, jwtSecret string) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", false
	}
	return subject, true
}

package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fpl-optimizer/pkg/config"
	"fpl-optimizer/pkg/utils"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

// Login exchanges a shared access code for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		AccessCode string `json:"access_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	if !h.codeValid(req.AccessCode) {
		utils.SendUnauthorized(c, "invalid access code")
		return
	}

	expires := time.Now().Add(24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	})

	signed, err := token.SignedString([]byte(h.config.JWTSecret))
	if err != nil {
		utils.SendInternalError(c, "failed to sign token")
		return
	}

	utils.SendSuccess(c, gin.H{
		"token":      signed,
		"expires_at": expires.UTC(),
	})
}

func (h *AuthHandler) codeValid(code string) bool {
	for _, allowed := range h.config.AccessCodeList() {
		if subtle.ConstantTimeCompare([]byte(code), []byte(allowed)) == 1 {
			return true
		}
	}
	return false
}

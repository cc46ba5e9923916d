package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/auth"
)

// TokenHandler exchanges the admin secret for an operator bearer token.
type TokenHandler struct {
	AdminSecret string
	TokenConfig auth.TokenConfig
}

type tokenBody struct {
	Secret string `json:"secret"`
}

func (h *TokenHandler) Issue(c *gin.Context) {
	var body tokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(body.Secret), []byte(h.AdminSecret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid admin secret"})
		return
	}

	token, err := auth.CreateToken("operator", h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

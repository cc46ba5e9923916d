package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/middleware"
	"ig-bridge/internal/session"
)

// AuthHandler manages Instagram session lifecycle: login, resume, status,
// logout and import of an externally captured session.
type AuthHandler struct {
	Factory      *instagram.Factory
	Store        session.Store
	LoginLimiter *middleware.RateLimiter
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Proxy    string `json:"proxy"`
}

type usernameBody struct {
	Username string `json:"username"`
}

type importBody struct {
	Username string          `json:"username"`
	Session  json.RawMessage `json:"session"`
	Proxy    string          `json:"proxy"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	_, state, err := h.Factory.CreateFresh(c.Request.Context(), body.Username, body.Password, body.Proxy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "session": state})
}

func (h *AuthHandler) Resume(c *gin.Context) {
	var body usernameBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	if _, err := h.Factory.Resume(c.Request.Context(), body.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session resumed"})
}

func (h *AuthHandler) Status(c *gin.Context) {
	var body usernameBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	active, err := h.Store.Exists(c.Request.Context(), body.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": body.Username, "active": active})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var body usernameBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	existed, err := h.Store.Delete(c.Request.Context(), body.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session removed"})
}

// Import persists an externally captured session blob, then proves it by
// resuming and fetching the account profile.
func (h *AuthHandler) Import(c *gin.Context) {
	var body importBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || len(body.Session) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and session are required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.Save(ctx, body.Username, body.Session, body.Proxy); err != nil {
		respondError(c, err)
		return
	}

	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Imported session is not usable: " + err.Error()})
		return
	}
	profile, err := client.CurrentUser(ctx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Imported session is not usable: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Session imported",
		"logged_in_user": gin.H{
			"username":        profile.Username,
			"full_name":       profile.FullName,
			"profile_pic_url": profile.ProfilePicURL,
		},
	})
}

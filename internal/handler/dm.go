package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/media"
)

type DMHandler struct {
	Factory *instagram.Factory
	Media   *media.Fetcher
}

type sendTextBody struct {
	Username   string `json:"username"`
	ToUsername string `json:"toUsername"`
	Message    string `json:"message"`
}

type sendPhotoBody struct {
	Username   string `json:"username"`
	ToUsername string `json:"toUsername"`
	URL        string `json:"url"`
	Base64     string `json:"base64"`
}

func (h *DMHandler) SendText(c *gin.Context) {
	var body sendTextBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.ToUsername == "" || body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, toUsername and message are required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, err := client.UserIDByUsername(ctx, body.ToUsername)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := client.SendText(ctx, userID, body.Message); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent"})
}

func (h *DMHandler) SendPhoto(c *gin.Context) {
	var body sendPhotoBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.ToUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and toUsername are required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	photo, err := h.Media.Acquire(ctx, media.Source{Base64: body.Base64, URL: body.URL})
	if err != nil {
		respondError(c, err)
		return
	}

	userID, err := client.UserIDByUsername(ctx, body.ToUsername)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := client.SendPhoto(ctx, userID, photo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo sent"})
}

func (h *DMHandler) Inbox(c *gin.Context) {
	var body usernameBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	threads, err := client.Inbox(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h *DMHandler) ThreadMessages(c *gin.Context) {
	threadID := c.Param("threadId")
	if threadID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threadId is required"})
		return
	}

	var body usernameBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := client.ThreadItems(ctx, threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread_id": threadID, "messages": items})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/instagram"
)

type StoriesHandler struct {
	Factory *instagram.Factory
}

type storiesBody struct {
	Username       string `json:"username"`
	TargetUsername string `json:"targetUsername"`
}

func (h *StoriesHandler) Get(c *gin.Context) {
	var body storiesBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.TargetUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and targetUsername are required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, err := client.UserIDByUsername(ctx, body.TargetUsername)
	if err != nil {
		respondError(c, err)
		return
	}
	stories, err := client.UserStories(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

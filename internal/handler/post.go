package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/media"
)

type PostHandler struct {
	Factory *instagram.Factory
	Media   *media.Fetcher
}

// captionedPostBody covers feed photos, feed videos and reels; the media
// itself comes from exactly one of url or base64.
type captionedPostBody struct {
	Username string `json:"username"`
	Caption  string `json:"caption"`
	URL      string `json:"url"`
	Base64   string `json:"base64"`
}

type storyPostBody struct {
	Username string `json:"username"`
	URL      string `json:"url"`
	Base64   string `json:"base64"`
}

func (h *PostHandler) PhotoFeed(c *gin.Context) {
	var body captionedPostBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Caption == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and caption are required"})
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

	result, err := client.PublishPhoto(ctx, photo, body.Caption)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo published to feed", "media": result})
}

func (h *PostHandler) PhotoStory(c *gin.Context) {
	var body storyPostBody
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

	photo, err := h.Media.Acquire(ctx, media.Source{Base64: body.Base64, URL: body.URL})
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := client.PublishStory(ctx, photo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo published to story", "media": result})
}

func (h *PostHandler) VideoFeed(c *gin.Context) {
	var body captionedPostBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Caption == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and caption are required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	video, err := h.Media.Acquire(ctx, media.Source{Base64: body.Base64, URL: body.URL})
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := client.PublishVideo(ctx, video, body.Caption)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video published to feed", "media": result})
}

func (h *PostHandler) VideoStory(c *gin.Context) {
	var body storyPostBody
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

	video, err := h.Media.Acquire(ctx, media.Source{Base64: body.Base64, URL: body.URL})
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := client.PublishVideoStory(ctx, video)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video published to story", "media": result})
}

func (h *PostHandler) VideoReels(c *gin.Context) {
	var body captionedPostBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Caption == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and caption are required"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	video, err := h.Media.Acquire(ctx, media.Source{Base64: body.Base64, URL: body.URL})
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := client.PublishReel(ctx, video, body.Caption)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reel published", "media": result})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/shortcode"
)

// MediaHandler resolves public post URLs without touching Instagram; the
// decode is purely positional.
type MediaHandler struct{}

type resolveBody struct {
	URL string `json:"url"`
}

func (h *MediaHandler) Resolve(c *gin.Context) {
	var body resolveBody
	if err := c.ShouldBindJSON(&body); err != nil || body.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	code, err := shortcode.FromURL(body.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mediaID, err := shortcode.Decode(code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shortcode": code, "media_id": mediaID.String()})
}

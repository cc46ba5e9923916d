package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/media"
	"ig-bridge/internal/session"
)

// respondError maps the core error taxonomy onto HTTP statuses: absence is
// 404, credential or session faults demand re-authentication, caller input
// faults are 400, upstream/storage trouble is 502.
func respondError(c *gin.Context, err error) {
	var fetchErr *media.FetchError
	switch {
	case errors.Is(err, instagram.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, instagram.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Instagram rejected the credentials"})
	case errors.Is(err, instagram.ErrSessionInvalid), errors.Is(err, session.ErrCorrupt):
		c.JSON(http.StatusConflict, gin.H{"error": "Stored session is unusable, log in again"})
	case errors.Is(err, media.ErrAmbiguousSource),
		errors.Is(err, media.ErrInvalidPayload),
		errors.Is(err, media.ErrEmptyMedia),
		errors.Is(err, session.ErrInvalidIdentity),
		errors.Is(err, session.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

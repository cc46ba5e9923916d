package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/media"
	"ig-bridge/internal/model"
)

type ProfileHandler struct {
	Factory *instagram.Factory
	Media   *media.Fetcher
}

type updateBioBody struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	URL      string `json:"url"`
	Base64   string `json:"base64"`
}

// UpdateBio edits the biography and/or replaces the profile picture.
// Instagram's edit endpoint requires the full profile, so the current one is
// fetched first and only the biography changes.
func (h *ProfileHandler) UpdateBio(c *gin.Context) {
	var body updateBioBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if body.Bio == "" && body.URL == "" && body.Base64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	client, err := h.Factory.Resume(ctx, body.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	if body.Bio != "" {
		current, err := client.CurrentUser(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		edit := model.ProfileEdit{
			Username:    current.Username,
			FullName:    current.FullName,
			Biography:   body.Bio,
			ExternalURL: current.ExternalURL,
			PhoneNumber: current.PhoneNumber,
			Email:       current.Email,
		}
		if err := client.EditProfile(ctx, edit); err != nil {
			respondError(c, err)
			return
		}
	}

	if body.URL != "" || body.Base64 != "" {
		photo, err := h.Media.Acquire(ctx, media.Source{Base64: body.Base64, URL: body.URL})
		if err != nil {
			respondError(c, err)
			return
		}
		if err := client.ChangeProfilePicture(ctx, photo); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func (h *ProfileHandler) Get(c *gin.Context) {
	targetUsername := c.Param("targetUsername")
	if targetUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "targetUsername is required"})
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

	userID, err := client.UserIDByUsername(ctx, targetUsername)
	if err != nil {
		respondError(c, err)
		return
	}
	profile, err := client.UserInfo(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

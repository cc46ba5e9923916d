package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/auth"
	"ig-bridge/internal/handler"
	"ig-bridge/internal/hub"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/media"
	"ig-bridge/internal/middleware"
	"ig-bridge/internal/session"
)

type Deps struct {
	Store       session.Store
	Factory     *instagram.Factory
	Media       *media.Fetcher
	TokenConfig auth.TokenConfig
	AdminSecret string
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	tokenHandler := &handler.TokenHandler{
		AdminSecret: deps.AdminSecret,
		TokenConfig: deps.TokenConfig,
	}
	tokenLimiter := middleware.NewRateLimiter(10, time.Minute)
	r.POST("/v1/token", middleware.RateLimitMiddleware(tokenLimiter), tokenHandler.Issue)

	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.TokenConfig))

	authHandler := &handler.AuthHandler{
		Factory:      deps.Factory,
		Store:        deps.Store,
		LoginLimiter: middleware.NewRateLimiter(10, time.Minute),
	}
	protected.POST("/auth/login", authHandler.Login)
	protected.POST("/auth/resume", authHandler.Resume)
	protected.POST("/auth/status", authHandler.Status)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/auth/import", authHandler.Import)

	dmHandler := &handler.DMHandler{Factory: deps.Factory, Media: deps.Media}
	protected.POST("/dm/send", dmHandler.SendText)
	protected.POST("/dm/photo", dmHandler.SendPhoto)
	protected.POST("/dm/inbox", dmHandler.Inbox)
	protected.POST("/dm/thread/:threadId", dmHandler.ThreadMessages)

	postHandler := &handler.PostHandler{Factory: deps.Factory, Media: deps.Media}
	protected.POST("/post/photo-feed", postHandler.PhotoFeed)
	protected.POST("/post/photo-story", postHandler.PhotoStory)
	protected.POST("/post/video-feed", postHandler.VideoFeed)
	protected.POST("/post/video-story", postHandler.VideoStory)
	protected.POST("/post/video-reels", postHandler.VideoReels)

	profileHandler := &handler.ProfileHandler{Factory: deps.Factory, Media: deps.Media}
	protected.POST("/profile/update-bio", profileHandler.UpdateBio)
	protected.POST("/profile/:targetUsername", profileHandler.Get)

	storiesHandler := &handler.StoriesHandler{Factory: deps.Factory}
	protected.POST("/stories", storiesHandler.Get)

	mediaHandler := &handler.MediaHandler{}
	protected.POST("/media/resolve", mediaHandler.Resolve)

	wsHandler := &handler.WebSocketHandler{
		Hub:         hub.New(),
		Factory:     deps.Factory,
		TokenConfig: deps.TokenConfig,
	}
	r.GET("/ws/inbox", wsHandler.Serve)

	return r
}

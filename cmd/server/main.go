package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"ig-bridge/internal/auth"
	"ig-bridge/internal/config"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/media"
	"ig-bridge/internal/server"
	"ig-bridge/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal(err)
	}

	factory := &instagram.Factory{
		Store:        store,
		Build:        instagram.NewAPIClient,
		DefaultProxy: cfg.DefaultProxy,
	}

	tokenCfg := auth.TokenConfig{
		Secret: cfg.AdminSecret,
		Expiry: cfg.TokenExpiry,
		Issuer: "ig-bridge",
	}

	router := server.NewRouter(server.Deps{
		Store:       store,
		Factory:     factory,
		Media:       media.New(cfg.MediaTimeout),
		TokenConfig: tokenCfg,
		AdminSecret: cfg.AdminSecret,
	})
	log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	log.Fatal(server.Run(cfg, router))
}

func newStore(cfg config.Config) (session.Store, error) {
	if cfg.DatabaseURL != "" {
		log.Printf("sessions backed by postgres")
		return session.NewPGStore(context.Background(), cfg.DatabaseURL)
	}
	log.Printf("sessions backed by %s", cfg.SessionsDir)
	return session.NewFileStore(cfg.SessionsDir)
}

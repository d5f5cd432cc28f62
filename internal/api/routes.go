package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"contentwizard/internal/api/middleware"
	"contentwizard/internal/auth"
	"contentwizard/internal/generation"
)

// RegisterRoutes wires all API routes onto the engine.
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	tokens *auth.TokenService,
	redisClient *redis.Client,
	generator *generation.Service,
	logger *slog.Logger,
	loginRateLimitPerHour int,
	loginLockThreshold int,
	loginLockTTL time.Duration,
	cookieDomain string,
) {
	authHandler := NewAuthHandler(db, tokens, redisClient, logger, loginRateLimitPerHour, loginLockThreshold, loginLockTTL, cookieDomain)
	profileHandler := NewProfileHandler(db, logger)
	contentHandler := NewContentHandler(db, generator, logger)
	authMiddleware := middleware.AuthMiddleware(tokens)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
	}

	profileGroup := router.Group("/profile")
	profileGroup.Use(authMiddleware)
	{
		profileGroup.GET("", profileHandler.GetProfile)
		profileGroup.PUT("", profileHandler.UpdateProfile)
		profileGroup.POST("/settings", profileHandler.UpdateSettings)
	}

	contentGroup := router.Group("/content")
	contentGroup.Use(authMiddleware)
	{
		contentGroup.GET("", contentHandler.ListContent)
		contentGroup.POST("/generate", contentHandler.GenerateContent)
		contentGroup.POST("/schedule", contentHandler.ScheduleContent)
		contentGroup.GET("/:id", contentHandler.GetContent)
		contentGroup.PUT("/:id", contentHandler.UpdateContent)
		contentGroup.DELETE("/:id", contentHandler.DeleteContent)
	}
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/vidhub/platform-api/docs"
	"github.com/vidhub/platform-api/internal/api/handler"
	"github.com/vidhub/platform-api/internal/api/middleware"
	"github.com/vidhub/platform-api/internal/core/ports"
	"github.com/vidhub/platform-api/internal/core/service"
	mongodb "github.com/vidhub/platform-api/internal/infrastructure/db/mongo"
	redisdb "github.com/vidhub/platform-api/internal/infrastructure/db/redis"
	"github.com/vidhub/platform-api/internal/infrastructure/http/handlers"
	"github.com/vidhub/platform-api/internal/infrastructure/queue"
	"github.com/vidhub/platform-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The history dispatcher is constructed by the caller so its workers share
// the process lifecycle context.
func NewRouter(db *mongo.Database, rdb *redis.Client, media ports.MediaStore, dispatcher *queue.HistoryDispatcher, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("vidhub"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	graphRepo := mongodb.NewGraphRepository(db)
	tokenService := service.NewTokenService(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	userService := service.NewUserService(userRepo, tokenService, media, cfg.Auth.RevokeSessionsOnPasswordChange, log)
	channelService := service.NewChannelService(graphRepo, redisdb.NewProfileCache(rdb), log)

	userHandler := handler.NewUserHandler(userService)
	channelHandler := handler.NewChannelHandler(channelService, dispatcher)
	authRequired := middleware.Auth(tokenService)

	// --- Public routes ---
	v1 := e.Group("/api/v1")
	v1.POST("/users/register", userHandler.Register)
	v1.POST("/users/login", userHandler.Login)
	v1.POST("/users/refresh-token", userHandler.Refresh)

	// --- Authenticated routes ---
	me := v1.Group("/users", authRequired)
	me.POST("/logout", userHandler.Logout)
	me.POST("/change-password", userHandler.ChangePassword)
	me.GET("/me", userHandler.Me)
	me.PATCH("/me", userHandler.UpdateAccount)
	me.PATCH("/avatar", userHandler.UpdateAvatar)
	me.PATCH("/cover-image", userHandler.UpdateCoverImage)
	me.GET("/history", channelHandler.GetWatchHistory)
	me.POST("/history/:video_id", channelHandler.AddWatchHistory)

	v1.GET("/channels/:username", channelHandler.GetChannelProfile, authRequired)

	// --- Operational endpoints ---
	healthHandler := handlers.NewHealthHandler()
	mediaCheck, _ := media.(handlers.MediaHealthChecker)
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb, mediaCheck)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}

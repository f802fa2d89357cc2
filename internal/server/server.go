// Package server contains the HTTP handlers for the API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "agrisocial/docs" // swagger docs
	"agrisocial/internal/cache"
	"agrisocial/internal/config"
	"agrisocial/internal/database"
	"agrisocial/internal/featureflags"
	"agrisocial/internal/middleware"
	"agrisocial/internal/models"
	"agrisocial/internal/repository"
	"agrisocial/internal/service"
	"agrisocial/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	store          *storage.Store

	authService        *service.AuthService
	userService        *service.UserService
	postService        *service.PostService
	commentService     *service.CommentService
	marketplaceService *service.MarketplaceService
	communityService   *service.CommunityService
	followService      *service.FollowService
	messageService     *service.MessageService
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and the bootstrap layer use it; redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	itemRepo := repository.NewMarketplaceRepository(db)
	communityRepo := repository.NewCommunityRepository(db)
	followRepo := repository.NewFollowRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	store := storage.NewStore(cfg.UploadDir, cfg.UploadMaxSizeMB)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	tokenTTL := time.Duration(cfg.JWTExpiryHours) * time.Hour

	models.ExposeDetails = !cfg.IsProduction()

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("agrisocial-api"),
		featureFlags:   flags,
		store:          store,

		authService:        service.NewAuthService(userRepo, cfg.JWTSecret, tokenTTL),
		userService:        service.NewUserService(userRepo, followRepo, store),
		postService:        service.NewPostService(postRepo, userRepo, communityRepo, store),
		commentService:     service.NewCommentService(commentRepo, postRepo),
		marketplaceService: service.NewMarketplaceService(itemRepo, store),
		communityService:   service.NewCommunityService(communityRepo, userRepo),
		followService:      service.NewFollowService(followRepo, userRepo, communityRepo),
		messageService:     service.NewMessageService(messageRepo, userRepo, communityRepo, flags),
	}, nil
}

// NewApp returns a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := s.config.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 20
	}

	app := fiber.New(fiber.Config{
		AppName:      "agrisocial API",
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escape handlers in the standard envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return models.RespondWithError(c, fiberErr.Code, &models.AppError{
			Code:    codeForStatus(fiberErr.Code),
			Message: fiberErr.Message,
		})
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Propagates request and trace IDs into the request context.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so 429 responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			middleware.RateLimitRejections.WithLabelValues("global").Inc()
			return models.RespondWithError(c, fiber.StatusTooManyRequests, &models.AppError{
				Code:    codeForStatus(fiber.StatusTooManyRequests),
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(storage.PublicPrefix, s.store.Root(), fiber.Static{
		Browse: false,
		MaxAge: 3600,
	})

	api := app.Group("/api")
	api.Get("/", s.ReadinessCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth
	api.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	api.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public reads
	api.Get("/users", s.GetAllUsers)
	api.Get("/users/:id/posts", s.GetUserPosts)
	api.Get("/users/:id/joined_communities", s.GetJoinedCommunities)
	api.Get("/users/:id/followers", s.GetFollowers)
	api.Get("/users/:id/following_communities", s.GetFollowingCommunities)
	api.Get("/users/:id/following", s.GetFollowingUsers)
	api.Get("/users/:id", s.GetUserProfile)

	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id", s.GetPost)
	api.Get("/comments/:id/replies", s.GetReplies)

	api.Get("/marketplace/items", s.GetItems)
	api.Get("/marketplace/items/:id", s.GetItem)

	api.Get("/communities", s.GetCommunities)
	api.Get("/communities/:id/posts", s.GetCommunityPosts)
	api.Get("/communities/:id/members", s.GetCommunityMembers)
	api.Get("/communities/:id", s.GetCommunity)

	search := api.Group("/search", s.SearchEnabled(),
		middleware.RateLimit(s.redis, 30, time.Minute, "search"))
	search.Get("/users", s.SearchUsers)
	search.Get("/communities", s.SearchCommunities)
	search.Get("/posts", s.SearchPosts)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protected.Post("/logout", s.Logout)
	protected.Get("/verify_token", s.VerifyToken)
	protected.Get("/feature-flags", s.GetFeatureFlags)

	protected.Get("/profile", s.GetMyProfile)
	protected.Put("/profile", s.UpdateMyProfile)
	protected.Delete("/profile", s.DeleteMyAccount)

	protected.Post("/users/:id/follow", s.FollowUser)
	protected.Delete("/users/:id/unfollow", s.UnfollowUser)
	protected.Get("/users/:id/is_following", s.IsFollowing)
	protected.Post("/follow", s.Follow)
	protected.Post("/unfollow", s.Unfollow)

	protected.Post("/posts", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	protected.Post("/posts/:id/like", s.LikePost)
	protected.Delete("/posts/:id/like", s.UnlikePost)
	protected.Post("/posts/:id/unlike", s.UnlikePost)
	protected.Post("/posts/:id/comments", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	protected.Put("/posts/:id", s.UpdatePost)
	protected.Delete("/posts/:id", s.DeletePost)

	protected.Post("/comments/:id/like", s.LikeComment)
	protected.Delete("/comments/:id/like", s.UnlikeComment)
	protected.Put("/comments/:id", s.UpdateComment)
	protected.Delete("/comments/:id", s.DeleteComment)

	protected.Post("/marketplace/items", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_item"), s.CreateItem)
	protected.Put("/marketplace/items/:id", s.UpdateItem)
	protected.Delete("/marketplace/items/:id", s.DeleteItem)

	protected.Post("/communities", s.CreateCommunity)
	protected.Post("/communities/:id/join", s.JoinCommunity)
	protected.Post("/communities/:id/leave", s.LeaveCommunity)
	protected.Put("/communities/:id", s.UpdateCommunity)
	protected.Delete("/communities/:id", s.DeleteCommunity)

	protected.Post("/messages", middleware.RateLimit(s.redis, 30, time.Minute, "send_message"), s.SendMessage)
	protected.Get("/messages/direct/:userId", s.GetConversation)
	protected.Get("/messages/community/:id", s.GetCommunityMessages)
	protected.Get("/messages/sent", s.GetSentMessages)
	protected.Get("/messages/received", s.GetReceivedMessages)
	protected.Put("/messages/:id/read", s.MarkMessageRead)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The cache degrades to pass-through, so a missing client does not fail readiness.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

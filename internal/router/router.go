package router

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/socialpulse/backend/internal/handlers"
	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
)

// Deps are the external resources the routes are built on.
type Deps struct {
	Postgres        *gorm.DB
	Mongo           *mongo.Database
	Hub             *realtime.Hub
	JWTSecret       string
	FirebaseAuth    middleware.IDTokenVerifier // nil disables Firebase ID tokens
	NotificationTTL time.Duration
	AllowedOrigins  []string
}

// SetupRoutes migrates the schema, builds repositories and services, and
// registers every route.
func SetupRoutes(ctx context.Context, e *echo.Echo, deps Deps) error {
	err := deps.Postgres.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logging.Info().Msg("PostgreSQL auto-migrations completed for all models.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	postRepo := repositories.NewMongoPostRepository(deps.Mongo)
	notificationRepo := repositories.NewMongoNotificationRepository(deps.Mongo)
	conversationRepo := repositories.NewMongoConversationRepository(deps.Mongo)
	messageRepo := repositories.NewMongoMessageRepository(deps.Mongo)

	if err := notificationRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("notification indexes: %w", err)
	}
	logging.Info().Msg("MongoDB notification indexes ensured.")

	notifier := notify.NewService(notificationRepo, deps.Hub, userRepo, deps.NotificationTTL)

	// Health check and websocket, unauthenticated. Socket identity comes from the setup event.
	e.GET("/health", handlers.HealthCheck)
	realtime.NewHandler(deps.Hub, deps.AllowedOrigins).RegisterRoutes(e)
	logging.Info().Msg("Websocket route configured.")

	// --- Protected routes ---
	authenticators := []middleware.Authenticator{middleware.JWTAuthenticator(deps.JWTSecret)}
	if deps.FirebaseAuth != nil {
		authenticators = append(authenticators, middleware.FirebaseAuthenticator(deps.FirebaseAuth, userRepo))
	}
	api := e.Group("/api/v1")
	api.Use(middleware.BearerAuth(authenticators...))
	logging.Info().Int("authenticators", len(authenticators)).Msg("Bearer authentication applied to /api/v1 group.")

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	logging.Info().Msg("User profile routes configured.")

	handlers.NewNotificationHandler(notificationRepo, userRepo).RegisterNotificationRoutes(api)
	logging.Info().Msg("Notification routes configured.")

	handlers.NewMessageHandler(conversationRepo, messageRepo, notificationRepo, userRepo, deps.Hub, notifier).RegisterMessageRoutes(api)
	logging.Info().Msg("Message routes configured.")

	handlers.NewFollowHandler(followRepo, userRepo, notifier).RegisterFollowRoutes(api)
	logging.Info().Msg("Follow routes configured.")

	handlers.NewPostHandler(postRepo, userRepo, followRepo, notifier).RegisterPostRoutes(api)
	handlers.NewLikeHandler(likeRepo, postRepo, userRepo, notifier).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(commentRepo, postRepo, userRepo, notifier).RegisterCommentRoutes(api)
	logging.Info().Msg("Post, like and comment routes configured.")

	handlers.NewPresenceHandler(deps.Hub).RegisterPresenceRoutes(api)
	logging.Info().Msg("Presence routes configured.")

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	handlers.NewAdminHandler(userRepo, notifier).RegisterAdminRoutes(admin)
	logging.Info().Msg("Admin routes configured.")

	logging.Info().Msg("All routes configured.")
	return nil
}

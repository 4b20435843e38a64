package server

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sharebite/sharebite/internal/config"
	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/middleware"

	donationHttp "github.com/sharebite/sharebite/internal/modules/donation/delivery/http"
	donationRepo "github.com/sharebite/sharebite/internal/modules/donation/repository"
	donationService "github.com/sharebite/sharebite/internal/modules/donation/service"

	feedHttp "github.com/sharebite/sharebite/internal/modules/feed/delivery/http"
	feedService "github.com/sharebite/sharebite/internal/modules/feed/service"

	userHttp "github.com/sharebite/sharebite/internal/modules/user/delivery/http"
	userRepo "github.com/sharebite/sharebite/internal/modules/user/repository"
	userService "github.com/sharebite/sharebite/internal/modules/user/service"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	sweeper     *donationService.Sweeper
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)
	donations := donationRepo.NewDonationRepository(db)

	publisher := feedService.NewPublisher(redisClient)

	authSvc := userService.NewAuthService(users, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	donationSvc := donationService.NewDonationService(donations, users, publisher, redisClient, cfg.RateLimitDonation)
	donationHandler := donationHttp.NewDonationHandler(donationSvc)

	feedHandler := feedHttp.NewFeedHandler(redisClient)

	sweeper := donationService.NewSweeper(donations, publisher, cfg.SweepInterval, cfg.DivertExpiredEdible, cfg.DivertGrace)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(users)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/organisations/nearest", authHandler.NearestOrganisations)

		// All roles share the partitioned "mine" dashboard and the live feed.
		anyRole := authMiddleware.RequireAnyRole(entity.RoleDonor, entity.RoleRecipient, entity.RoleVolunteer)
		protected.GET("/donations/mine", anyRole, donationHandler.GetMine)
		protected.GET("/donations/ws", feedHandler.HandleWebSocket)

		// Donor
		protected.POST("/donations", authMiddleware.RequireRole(entity.RoleDonor), donationHandler.CreateDonation)
		protected.DELETE("/donations/:id", authMiddleware.RequireRole(entity.RoleDonor), donationHandler.DeleteDonation)
		protected.GET("/donations/analytics", authMiddleware.RequireRole(entity.RoleDonor), donationHandler.GetAnalytics)

		// Recipient
		recipient := authMiddleware.RequireRole(entity.RoleRecipient)
		protected.GET("/donations/feed", recipient, donationHandler.GetFeed)
		protected.POST("/donations/:id/claim", recipient, donationHandler.Claim)
		protected.POST("/donations/:id/volunteer", recipient, donationHandler.RequestVolunteer)
		protected.POST("/donations/:id/confirm", recipient, donationHandler.Confirm)

		// Volunteer
		volunteer := authMiddleware.RequireRole(entity.RoleVolunteer)
		protected.GET("/donations/available", volunteer, donationHandler.GetAvailable)
		protected.POST("/donations/:id/accept", volunteer, donationHandler.Accept)

		// Shared pickup/delivery path: the claiming organisation on the
		// no-volunteer path, or the assigned volunteer.
		carrier := authMiddleware.RequireAnyRole(entity.RoleRecipient, entity.RoleVolunteer)
		protected.POST("/donations/:id/pick", carrier, donationHandler.MarkPicked)
		protected.POST("/donations/:id/deliver", carrier, donationHandler.MarkDelivered)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		sweeper:     sweeper,
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run(addr string) error {
	go s.sweeper.Start(context.Background())
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

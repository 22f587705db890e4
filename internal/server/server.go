package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/community-forum/backend/internal/config"
	"github.com/emilythestrangee/community-forum/backend/internal/database"
	"github.com/emilythestrangee/community-forum/backend/internal/handlers"
	"github.com/emilythestrangee/community-forum/backend/internal/middleware"
)

type Server struct {
	db      *gorm.DB
	handler *handlers.Handler
	cfg     *config.Config
}

// New wires the router onto an http.Server.
func New(cfg *config.Config, db *gorm.DB, handler *handlers.Handler) *http.Server {
	s := &Server{db: db, handler: handler, cfg: cfg}

	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, database.Health(s.db))
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/signup", s.handler.Auth.Signup)
		api.POST("/verify", s.handler.Auth.Verify)
		api.POST("/resend-code", s.handler.Auth.ResendCode)
		api.POST("/login", s.handler.Auth.Login)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.Auth([]byte(s.cfg.JWTSecret)))
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.GET("/users/:id", s.handler.Auth.GetUserProfile)

			// Communities and membership
			protected.POST("/communities", s.handler.Community.Create)
			protected.GET("/communities", s.handler.Community.List)
			protected.GET("/communities/:communityId", s.handler.Community.Get)
			protected.POST("/communities/:communityId/join", s.handler.Community.Join)
			protected.POST("/communities/:communityId/requests/:userId/accept", s.handler.Community.AcceptJoin)
			protected.DELETE("/communities/:communityId/requests/:userId", s.handler.Community.DeclineJoin)
			protected.DELETE("/communities/:communityId/members/:userId", s.handler.Community.RemoveMember)
			protected.DELETE("/communities/:communityId", s.handler.Community.Delete)

			// Posts
			protected.POST("/communities/:communityId/posts", s.handler.Post.Create)
			protected.GET("/communities/:communityId/posts", s.handler.Post.List)
			protected.GET("/posts/:id", s.handler.Post.Get)
			protected.PATCH("/posts/:id", s.handler.Post.Update)
			protected.DELETE("/posts/:id", s.handler.Post.Delete)

			// Comments
			protected.POST("/posts/:id/comments", s.handler.Comment.Create)
			protected.GET("/posts/:id/comments", s.handler.Comment.List)
			protected.PUT("/comments/:commentId", s.handler.Comment.Update)
			protected.DELETE("/comments/:commentId", s.handler.Comment.Delete)

			// Votes
			protected.POST("/vote", s.handler.Vote.Cast)
		}
	}

	return r
}

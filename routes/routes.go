package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chirp/apperror"
	"chirp/config"
	"chirp/handlers"
	"chirp/middleware"
	"chirp/services"
	"chirp/validation"
)

type Deps struct {
	Config config.Config
	Log    zerolog.Logger
	Users  *services.UserService
	Posts  *services.PostService
	// Ready reports whether the store is reachable; nil means always ready.
	Ready func() error
}

func SetupRouter(deps Deps) *gin.Engine {
	validation.Register()

	router := gin.New()
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(middleware.ErrorReporter(deps.Log))
	router.Use(middleware.Recovery())
	router.Use(middleware.SecureHeaders())
	router.Use(cors.New(corsConfig(deps.Config.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})

	userHandler := handlers.NewUserHandler(deps.Users)
	postHandler := handlers.NewPostHandler(deps.Posts)

	users := router.Group("/api/users")
	users.POST("/signup", userHandler.Signup)
	users.POST("/login", userHandler.Login)

	posts := router.Group("/api/posts")
	posts.Use(middleware.JWTAuthMiddleware(deps.Users))
	posts.POST("", postHandler.CreatePost)
	posts.GET("", postHandler.GetAllPosts)
	posts.GET("/me", postHandler.GetMyPosts)
	posts.GET("/:postId", postHandler.GetPost)
	posts.POST("/:postId/likes", postHandler.LikePost)
	posts.POST("/:postId/comments", postHandler.CommentPost)
	posts.DELETE("/:postId", postHandler.DeletePost)
	posts.DELETE("/:postId/comments/:commentId", postHandler.DeleteComment)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			_ = c.Error(apperror.NotFound("Endpoint not found"))
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"X-Token", "X-Request-ID", "Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

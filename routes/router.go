package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/controllers"
	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// Deps are the constructed services the router wires into controllers.
type Deps struct {
	Config      config.AppConfig
	Logger      *zap.Logger
	Accounts    *services.Accounts
	Credentials *services.Credentials
	Posts       *services.Posts
	Cache       *utils.Cache
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log goes to its own rolling file when configured
	accessLog := d.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg); err == nil {
			accessLog = gl
		} else {
			d.Logger.Warn("gin access log falls back to app logger", zap.Error(err))
		}
	}
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(d.Logger, false, func(ctx *gin.Context, _ any) {
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "internal server error", "")
		ctx.Abort()
	}))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// browsers reject credentials with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, "ok", gin.H{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		r.GET("/metrics", middleware.MetricsHandler())
	}

	userController := controllers.NewUserController(d.Accounts, d.Credentials, d.Logger)
	postController := controllers.NewPostController(d.Posts, d.Cache, d.Logger)

	authRequired := middleware.AuthRequired(d.Credentials, d.Accounts)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	api := r.Group("/api/v1")

	users := api.Group("/users")
	users.POST("/signup", limiter.Middleware(), userController.Signup)
	users.POST("/login", limiter.Middleware(), userController.Login)
	users.POST("/logout", authRequired, userController.Logout)
	users.GET("/me", authRequired, userController.Me)

	posts := api.Group("/blogposts")
	posts.GET("", postController.ListPosts)
	// the static segment takes precedence over /:id
	posts.GET("/myblogs", authRequired, postController.ListMine)
	posts.GET("/:id", postController.GetPost)
	posts.POST("", authRequired, postController.CreatePost)
	posts.PUT("/:id", authRequired, postController.UpdatePost)
	posts.DELETE("/:id", authRequired, postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeRouteNotFound, "route not found", "")
	})

	return r
}

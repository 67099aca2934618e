package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/handler"
	"github.com/stemsi/kodemy-backend/internal/middleware"
	"github.com/stemsi/kodemy-backend/internal/response"
)

// catalogMaxAge is the Cache-Control max-age for public catalog reads.
const catalogMaxAge = 60 * time.Second

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Course *handler.CourseHandler
	Order  *handler.OrderHandler
	Gemini *handler.GeminiHandler
	WS     *handler.WSHandler
	SSE    *handler.SSEHandler
}

// Deps carries the non-handler collaborators the routes need.
type Deps struct {
	Tokens        middleware.TokenValidator
	Users         middleware.UserLookup
	GeminiLimiter *middleware.RateLimiter
	Log           zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(deps.Log))

	// Brotli wraps the writer first so error responses are compressed too.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper: func(c *gin.Context) bool {
			return strings.HasSuffix(c.FullPath(), "/events")
		},
	}))
	router.Use(middleware.ErrorHandler(deps.Log))

	jwt := middleware.RequireJWT(deps.Tokens, deps.Users)

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Accounts ───────────────────────────────────────────────────
	router.GET("/", handlers.Auth.Home)
	router.POST("/register", handlers.Auth.Register)
	router.POST("/login", handlers.Auth.Login)
	router.POST("/google-login", handlers.Auth.GoogleLogin)
	router.GET("/profile", jwt, handlers.Auth.GetProfile)
	router.PUT("/profile", jwt, handlers.Auth.UpdateProfile)
	router.DELETE("/delete-account", jwt, handlers.Auth.DeleteAccount)

	// ─── 2. Catalog (public reads, cached by clients) ──────────────────
	catalogCache := middleware.CacheControl(catalogMaxAge)

	courses := router.Group("/courses")
	{
		courses.GET("", catalogCache, handlers.Course.ListCourses)
		courses.GET("/:id", catalogCache, handlers.Course.GetCourse)
		courses.GET("/:id/reviews", catalogCache, handlers.Course.ListReviews)
		courses.POST("/:id/reviews", jwt, handlers.Course.CreateReview)
	}
	router.GET("/categories", catalogCache, handlers.Course.ListCategories)

	// ─── 3. Orders ─────────────────────────────────────────────────────
	orders := router.Group("/orders")
	{
		// Called by the payment gateway, which carries no user token.
		orders.POST("/notification", handlers.Order.HandleNotification)

		orders.POST("/checkout", jwt, handlers.Order.Checkout)
		orders.GET("/:id", jwt, handlers.Order.GetOrder)
		orders.GET("/:id/events", jwt, handlers.SSE.OrderStatusEvents)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(jwt)
	{
		ws.GET("/orders/:id/stream", handlers.WS.OrderStatusStream)
	}

	// ─── 5. AI quizzes (rate limited per IP) ───────────────────────────
	gemini := router.Group("/gemini")
	if deps.GeminiLimiter != nil {
		gemini.Use(deps.GeminiLimiter.Middleware())
	}
	{
		gemini.POST("/generate-quiz", handlers.Gemini.GenerateQuiz)
		gemini.GET("/generate-quiz-kaboom", handlers.Gemini.GenerateKaboomQuiz)
		gemini.POST("/check-answers", handlers.Gemini.CheckAnswers)
		gemini.POST("/get-hint", handlers.Gemini.GetHint)
	}

	return router
}

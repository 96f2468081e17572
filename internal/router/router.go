package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spardha-tech/spardha-backend/internal/config"
	"github.com/spardha-tech/spardha-backend/internal/handler"
	"github.com/spardha-tech/spardha-backend/internal/middleware"
	"github.com/spardha-tech/spardha-backend/internal/response"
	"github.com/spardha-tech/spardha-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Portal    *handler.PortalHandler
	Organizer *handler.OrganizerHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

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
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireParticipantJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireParticipantJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Portal Group (Participant JWT + Single Device) ─────────────
	portalAPI := router.Group("/api/v1/portal")
	portalAPI.Use(
		middleware.RequireParticipantJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		portalAPI.GET("/competitions/:competition/quizzes", handlers.Portal.ListQuizzes)
		portalAPI.GET("/competitions/:competition/enrollments", handlers.Portal.MyEnrollments)
		portalAPI.GET("/quizzes/:quiz_id", handlers.Portal.GetQuiz)
		portalAPI.POST("/quizzes/:quiz_id/enroll", handlers.Portal.Enroll)
		portalAPI.POST("/quizzes/:quiz_id/session", handlers.Portal.EnterSession)
		portalAPI.GET("/quizzes/:quiz_id/session", handlers.Portal.SessionState)
		portalAPI.GET("/quizzes/:quiz_id/paper", handlers.Portal.QuestionPaper)
		portalAPI.POST("/quizzes/:quiz_id/submit", handlers.Portal.Submit)
		portalAPI.GET("/quizzes/:quiz_id/result", handlers.Portal.MyResult)
		// Rendered pages are immutable once captured, so clients may cache them.
		portalAPI.GET("/mirage-pages/:page_id", middleware.CacheControl(3600), handlers.Portal.MiragePage)
	}

	// ─── 3. WebSocket Group (Participant WS Auth) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(authService))
	{
		ws.GET("/portal/quizzes/:quiz_id/proctor", handlers.WS.ProctorStream)
	}

	// ─── 4. Organizer Group (Organizer JWT) ────────────────────────────
	organizerAPI := router.Group("/api/v1/organizer")
	organizerAPI.Use(middleware.RequireOrganizerJWT(authService))
	{
		organizerAPI.POST("/quizzes", handlers.Organizer.CreateQuiz)
		organizerAPI.PATCH("/quizzes/:quiz_id/schedule", handlers.Organizer.UpdateSchedule)
		organizerAPI.POST("/quizzes/:quiz_id/questions", handlers.Organizer.AddQuestion)
		organizerAPI.GET("/quizzes/:quiz_id/questions", handlers.Organizer.ListQuestions)
		organizerAPI.GET("/quizzes/:quiz_id/submissions", handlers.Organizer.ListSubmissions)
		organizerAPI.POST("/submissions/:submission_id/grade", handlers.Organizer.GradeMirage)

		organizerAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}

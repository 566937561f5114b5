package server

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"csvpilot/internal/analyzer"
	"csvpilot/internal/billing"
	"csvpilot/internal/config"
	"csvpilot/internal/entitlement"
	"csvpilot/internal/handler"
	"csvpilot/internal/middleware"
	"csvpilot/internal/service"
	"csvpilot/internal/session"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	router           *gin.Engine
	config           *config.Config
	store            session.Store
	codec            *session.CookieCodec
	pageHandler      *handler.PageHandler
	analyzeHandler   *handler.AnalyzeHandler
	checkoutHandler  *handler.CheckoutHandler
	webhookHandler   *handler.WebhookHandler
	analyticsHandler *handler.AnalyticsHandler
	httpServer       *http.Server
}

// New wires the application. audit may be nil (no database configured);
// the analytics routes are simply not registered then.
func New(cfg *config.Config, store session.Store, completer analyzer.Completer, audit *service.AuditService) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	codec := session.NewCookieCodec(cfg.Session.Secret, cfg.Session.TTL)
	resolver := billing.NewResolver(cfg)

	s := &Server{
		router:          router,
		config:          cfg,
		store:           store,
		codec:           codec,
		pageHandler:     handler.NewPageHandler(store, cfg),
		analyzeHandler:  handler.NewAnalyzeHandler(completer, store, cfg, audit),
		checkoutHandler: handler.NewCheckoutHandler(resolver, audit),
		webhookHandler:  handler.NewWebhookHandler(cfg.Stripe.WebhookSecret),
	}

	if audit != nil {
		analytics := service.NewAnalyticsService(audit.Repository())
		s.analyticsHandler = handler.NewAnalyticsHandler(analytics)
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.Visitor(s.codec, s.store))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/", s.pageHandler.Landing)
	s.router.POST("/upload", s.analyzeHandler.Upload)
	s.router.POST("/create-checkout-session", s.checkoutHandler.Create)
	s.router.POST("/webhook", s.webhookHandler.Handle)

	if s.analyticsHandler != nil {
		admin := s.router.Group("/admin")
		{
			admin.GET("/analytics", s.analyticsHandler.GetSummary)
		}
	}
}

// Liveness plus the caller's own entitlement snapshot
func (s *Server) healthCheck(c *gin.Context) {
	state := middleware.SessionState(c)
	quota := s.config.Quota

	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"pro":                 state.Pro,
		"credits":             state.Credits,
		"remaining_free_runs": entitlement.Remaining(state, time.Now(), quota.FreeRunLimit, quota.Window()),
		"free_window_seconds": quota.FreeWindowSeconds,
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  90 * time.Second, // the AI call dominates request time
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting csvpilot on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

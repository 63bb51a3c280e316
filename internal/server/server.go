// Package server exposes the webhook and administrative HTTP surface.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Nolger/chatbot/internal/dialogue"
	"github.com/Nolger/chatbot/internal/whatsapp"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server routes webhook deliveries to the dialogue engine and serves the
// agent panel's read/write API.
type Server struct {
	db          *gorm.DB
	engine      *dialogue.Engine
	sender      whatsapp.Sender
	verifyToken string
	router      *gin.Engine
}

// Opts holds parameters for creating a Server.
type Opts struct {
	DB          *gorm.DB
	Engine      *dialogue.Engine
	Sender      whatsapp.Sender
	VerifyToken string
}

// New creates a Server and registers its routes.
func New(opts Opts) (*Server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("server: dialogue engine is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("server: sender is required")
	}
	if opts.VerifyToken == "" {
		return nil, fmt.Errorf("server: verify token is required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		db:          opts.DB,
		engine:      opts.Engine,
		sender:      opts.Sender,
		verifyToken: opts.VerifyToken,
		router:      router,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the webhook and admin routes.
func (s *Server) registerRoutes() {
	s.router.GET("/webhook", s.handleVerify)
	s.router.POST("/webhook", s.handleEvents)

	api := s.router.Group("/api")
	api.GET("/chats", s.handleListChats)
	api.GET("/chats/:id/messages", s.handleChatMessages)
	api.POST("/chats/:id/messages", s.handleAgentMessage)
	api.PUT("/chats/:id/control", s.handleSetControl)
	api.GET("/orders", s.handleListOrders)
	api.PUT("/orders/:id/status", s.handleOrderStatus)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run launches the HTTP server. It blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, port int, out io.Writer) error {
	if port <= 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if out != nil {
		fmt.Fprintf(out, "Webhook bridge listening on :%d\n", port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Package server hosts the comments widget over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"ytcomments/config"
	xhttp "ytcomments/http"
	"ytcomments/render"
	"ytcomments/storage"
	"ytcomments/widget"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxPageBytes bounds the host page accepted by /render.
const maxPageBytes = 5 << 20

// Server serves embeds, rendered comment fragments, and the admin settings.
type Server struct {
	cfg     *config.Config
	lister  widget.CommentLister
	widget  *widget.Widget
	store   storage.SettingsStore
	limiter *xhttp.RateLimiter
	router  *gin.Engine
}

// New wires the routes. store holds the default API key used when a request
// does not carry its own.
func New(cfg *config.Config, lister widget.CommentLister, renderer *render.Renderer, store storage.SettingsStore) *Server {
	s := &Server{
		cfg:    cfg,
		lister: lister,
		widget: widget.New(lister, renderer),
		store:  store,
		limiter: xhttp.NewRateLimiter(xhttp.RateLimiterConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		}),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 0 || containsWildcard(s.cfg.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	r.Use(cors.New(corsConfig))
	r.Use(PrometheusMiddleware())

	r.GET("/health", s.health)
	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := r.Group("/", RateLimitMiddleware(s.limiter))
	{
		limited.GET("/embed", s.embed)
		limited.GET("/comments/:videoId", s.commentsFragment)
		limited.GET("/api/comments", s.commentsJSON)
		limited.POST("/render", s.renderPage)
	}

	admin := r.Group("/admin", AdminAuthMiddleware(s.cfg.AdminToken))
	{
		admin.GET("/settings", s.getSettings)
		admin.PUT("/settings", s.putSettings)
	}

	return r
}

// Handler returns the HTTP handler for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.ListenAddr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

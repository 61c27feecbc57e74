// Package server exposes an editing session over HTTP so a browser canvas
// can drive it. All state lives in one editor.Session; requests are
// serialized on a mutex.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/tordrt/dbdesigner/internal/editor"
	"github.com/tordrt/dbdesigner/internal/store"
)

// Config configures a Server
type Config struct {
	Logger  logger.Logger
	Session *editor.Session
	// Store enables the /diagrams routes when set
	Store *store.Store
	// AllowOrigins defaults to any origin
	AllowOrigins []string
	// Now stamps generated SQL; defaults to time.Now
	Now func() time.Time
}

// Server is the HTTP front of an editing session
type Server struct {
	mu        sync.Mutex
	session   *editor.Session
	store     *store.Store
	diagramID string
	logger    logger.Logger
	now       func() time.Time
	router    *gin.Engine
}

// New builds the router. The session defaults to a fresh one.
func New(config Config) *Server {
	s := &Server{
		session: config.Session,
		store:   config.Store,
		now:     config.Now,
	}
	if s.session == nil {
		s.session = editor.NewSession()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if config.Logger != nil {
		s.logger = config.Logger.WithPrefix("[server]")
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	if len(config.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.registerRoutes(router.Group("/api/v1"))

	s.router = router
	return s
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.info("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "failed to serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		if s.logger != nil {
			s.logger.Debug("%s %s %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(started))
		}
	}
}

func (s *Server) info(format string, args ...any) {
	if s.logger != nil {
		s.logger.Info(format, args...)
	}
}

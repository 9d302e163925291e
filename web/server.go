// Package web serves the assistant as an HTML form and a small JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hupe1980/devcrew/assistant"
	"github.com/hupe1980/devcrew/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTitle is the HTML document title.
const PageTitle = "Multi-Agent Dev Assistant"

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, input string) assistant.Reply
}

// Options configures a Server.
type Options struct {
	// AllowOrigins restricts CORS. Empty allows all origins.
	AllowOrigins []string
	// Examples are offered below the form.
	Examples []string
	// Topology is served on /api/topology when set.
	Topology any
	// BasePath prefixes form actions in the rendered page.
	BasePath        string
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

// Server is the HTTP front end.
type Server struct {
	asker  Asker
	opts   Options
	engine *gin.Engine
}

// New parses the templates and builds the router.
func New(asker Asker, optFns ...func(o *Options)) (*Server, error) {
	opts := Options{
		ShutdownTimeout: 10 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}

	s := &Server{asker: asker, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger))

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = opts.AllowOrigins
	}
	r.Use(cors.New(corsConfig))

	r.SetHTMLTemplate(tmpl)

	s.routes(r)
	s.engine = r

	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownErr := make(chan error, 1)

	go func() {
		<-ctx.Done()

		s.opts.Logger.Info("http.shutdown", "addr", addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.opts.Logger.Info("http.start", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: serve: %w", err)
	}

	return <-shutdownErr
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

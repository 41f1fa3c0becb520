// Package server is the HTTP backend of the web console. Every browser gets
// its own session, tree cache and controller; the consent popup lands on the
// callback route and reports back to the page with postMessage.
package server

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/controller"
	"github.com/repolens/cli/logging"
	"github.com/repolens/cli/metrics"
	"github.com/repolens/cli/session"
	"github.com/repolens/cli/uuid"
	"go.uber.org/zap"
)

const (
	sessionCookie    = "repolens_session"
	remoteUserHeader = "X-Remote-User"
	controllerKey    = "controller"

	DefaultSessionTTL = 12 * time.Hour
	reapInterval      = time.Minute
)

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

type Server struct {
	svc    *controller.Services
	engine *gin.Engine
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func New(svc *controller.Services) *Server {
	s := &Server{
		svc:      svc,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		sessions: map[string]*entry{},
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	redirect := s.svc.Config.OAuth().RedirectURL
	callbackPath, origin := callbackRoute(redirect)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET(callbackPath, gin.WrapH(auth.CallbackHandler(s.svc.Coordinator, origin)))

	api := r.Group("/api/v1", s.session)
	api.GET("/state", s.state)
	api.POST("/connect", s.connect)
	api.POST("/connect/cancel", s.cancelConnect)
	api.DELETE("/auth", s.disconnect)
	api.GET("/repositories", s.repositories)
	api.POST("/selection", s.selectRepository)
	api.DELETE("/selection", s.deselect)
	api.POST("/expand", s.expand)
	api.POST("/open", s.open)
	api.DELETE("/open", s.closeFile)
	api.POST("/refresh", s.refresh)
	return r
}

// callbackRoute splits the redirect URL into the path to serve and the
// origin the popup may post to.
func callbackRoute(redirect string) (string, string) {
	u, err := url.Parse(redirect)
	if err != nil || u.Path == "" {
		return "/oauth/callback", "*"
	}
	return u.Path, u.Scheme + "://" + u.Host
}

// Handler is the full console handler with request logging.
func (s *Server) Handler() http.Handler {
	return logging.Middleware(uuid.New)(s.engine)
}

// ListenAndServe serves addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.evict(); n > 0 {
					logging.L().Info("evicted idle sessions", zap.Int("count", n))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// session attaches the caller's controller, creating a session for new
// browsers. The account is the fronting proxy's user when there is one.
func (s *Server) session(c *gin.Context) {
	id, err := c.Cookie(sessionCookie)
	if err != nil || !uuid.IsValidUUID(id) {
		id = uuid.New()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(s.ttl.Seconds()), "/", "", c.Request.TLS != nil, true)

	account := c.GetHeader(remoteUserHeader)
	if account == "" {
		account = id
	}

	ctx := logging.With(c.Request.Context(), zap.String("session", id))
	c.Request = c.Request.WithContext(ctx)
	c.Set(controllerKey, s.controller(ctx, id, account))
	c.Next()
}

func (s *Server) controller(ctx context.Context, id, account string) *controller.Controller {
	s.mu.Lock()
	if e, ok := s.sessions[id]; ok && e.ctrl.Session().Account == account {
		e.lastSeen = s.now()
		s.mu.Unlock()
		return e.ctrl
	}
	ctrl := s.svc.NewController(session.New(id, account))
	s.sessions[id] = &entry{ctrl: ctrl, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetSessionsActive(n)
	if _, err := ctrl.Restore(ctx); err != nil {
		logging.WithContext(ctx).Warn("could not restore credential", zap.Error(err))
	}
	return ctrl
}

// evict drops sessions idle for longer than the ttl. Their stored
// credentials stay, so a returning browser is restored.
func (s *Server) evict() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var idle []*controller.Controller
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.ctrl)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, ctrl := range idle {
		ctrl.CancelConnect("")
	}
	metrics.SetSessionsActive(n)
	return len(idle)
}

func ctrlFrom(c *gin.Context) *controller.Controller {
	return c.MustGet(controllerKey).(*controller.Controller)
}

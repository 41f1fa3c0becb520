package auth

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/repolens/cli/logging"
	"go.uber.org/zap"
)

// Loopback is a short-lived local server that receives the provider redirect
// for command-line logins.
type Loopback struct {
	srv      *http.Server
	listener net.Listener
}

// Listen serves CallbackHandler on the host and path of redirectURL.
func Listen(c *Coordinator, redirectURL string) (*Loopback, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse redirect url %q", redirectURL)
	}
	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", u.Host)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, CallbackHandler(c, "*"))

	l := &Loopback{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
	}
	go func() {
		if err := l.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.L().Warn("loopback callback server stopped", zap.Error(err))
		}
	}()
	return l, nil
}

// Addr is the address actually listened on.
func (l *Loopback) Addr() string {
	return l.listener.Addr().String()
}

func (l *Loopback) Close(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}

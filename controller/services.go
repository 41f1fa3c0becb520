package controller

import (
	"net/http"

	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/configs"
	"github.com/repolens/cli/credentials"
	"github.com/repolens/cli/gateway"
	"github.com/repolens/cli/gateway/providers"
	"github.com/repolens/cli/session"
	"github.com/repolens/cli/tree"
)

// Services are shared by every session of one process.
type Services struct {
	Config      *configs.Configs
	Coordinator *auth.Coordinator
	Gateway     *gateway.Gateway
	filter      *tree.Filter
}

// NewServices wires the configured provider. opener decides how consent
// pages are shown.
func NewServices(cfg *configs.Configs, opener auth.Opener) (*Services, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout()}

	provider, err := providers.New(cfg.Provider(), cfg.OAuth(), httpClient)
	if err != nil {
		return nil, err
	}
	store := credentials.NewOAuthStore(cfg.Provider(), cfg.OAuth(), provider, cfg, httpClient)
	coordinator := auth.New(store,
		auth.WithOpener(opener),
		auth.WithTimeout(cfg.AuthTimeout()),
	)
	gtwy := gateway.New(provider,
		gateway.WithTimeout(cfg.HTTPTimeout()),
		gateway.WithRetries(cfg.HTTPRetries()),
		gateway.WithRejectionHandler(coordinator.Invalidate),
	)

	return &Services{
		Config:      cfg,
		Coordinator: coordinator,
		Gateway:     gtwy,
		filter:      tree.NewFilter(cfg.HiddenPatterns()),
	}, nil
}

// NewController gives sess its own tree cache and controller.
func (s *Services) NewController(sess *session.Session) *Controller {
	return New(sess, s.Coordinator, s.Gateway, tree.New(s.Gateway, tree.WithFilter(s.filter)))
}

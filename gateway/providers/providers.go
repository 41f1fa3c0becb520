// Package providers picks the provider implementation named by configuration.
package providers

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/repolens/cli/configs"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway"
	"github.com/repolens/cli/gateway/gitea"
	"github.com/repolens/cli/gateway/github"
)

func New(p configs.ProviderConfig, o configs.OAuthConfig, httpClient *http.Client) (gateway.Provider, error) {
	switch p.Kind {
	case configs.ProviderGitea:
		return gitea.New(p.BaseURL, httpClient), nil
	case configs.ProviderGitHub:
		return github.New(p.BaseURL, o.ClientID, o.ClientSecret, httpClient)
	default:
		return nil, errors.Wrapf(rlerrors.ConfigMissing, "unknown provider.kind %q", p.Kind)
	}
}

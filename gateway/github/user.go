package github

import (
	"context"
	"net/http"

	gh "github.com/google/go-github/github"
	"github.com/repolens/cli/entity"
)

func (g *Gateway) CurrentUser(ctx context.Context, token string) (*entity.Identity, error) {
	user, res, err := g.restClient(token).Users.Get(ctx, "")
	if err != nil {
		return nil, classify("current_user", res, err)
	}
	return &entity.Identity{
		ID:          user.GetID(),
		Handle:      user.GetLogin(),
		DisplayName: user.GetName(),
		Email:       user.GetEmail(),
		AvatarRef:   user.GetAvatarURL(),
	}, nil
}

// Revoke deletes the token on GitHub. The endpoint authenticates the OAuth
// application itself, not the user.
func (g *Gateway) Revoke(ctx context.Context, token string) error {
	base := g.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	tp := &gh.BasicAuthTransport{
		Username:  g.clientID,
		Password:  g.clientSecret,
		Transport: base,
	}
	c := gh.NewClient(tp.Client())
	c.BaseURL = g.baseURL

	res, err := c.Authorizations.Revoke(ctx, g.clientID, token)
	if err != nil {
		// Already gone is as good as revoked.
		if res != nil && res.StatusCode == http.StatusNotFound {
			return nil
		}
		return classify("revoke", res, err)
	}
	return nil
}

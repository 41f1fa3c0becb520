package gitea

import (
	"context"

	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/logging"
)

type user struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (u *user) identity() *entity.Identity {
	return &entity.Identity{
		ID:          u.ID,
		Handle:      u.Login,
		DisplayName: u.FullName,
		Email:       u.Email,
		AvatarRef:   u.AvatarURL,
	}
}

func (g *Gateway) CurrentUser(ctx context.Context, token string) (*entity.Identity, error) {
	var resp user
	if err := g.run(g.newRequest(ctx, "current_user", token, "/user"), &resp); err != nil {
		return nil, err
	}
	return resp.identity(), nil
}

// Revoke is local-only: Gitea has no endpoint for revoking an OAuth access
// token, so the token simply stops being used and expires on its own.
func (g *Gateway) Revoke(ctx context.Context, token string) error {
	logging.WithContext(ctx).Debug("gitea has no token revocation endpoint, dropping token locally")
	return nil
}

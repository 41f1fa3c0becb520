package credentials_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/repolens/cli/configs"
	"github.com/repolens/cli/credentials"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	revoked   []string
	revokeErr error
}

func (f *fakeIdentity) CurrentUser(ctx context.Context, token string) (*entity.Identity, error) {
	if token != "access-1" && token != "access-2" {
		return nil, rlerrors.NotAuthorized
	}
	return &entity.Identity{ID: 7, Handle: "alice", DisplayName: "Alice"}, nil
}

func (f *fakeIdentity) Revoke(ctx context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return f.revokeErr
}

type tokenServer struct {
	grants []url.Values
}

func (s *tokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/login/oauth/access_token" {
		http.NotFound(w, r)
		return
	}
	_ = r.ParseForm()
	s.grants = append(s.grants, r.PostForm)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.PostForm.Get("code") == "good-code":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-1", "refresh_token": "refresh-1",
			"token_type": "bearer", "expires_in": 3600, "scope": "read:repository",
		})
	case r.PostForm.Get("refresh_token") == "refresh-1":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-2", "token_type": "bearer", "expires_in": 3600,
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}
}

func newStore(t *testing.T) (*credentials.OAuthStore, *configs.Configs, *fakeIdentity, *tokenServer) {
	ts := &tokenServer{}
	srv := httptest.NewServer(ts)
	t.Cleanup(srv.Close)

	cfg := configs.NewAt(t.TempDir())
	identity := &fakeIdentity{}
	store := credentials.NewOAuthStore(
		configs.ProviderConfig{Kind: configs.ProviderGitea, BaseURL: srv.URL, WebURL: srv.URL},
		configs.OAuthConfig{ClientID: "client", ClientSecret: "secret", RedirectURL: "http://localhost:8735/oauth/callback", Scopes: []string{"read:repository"}},
		identity, cfg, srv.Client(),
	)
	return store, cfg, identity, ts
}

func TestAuthURL(t *testing.T) {
	store, _, _, _ := newStore(t)

	u, err := url.Parse(store.AuthURL("state-123"))
	require.NoError(t, err)
	require.Equal(t, "/login/oauth/authorize", u.Path)
	require.Equal(t, "state-123", u.Query().Get("state"))
	require.Equal(t, "client", u.Query().Get("client_id"))
	require.Equal(t, "code", u.Query().Get("response_type"))
	require.Equal(t, "http://localhost:8735/oauth/callback", u.Query().Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	store, cfg, _, _ := newStore(t)
	ctx := context.Background()

	cred, err := store.Exchange(ctx, "local", "good-code")
	require.NoError(t, err)
	require.Equal(t, "access-1", cred.AccessToken)
	require.Equal(t, "alice", cred.Identity.Handle)
	require.Equal(t, "read:repository", cred.Scope)

	saved, err := cfg.GetCredential("local")
	require.NoError(t, err)
	require.Equal(t, "access-1", saved.AccessToken)

	_, err = store.Exchange(ctx, "other", "bad-code")
	require.ErrorIs(t, err, rlerrors.NotAuthorized)
	require.Contains(t, err.Error(), "invalid_grant")

	saved, err = cfg.GetCredential("other")
	require.NoError(t, err)
	require.Nil(t, saved)
}

func TestStatus(t *testing.T) {
	store, cfg, _, ts := newStore(t)
	ctx := context.Background()

	cred, err := store.Status(ctx, "local")
	require.NoError(t, err)
	require.Nil(t, cred)

	require.NoError(t, cfg.SetCredential("local", &entity.Credential{
		AccessToken: "access-1", Expiry: time.Now().Add(time.Hour), Identity: entity.Identity{Handle: "alice"},
	}))
	cred, err = store.Status(ctx, "local")
	require.NoError(t, err)
	require.Equal(t, "access-1", cred.AccessToken)
	require.Empty(t, ts.grants)
}

func TestStatusRefreshesExpiredToken(t *testing.T) {
	store, cfg, _, ts := newStore(t)
	ctx := context.Background()

	require.NoError(t, cfg.SetCredential("local", &entity.Credential{
		AccessToken: "access-1", RefreshToken: "refresh-1",
		Expiry: time.Now().Add(-time.Hour), Identity: entity.Identity{Handle: "alice"},
	}))

	cred, err := store.Status(ctx, "local")
	require.NoError(t, err)
	require.Equal(t, "access-2", cred.AccessToken)
	require.Equal(t, "refresh-1", cred.RefreshToken)
	require.Equal(t, "alice", cred.Identity.Handle)
	require.Len(t, ts.grants, 1)
	require.Equal(t, "refresh_token", ts.grants[0].Get("grant_type"))

	saved, err := cfg.GetCredential("local")
	require.NoError(t, err)
	require.Equal(t, "access-2", saved.AccessToken)
}

func TestStatusForgetsRejectedRefresh(t *testing.T) {
	store, cfg, _, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, cfg.SetCredential("local", &entity.Credential{
		AccessToken: "old", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour),
	}))
	cred, err := store.Status(ctx, "local")
	require.NoError(t, err)
	require.Nil(t, cred)

	saved, err := cfg.GetCredential("local")
	require.NoError(t, err)
	require.Nil(t, saved)
}

func TestRevoke(t *testing.T) {
	store, cfg, identity, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "nobody"))
	require.Empty(t, identity.revoked)

	require.NoError(t, cfg.SetCredential("local", &entity.Credential{AccessToken: "access-1"}))
	identity.revokeErr = errors.Wrap(rlerrors.Transient, "503")

	err := store.Revoke(ctx, "local")
	require.ErrorIs(t, err, rlerrors.Transient)
	require.Equal(t, []string{"access-1"}, identity.revoked)

	saved, err := cfg.GetCredential("local")
	require.NoError(t, err)
	require.Nil(t, saved)
}

func TestForget(t *testing.T) {
	store, cfg, identity, _ := newStore(t)

	require.NoError(t, cfg.SetCredential("local", &entity.Credential{AccessToken: "access-1"}))
	require.NoError(t, store.Forget("local"))
	require.Empty(t, identity.revoked)

	saved, err := cfg.GetCredential("local")
	require.NoError(t, err)
	require.Nil(t, saved)
}

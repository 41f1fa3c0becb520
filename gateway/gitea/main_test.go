package gitea_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway/gitea"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *gitea.Gateway {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer good" {
				w.WriteHeader(http.StatusUnauthorized)
				reply(w, map[string]string{"message": "token is required"})
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/api/v1/user", auth(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]interface{}{"id": 7, "login": "alice", "full_name": "Alice", "avatar_url": "https://a/7.png"})
	}))
	mux.HandleFunc("/api/v1/user/repos", auth(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		reply(w, []map[string]interface{}{{
			"id": 1, "name": "widgets", "full_name": "acme/widgets", "private": true,
			"updated_at": "2024-05-01T10:00:00Z", "owner": map[string]interface{}{"login": "acme"},
		}})
	}))
	mux.HandleFunc("/api/v1/repos/acme/widgets/contents", auth(func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]interface{}{
			{"name": "README.md", "path": "README.md", "type": "file", "size": 12},
			{"name": "src", "path": "src", "type": "dir"},
			{"name": "link", "path": "link", "type": "symlink"},
		})
	}))
	mux.HandleFunc("/api/v1/repos/acme/widgets/contents/src/main.go", auth(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]interface{}{
			"name": "main.go", "path": "src/main.go", "type": "file", "size": 12,
			"encoding": "base64", "content": base64.StdEncoding.EncodeToString([]byte("package main")),
		})
	}))
	mux.HandleFunc("/api/v1/repos/acme/widgets/contents/big.bin", auth(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]interface{}{"name": "big.bin", "path": "big.bin", "type": "file", "size": 90000000, "content": nil})
	}))
	mux.HandleFunc("/api/v1/repos/acme/widgets/contents/flaky", auth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return gitea.New(srv.URL+"/", srv.Client())
}

func TestCurrentUser(t *testing.T) {
	g := newServer(t)
	ctx := context.Background()

	id, err := g.CurrentUser(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, int64(7), id.ID)
	require.Equal(t, "alice", id.Handle)

	_, err = g.CurrentUser(ctx, "bad")
	require.ErrorIs(t, err, rlerrors.NotAuthorized)
	require.Contains(t, err.Error(), "token is required")
}

func TestListRepositories(t *testing.T) {
	repos, err := newServer(t).ListRepositories(context.Background(), "good")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, entity.RepositoryID("acme/widgets"), repos[0].ID())
	require.True(t, repos[0].Private)
	require.Equal(t, 2024, repos[0].UpdatedAt.Year())
}

func TestListDirectory(t *testing.T) {
	g := newServer(t)
	ctx := context.Background()

	entries, err := g.ListDirectory(ctx, "good", "acme/widgets", "")
	require.NoError(t, err)
	require.Equal(t, []*entity.Entry{
		{Name: "README.md", Path: "README.md", Kind: entity.KindFile, Size: 12},
		{Name: "src", Path: "src", Kind: entity.KindDirectory},
		{Name: "link", Path: "link", Kind: entity.KindFile},
	}, entries)

	_, err = g.ListDirectory(ctx, "good", "acme/widgets", "src/main.go")
	require.ErrorIs(t, err, rlerrors.NotADirectory)

	_, err = g.ListDirectory(ctx, "good", "acme/widgets", "missing")
	require.ErrorIs(t, err, rlerrors.NotFound)
}

func TestReadFile(t *testing.T) {
	g := newServer(t)
	ctx := context.Background()

	file, err := g.ReadFile(ctx, "good", "acme/widgets", "src/main.go")
	require.NoError(t, err)
	require.Equal(t, "package main", string(file.Content))
	require.Equal(t, "src/main.go", file.Path)

	_, err = g.ReadFile(ctx, "good", "acme/widgets", "big.bin")
	require.ErrorIs(t, err, rlerrors.TooLarge)

	_, err = g.ReadFile(ctx, "good", "acme/widgets", "flaky")
	require.ErrorIs(t, err, rlerrors.Transient)

	_, err = g.ReadFile(ctx, "bad", "acme/widgets", "src/main.go")
	require.ErrorIs(t, err, rlerrors.NotAuthorized)
}

func TestRevokeIsLocal(t *testing.T) {
	require.NoError(t, newServer(t).Revoke(context.Background(), "good"))
}

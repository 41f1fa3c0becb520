// Package gitea reads repositories from a Gitea (or Forgejo) server over its
// REST API.
package gitea

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/repolens/cli/gateway"
)

const (
	Kind = "gitea"

	// Repository listings are one page; see DESIGN.md.
	repositoryPageSize = 50
)

type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (g *Gateway) Kind() string {
	return Kind
}

type request struct {
	op     string
	path   string
	query  url.Values
	token  string
	ctx    context.Context
	header http.Header
}

func (g *Gateway) newRequest(ctx context.Context, op, token, path string) *request {
	return &request{
		op:     op,
		path:   path,
		query:  url.Values{},
		token:  token,
		ctx:    ctx,
		header: http.Header{},
	}
}

// run performs a GET and decodes the JSON body into resp.
func (g *Gateway) run(r *request, resp interface{}) error {
	u := g.baseURL + "/api/v1" + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header = r.header
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.token))

	res, err := g.httpClient.Do(req)
	if err != nil {
		return gateway.TransportError(r.op, err)
	}
	defer res.Body.Close()

	if err := gateway.CheckResponse(r.op, res); err != nil {
		return err
	}
	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		return gateway.DecodeError(r.op, err)
	}
	return nil
}

// contentsPath builds /repos/{owner}/{repo}/contents[/{path}] with each path
// segment escaped on its own.
func contentsPath(owner, repo, path string) string {
	p := fmt.Sprintf("/repos/%s/%s/contents", url.PathEscape(owner), url.PathEscape(repo))
	if path == "" {
		return p
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p + "/" + strings.Join(segments, "/")
}

// Package github reads repositories from GitHub or GitHub Enterprise. REST
// covers users, repositories and file bodies; directory listings go through
// GraphQL so one round trip returns a whole tree level.
package github

import (
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/github"
	gql "github.com/machinebox/graphql"
	"github.com/pkg/errors"
	"github.com/repolens/cli/gateway"
	"golang.org/x/oauth2"
)

const (
	Kind = "github"

	DefaultBaseURL = "https://api.github.com/"

	// Repository listings are one page; see DESIGN.md.
	repositoryPageSize = 50
)

type Gateway struct {
	baseURL      *url.URL
	graphqlURL   string
	httpClient   *http.Client
	clientID     string
	clientSecret string
}

// New builds a GitHub provider. baseURL is the REST root and must end in a
// slash; clientID and clientSecret are only needed for Revoke.
func New(baseURL, clientID, clientSecret string, httpClient *http.Client) (*Gateway, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse github base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gateway{
		baseURL:      u,
		graphqlURL:   GraphQLEndpoint(baseURL),
		httpClient:   httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

// GraphQLEndpoint derives the GraphQL URL from a REST base. Enterprise
// servers serve REST under /api/v3/ and GraphQL under /api/graphql.
func GraphQLEndpoint(baseURL string) string {
	if strings.HasSuffix(baseURL, "/api/v3/") {
		return strings.TrimSuffix(baseURL, "v3/") + "graphql"
	}
	return baseURL + "graphql"
}

func (g *Gateway) Kind() string {
	return Kind
}

// transport layers the bearer token over the shared client's transport.
func (g *Gateway) transport(token string) http.RoundTripper {
	base := g.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   base,
	}
}

func (g *Gateway) restClient(token string) *gh.Client {
	c := gh.NewClient(&http.Client{
		Transport: g.transport(token),
		Timeout:   g.httpClient.Timeout,
	})
	c.BaseURL = g.baseURL
	return c
}

func (g *Gateway) graphqlClient(op, token string) *gql.Client {
	httpClient := &http.Client{
		Transport: &gateway.StatusTransport{Op: op, Base: g.transport(token)},
		Timeout:   g.httpClient.Timeout,
	}
	return gql.NewClient(g.graphqlURL, gql.WithHTTPClient(httpClient))
}

// classify maps a go-github failure onto the error taxonomy.
func classify(op string, res *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return gateway.StatusError(op, http.StatusTooManyRequests, err.Error())
	}
	var resErr *gh.ErrorResponse
	if errors.As(err, &resErr) && resErr.Response != nil {
		return gateway.StatusError(op, resErr.Response.StatusCode, resErr.Message)
	}
	if res != nil && res.Response != nil && res.StatusCode >= 300 {
		return gateway.StatusError(op, res.StatusCode, "")
	}
	return gateway.TransportError(op, err)
}

package credentials

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/repolens/cli/configs"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway"
	"github.com/repolens/cli/logging"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Identity is the slice of a provider the store needs besides OAuth.
type Identity interface {
	CurrentUser(ctx context.Context, token string) (*entity.Identity, error)
	Revoke(ctx context.Context, token string) error
}

type OAuthStore struct {
	oauth      *oauth2.Config
	identity   Identity
	records    Records
	httpClient *http.Client
	now        func() time.Time
}

// Endpoint returns the authorize and token URLs below webURL. Gitea and
// GitHub serve them at the same paths.
func Endpoint(webURL string) oauth2.Endpoint {
	webURL = strings.TrimRight(webURL, "/")
	return oauth2.Endpoint{
		AuthURL:  webURL + "/login/oauth/authorize",
		TokenURL: webURL + "/login/oauth/access_token",
	}
}

func NewOAuthStore(p configs.ProviderConfig, o configs.OAuthConfig, identity Identity, records Records, httpClient *http.Client) *OAuthStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuthStore{
		oauth: &oauth2.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			RedirectURL:  o.RedirectURL,
			Scopes:       o.Scopes,
			Endpoint:     Endpoint(p.WebURL),
		},
		identity:   identity,
		records:    records,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (s *OAuthStore) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *OAuthStore) AuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *OAuthStore) Exchange(ctx context.Context, account, code string) (*entity.Credential, error) {
	if code == "" {
		return nil, errors.Wrap(rlerrors.NotAuthorized, "empty authorization code")
	}
	token, err := s.oauth.Exchange(s.context(ctx), code)
	if err != nil {
		return nil, tokenError("exchange", err)
	}

	identity, err := s.identity.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "look up identity")
	}

	cred := credentialFrom(token, *identity)
	if err := s.records.SetCredential(account, cred); err != nil {
		return nil, errors.Wrap(err, "save credential")
	}
	return cred, nil
}

func (s *OAuthStore) Status(ctx context.Context, account string) (*entity.Credential, error) {
	cred, err := s.records.GetCredential(account)
	if err != nil {
		return nil, errors.Wrap(err, "read credential")
	}
	if cred == nil || cred.AccessToken == "" {
		return nil, nil
	}
	if !cred.Expired(s.now()) {
		return cred, nil
	}

	log := logging.WithContext(ctx).With(zap.String("account", account))
	if cred.RefreshToken == "" {
		log.Info("stored token expired without a refresh token")
		return nil, s.records.DeleteCredential(account)
	}

	// Expiry is forced into the past so the source always goes to the
	// token endpoint.
	source := s.oauth.TokenSource(s.context(ctx), &oauth2.Token{
		RefreshToken: cred.RefreshToken,
		Expiry:       s.now().Add(-time.Minute),
	})
	token, err := source.Token()
	if err != nil {
		err = tokenError("refresh", err)
		if errors.Is(err, rlerrors.Transient) {
			return nil, err
		}
		log.Info("refresh token rejected, forgetting credential", zap.Error(err))
		return nil, s.records.DeleteCredential(account)
	}

	refreshed := credentialFrom(token, cred.Identity)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cred.RefreshToken
	}
	if err := s.records.SetCredential(account, refreshed); err != nil {
		return nil, errors.Wrap(err, "save credential")
	}
	log.Debug("refreshed access token")
	return refreshed, nil
}

func (s *OAuthStore) Revoke(ctx context.Context, account string) error {
	cred, err := s.records.GetCredential(account)
	if err != nil {
		return errors.Wrap(err, "read credential")
	}
	if cred == nil {
		return nil
	}

	remoteErr := s.identity.Revoke(ctx, cred.AccessToken)
	if err := s.records.DeleteCredential(account); err != nil {
		return errors.Wrap(err, "delete credential")
	}
	if remoteErr != nil {
		return errors.Wrap(remoteErr, "revoke remote token")
	}
	return nil
}

func (s *OAuthStore) Forget(account string) error {
	return s.records.DeleteCredential(account)
}

func credentialFrom(token *oauth2.Token, identity entity.Identity) *entity.Credential {
	cred := &entity.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Identity:     identity,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	return cred
}

// tokenError classifies a failure talking to the token endpoint. A refusal by
// the provider is NotAuthorized; anything else is worth retrying.
func tokenError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		reason := retrieveErr.ErrorCode
		if reason == "" && retrieveErr.Response != nil {
			reason = retrieveErr.Response.Status
		}
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 500 {
			return errors.Wrapf(rlerrors.Transient, "%s: %s", op, reason)
		}
		return errors.Wrapf(rlerrors.NotAuthorized, "%s: %s", op, reason)
	}
	return gateway.TransportError(op, err)
}

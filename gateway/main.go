package gateway

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/logging"
	"github.com/repolens/cli/metrics"
	"github.com/repolens/cli/session"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 2
)

// Provider speaks one git-hosting service's API. Implementations return the
// error taxonomy from the errors package and never retry on their own.
type Provider interface {
	Kind() string
	CurrentUser(ctx context.Context, token string) (*entity.Identity, error)
	ListRepositories(ctx context.Context, token string) ([]*entity.Repository, error)
	ListDirectory(ctx context.Context, token string, repo entity.RepositoryID, path string) ([]*entity.Entry, error)
	ReadFile(ctx context.Context, token string, repo entity.RepositoryID, path string) (*entity.RawFile, error)
	Revoke(ctx context.Context, token string) error
}

// RejectionHandler is told when the provider rejects a session's token.
type RejectionHandler func(ctx context.Context, sess *session.Session)

type Gateway struct {
	provider   Provider
	timeout    time.Duration
	retries    int
	newBackOff func() backoff.BackOff
	onRejected RejectionHandler
}

type Option func(*Gateway)

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRetries bounds how often a Transient failure of a read is retried.
func WithRetries(n int) Option {
	return func(g *Gateway) {
		if n >= 0 {
			g.retries = n
		}
	}
}

func WithBackOff(fn func() backoff.BackOff) Option {
	return func(g *Gateway) {
		g.newBackOff = fn
	}
}

func WithRejectionHandler(h RejectionHandler) Option {
	return func(g *Gateway) {
		g.onRejected = h
	}
}

func New(provider Provider, opts ...Option) *Gateway {
	g := &Gateway{
		provider: provider,
		timeout:  defaultTimeout,
		retries:  defaultRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		onRejected: func(context.Context, *session.Session) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Provider() Provider {
	return g.provider
}

// authorize returns the session's bearer token. Not being authorized is a
// normal condition reported as NotAuthorized.
func (g *Gateway) authorize(sess *session.Session) (string, error) {
	if sess == nil || !sess.Tokens.Get().Authorized {
		return "", rlerrors.NotAuthorized
	}
	token := sess.Tokens.AccessToken()
	if token == "" {
		return "", rlerrors.NotAuthorized
	}
	return token, nil
}

// run executes one provider read with a per-attempt timeout, bounded retries of
// Transient failures, metrics, and token-rejection handling.
func (g *Gateway) run(ctx context.Context, sess *session.Session, op string, fn func(ctx context.Context, token string) error) error {
	token, err := g.authorize(sess)
	if err != nil {
		return err
	}

	start := time.Now()
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		err := fn(callCtx, token)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			err = errors.Wrapf(rlerrors.Transient, "%s timed out after %s", op, g.timeout)
		}
		if rlerrors.Retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.retries)), ctx)
	err = backoff.Retry(attempt, b)

	status := "ok"
	if err != nil {
		status = rlerrors.Kind(err)
	}
	metrics.RecordRemoteCall(op, status, time.Since(start))

	if errors.Is(err, rlerrors.NotAuthorized) {
		logging.WithContext(ctx).Info("provider rejected token", zap.String("op", op), zap.String("session", sess.ID))
		g.onRejected(ctx, sess)
	}
	return err
}

// ListRepositories returns the first page of repositories visible to the session.
func (g *Gateway) ListRepositories(ctx context.Context, sess *session.Session) ([]*entity.Repository, error) {
	var repos []*entity.Repository
	err := g.run(ctx, sess, "list_repositories", func(ctx context.Context, token string) error {
		var err error
		repos, err = g.provider.ListRepositories(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return repos, nil
}

// ListDirectory lists one directory; path "" is the repository root.
func (g *Gateway) ListDirectory(ctx context.Context, sess *session.Session, repo entity.RepositoryID, path string) ([]*entity.Entry, error) {
	path = CleanPath(path)
	var entries []*entity.Entry
	err := g.run(ctx, sess, "list_directory", func(ctx context.Context, token string) error {
		var err error
		entries, err = g.provider.ListDirectory(ctx, token, repo, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadFile fetches one file. Directories and missing paths are NotFound;
// content the provider will not return inline is TooLarge.
func (g *Gateway) ReadFile(ctx context.Context, sess *session.Session, repo entity.RepositoryID, path string) (*entity.FileSnapshot, error) {
	path = CleanPath(path)
	if path == "" {
		return nil, errors.Wrap(rlerrors.NotFound, "repository root is a directory")
	}
	var raw *entity.RawFile
	err := g.run(ctx, sess, "read_file", func(ctx context.Context, token string) error {
		var err error
		raw, err = g.provider.ReadFile(ctx, token, repo, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return Snapshot(repo, path, raw), nil
}

// Package auth drives the OAuth authorization-code flow. Each attempt is
// keyed by a single-use state, carried out in a detached browser context and
// resolved exactly once through its Handle.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/repolens/cli/credentials"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/logging"
	"github.com/repolens/cli/metrics"
	"github.com/repolens/cli/random"
	"github.com/repolens/cli/session"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

type attempt struct {
	sess    *session.Session
	handle  *Handle
	timer   *time.Timer
	revoked bool
}

// Coordinator is the only writer of session TokenStores.
type Coordinator struct {
	store   credentials.Store
	opener  Opener
	random  *random.Randomizer
	timeout time.Duration

	mu       sync.Mutex
	pending  map[string]*attempt
	inflight map[string]*attempt
}

type Option func(*Coordinator)

func WithOpener(o Opener) Option {
	return func(c *Coordinator) {
		c.opener = o
	}
}

// WithTimeout bounds how long a detached context may take before the attempt
// is treated as cancelled.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRandomizer(r *random.Randomizer) Option {
	return func(c *Coordinator) {
		c.random = r
	}
}

func New(store credentials.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		opener:  BrowserOpener{},
		random:  random.New(),
		timeout: defaultTimeout,
		pending:  map[string]*attempt{},
		inflight: map[string]*attempt{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status asks the credential store for the session's account and mirrors the
// answer into the TokenStore. On error the TokenStore is left as it was.
func (c *Coordinator) Status(ctx context.Context, sess *session.Session) (entity.Authorization, error) {
	cred, err := c.store.Status(ctx, sess.Account)
	if err != nil {
		return sess.Tokens.Get(), err
	}
	if cred == nil {
		sess.Tokens.Clear()
	} else {
		sess.Tokens.Set(cred)
	}
	return sess.Tokens.Get(), nil
}

// Begin allocates a state, opens the consent page and returns the attempt's
// handle.
func (c *Coordinator) Begin(ctx context.Context, sess *session.Session) (*Handle, error) {
	state, err := c.random.State()
	if err != nil {
		return nil, errors.Wrap(err, "generate state")
	}
	h := newHandle(state, c.store.AuthURL(state))

	a := &attempt{sess: sess, handle: h}
	c.mu.Lock()
	c.pending[state] = a
	a.timer = time.AfterFunc(c.timeout, func() {
		c.Cancel(state)
	})
	c.mu.Unlock()

	logging.WithContext(ctx).Info("authorization started", zap.String("session", sess.ID))

	// The URL stays usable by hand when no browser could be opened.
	if err := c.opener.Open(ctx, h.AuthURL()); err != nil {
		logging.WithContext(ctx).Warn("could not open consent page", zap.Error(err))
	}
	return h, nil
}

// take removes the attempt for state. A state is honoured at most once.
func (c *Coordinator) take(state string) *attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.pending[state]
	if !ok {
		return nil
	}
	delete(c.pending, state)
	a.timer.Stop()
	return a
}

func (c *Coordinator) resolve(ctx context.Context, state string, o Outcome) bool {
	a := c.take(state)
	if a == nil {
		return false
	}
	return c.settle(ctx, a, o)
}

func (c *Coordinator) settle(ctx context.Context, a *attempt, o Outcome) bool {
	if !a.handle.resolve(o) {
		return false
	}
	outcome := "success"
	if o.Type == AuthError {
		outcome = o.Reason
	}
	metrics.RecordAuthOutcome(outcome)
	logging.WithContext(ctx).Info("authorization finished",
		zap.String("session", a.sess.ID),
		zap.String("outcome", o.Type),
		zap.String("reason", o.Reason),
	)
	return true
}

// Complete exchanges code for a token. A state that was never issued, or was
// already used, is AuthMismatch and no exchange happens. The TokenStore is
// only written on success.
func (c *Coordinator) Complete(ctx context.Context, code, state string) (*entity.Identity, error) {
	a := c.take(state)
	if a == nil {
		metrics.RecordAuthOutcome(rlerrors.Kind(rlerrors.AuthMismatch))
		logging.WithContext(ctx).Warn("authorization callback with unknown state")
		return nil, rlerrors.AuthMismatch
	}

	c.mu.Lock()
	c.inflight[state] = a
	c.mu.Unlock()

	cred, err := c.store.Exchange(ctx, a.sess.Account, code)

	c.mu.Lock()
	delete(c.inflight, state)
	revoked := a.revoked
	c.mu.Unlock()

	if err != nil {
		c.settle(ctx, a, failure(err))
		return nil, err
	}
	// The session was disconnected while the code was being exchanged.
	if revoked {
		if err := c.store.Forget(a.sess.Account); err != nil {
			logging.WithContext(ctx).Warn("forget revoked credential", zap.String("session", a.sess.ID), zap.Error(err))
		}
		err := errors.Wrap(rlerrors.UserCancelled, "session disconnected during exchange")
		c.settle(ctx, a, failure(err))
		return nil, err
	}

	a.sess.Tokens.Set(cred)
	c.settle(ctx, a, success(cred.Identity))
	identity := cred.Identity
	return &identity, nil
}

// Fail resolves an attempt the provider refused, e.g. the user denied
// consent. The provider's error code is kept in the message.
func (c *Coordinator) Fail(ctx context.Context, state, code, description string) error {
	a := c.take(state)
	if a == nil {
		return rlerrors.AuthMismatch
	}
	target := rlerrors.RemoteFault
	if code == "access_denied" {
		target = rlerrors.UserCancelled
	}
	msg := code
	if description != "" {
		msg += ": " + description
	}
	err := errors.Wrap(target, msg)
	c.settle(ctx, a, failure(err))
	return err
}

// Cancel is called when the detached context went away without a message.
// If the attempt already has an outcome, or its callback is being processed,
// the cancel is ignored and false is returned.
func (c *Coordinator) Cancel(state string) bool {
	return c.resolve(context.Background(), state, failure(rlerrors.UserCancelled))
}

// Revoke disconnects the session. The TokenStore is cleared even if the
// provider could not be told. An exchange still in flight for the session is
// discarded when it returns.
func (c *Coordinator) Revoke(ctx context.Context, sess *session.Session) error {
	defer sess.Tokens.Clear()
	c.cancelSession(sess)

	if err := c.store.Revoke(ctx, sess.Account); err != nil {
		logging.WithContext(ctx).Warn("remote revoke failed, cleared local session anyway",
			zap.String("session", sess.ID), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate handles a token the provider rejected: the session is cleared
// and the stored credential forgotten without another remote call.
func (c *Coordinator) Invalidate(ctx context.Context, sess *session.Session) {
	sess.Tokens.Clear()
	if err := c.store.Forget(sess.Account); err != nil {
		logging.WithContext(ctx).Warn("forget rejected credential", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (c *Coordinator) cancelSession(sess *session.Session) {
	c.mu.Lock()
	var states []string
	for state, a := range c.pending {
		if a.sess == sess {
			states = append(states, state)
		}
	}
	for _, a := range c.inflight {
		if a.sess == sess {
			a.revoked = true
		}
	}
	c.mu.Unlock()

	for _, state := range states {
		c.Cancel(state)
	}
}

// Pending reports the number of unresolved attempts.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

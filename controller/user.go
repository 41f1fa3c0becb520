package controller

import (
	"context"

	"github.com/pkg/errors"
	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/logging"
	"go.uber.org/zap"
)

// Restore picks up a credential stored by an earlier session. A disconnected
// controller with a valid credential becomes Connected.
func (c *Controller) Restore(ctx context.Context) (entity.Authorization, error) {
	a, err := c.auth.Status(ctx, c.sess)
	if err != nil {
		return a, err
	}

	c.mu.Lock()
	switch {
	case a.Authorized && c.state == Disconnected:
		c.state = Connected
	case !a.Authorized && c.connected():
		c.resetLocked()
	}
	restored := a.Authorized && c.state == Connected && c.repos == nil
	c.mu.Unlock()

	if restored {
		if _, err := c.Repositories(ctx); err != nil && !errors.Is(err, rlerrors.NotAuthorized) {
			logging.WithContext(ctx).Warn("could not list repositories", zap.Error(err))
		}
	}
	return c.sess.Tokens.Get(), nil
}

// BeginConnect starts authorization and moves to Connecting. An attempt
// already in progress is cancelled.
func (c *Controller) BeginConnect(ctx context.Context) (*auth.Handle, error) {
	c.mu.Lock()
	if c.connected() {
		c.mu.Unlock()
		return nil, errors.Wrap(rlerrors.InvalidState, "already connected")
	}
	previous := c.pending
	c.mu.Unlock()

	if previous != nil {
		c.auth.Cancel(previous.State())
	}

	h, err := c.auth.Begin(ctx, c.sess)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pending = h
	c.state = Connecting
	c.mu.Unlock()
	return h, nil
}

// FinishConnect waits for h and applies its outcome. Success moves to
// Connected and loads the repository list; failure moves back to
// Disconnected. Outcomes of a replaced attempt are Superseded.
func (c *Controller) FinishConnect(ctx context.Context, h *auth.Handle) (*entity.Identity, error) {
	identity, err := h.Wait(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The caller stopped waiting; the attempt itself is still open.
		return nil, err
	}

	c.mu.Lock()
	if c.pending != h {
		c.mu.Unlock()
		return nil, errors.Wrap(rlerrors.Superseded, "authorization attempt was replaced")
	}
	c.pending = nil
	if err != nil {
		c.state = Disconnected
		c.mu.Unlock()
		return nil, err
	}
	c.state = Connected
	c.mu.Unlock()

	if _, err := c.Repositories(ctx); err != nil {
		if errors.Is(err, rlerrors.NotAuthorized) {
			return nil, err
		}
		logging.WithContext(ctx).Warn("connected but could not list repositories", zap.Error(err))
	}
	return identity, nil
}

// Connect runs a whole authorization attempt.
func (c *Controller) Connect(ctx context.Context) (*entity.Identity, error) {
	h, err := c.BeginConnect(ctx)
	if err != nil {
		return nil, err
	}
	return c.FinishConnect(ctx, h)
}

// CancelConnect reports that the consent window closed without a message.
func (c *Controller) CancelConnect(state string) bool {
	c.mu.Lock()
	h := c.pending
	c.mu.Unlock()
	if h == nil || (state != "" && h.State() != state) {
		return false
	}
	return c.auth.Cancel(h.State())
}

// Disconnect revokes the token and drops every cached tree. The session is
// disconnected even when the provider could not be reached.
func (c *Controller) Disconnect(ctx context.Context) error {
	err := c.auth.Revoke(ctx, c.sess)

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return err
}

// resetLocked returns to Disconnected. Callers hold mu.
func (c *Controller) resetLocked() {
	c.state = Disconnected
	c.pending = nil
	c.repos = nil
	c.selected = nil
	c.file = nil
	c.epoch++
	c.cache.Clear()
}

// fail applies err: NotAuthorized always disconnects and clears the token.
func (c *Controller) fail(ctx context.Context, err error) error {
	if !errors.Is(err, rlerrors.NotAuthorized) {
		return err
	}
	if c.sess.Tokens.Get().Authorized {
		c.auth.Invalidate(ctx, c.sess)
	}
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	logging.WithContext(ctx).Info("session disconnected after provider rejected token", zap.String("session", c.sess.ID))
	return err
}

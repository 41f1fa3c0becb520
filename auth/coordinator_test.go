package auth_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/random"
	"github.com/repolens/cli/session"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	exchanges  []string
	exchangeFn func(code string) (*entity.Credential, error)
	status     *entity.Credential
	statusErr  error
	revokeErr  error
	revoked    int
	forgotten  []string
}

func (f *fakeStore) Status(ctx context.Context, account string) (*entity.Credential, error) {
	return f.status, f.statusErr
}

func (f *fakeStore) AuthURL(state string) string {
	return "https://provider.example/login/oauth/authorize?state=" + state
}

func (f *fakeStore) Exchange(ctx context.Context, account, code string) (*entity.Credential, error) {
	f.mu.Lock()
	f.exchanges = append(f.exchanges, code)
	f.mu.Unlock()
	if f.exchangeFn != nil {
		return f.exchangeFn(code)
	}
	return &entity.Credential{AccessToken: "token-" + code, Identity: entity.Identity{Handle: "alice"}}, nil
}

func (f *fakeStore) Revoke(ctx context.Context, account string) error {
	f.revoked++
	return f.revokeErr
}

func (f *fakeStore) Forget(account string) error {
	f.forgotten = append(f.forgotten, account)
	return nil
}

func (f *fakeStore) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.exchanges)
}

func newCoordinator(store *fakeStore, opts ...auth.Option) (*auth.Coordinator, *[]string) {
	var opened []string
	opts = append([]auth.Option{auth.WithOpener(auth.OpenerFunc(func(ctx context.Context, url string) error {
		opened = append(opened, url)
		return nil
	}))}, opts...)
	return auth.New(store, opts...), &opened
}

func TestBeginOpensConsentPage(t *testing.T) {
	c, opened := newCoordinator(&fakeStore{})
	sess := session.New("s1", "local")

	h, err := c.Begin(context.Background(), sess)
	require.NoError(t, err)
	require.Len(t, h.State(), 32)
	require.Equal(t, []string{h.AuthURL()}, *opened)
	require.Contains(t, h.AuthURL(), "state="+h.State())

	_, done := h.Outcome()
	require.False(t, done)
	require.Equal(t, 1, c.Pending())
}

func TestCompleteSuccess(t *testing.T) {
	store := &fakeStore{}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)

	identity, err := c.Complete(ctx, "abc", h.State())
	require.NoError(t, err)
	require.Equal(t, "alice", identity.Handle)

	got, err := h.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Handle)
	require.True(t, sess.Tokens.Get().Authorized)
	require.Equal(t, "token-abc", sess.Tokens.AccessToken())
	require.Zero(t, c.Pending())
}

func TestCompleteStateMismatch(t *testing.T) {
	store := &fakeStore{}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)

	_, err = c.Complete(ctx, "injected", "forged-state")
	require.ErrorIs(t, err, rlerrors.AuthMismatch)
	require.Zero(t, store.exchangeCount())
	require.False(t, sess.Tokens.Get().Authorized)

	_, done := h.Outcome()
	require.False(t, done)
}

func TestStateIsSingleUse(t *testing.T) {
	store := &fakeStore{}
	c, _ := newCoordinator(store)
	ctx := context.Background()

	h, err := c.Begin(ctx, session.New("s1", "local"))
	require.NoError(t, err)

	_, err = c.Complete(ctx, "first", h.State())
	require.NoError(t, err)
	_, err = c.Complete(ctx, "second", h.State())
	require.ErrorIs(t, err, rlerrors.AuthMismatch)
	require.Equal(t, 1, store.exchangeCount())
}

func TestFailedExchangeLeavesTokenStore(t *testing.T) {
	store := &fakeStore{exchangeFn: func(string) (*entity.Credential, error) {
		return nil, errors.Wrap(rlerrors.NotAuthorized, "invalid_grant")
	}}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	sess.Tokens.Set(&entity.Credential{AccessToken: "previous"})
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)
	_, err = c.Complete(ctx, "bad", h.State())
	require.ErrorIs(t, err, rlerrors.NotAuthorized)

	outcome, done := h.Outcome()
	require.True(t, done)
	require.Equal(t, auth.AuthError, outcome.Type)
	require.Equal(t, "not_authorized", outcome.Reason)
	require.Equal(t, "previous", sess.Tokens.AccessToken())
}

func TestFirstOutcomeWins(t *testing.T) {
	store := &fakeStore{}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)

	require.True(t, c.Cancel(h.State()))
	require.False(t, c.Cancel(h.State()))
	_, err = c.Complete(ctx, "late", h.State())
	require.ErrorIs(t, err, rlerrors.AuthMismatch)

	_, err = h.Wait(ctx)
	require.ErrorIs(t, err, rlerrors.UserCancelled)
	require.Zero(t, store.exchangeCount())
	require.False(t, sess.Tokens.Get().Authorized)
}

func TestCancelDuringExchangeIsIgnored(t *testing.T) {
	release := make(chan struct{})
	store := &fakeStore{exchangeFn: func(code string) (*entity.Credential, error) {
		<-release
		return &entity.Credential{AccessToken: "t", Identity: entity.Identity{Handle: "alice"}}, nil
	}}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Complete(ctx, "abc", h.State())
		errc <- err
	}()
	require.Eventually(t, func() bool { return store.exchangeCount() == 1 }, time.Second, time.Millisecond)

	require.False(t, c.Cancel(h.State()))
	close(release)
	require.NoError(t, <-errc)

	identity, err := h.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", identity.Handle)
}

func TestProviderDenied(t *testing.T) {
	c, _ := newCoordinator(&fakeStore{})
	ctx := context.Background()

	h, err := c.Begin(ctx, session.New("s1", "local"))
	require.NoError(t, err)

	err = c.Fail(ctx, h.State(), "access_denied", "The user denied access")
	require.ErrorIs(t, err, rlerrors.UserCancelled)

	outcome, done := h.Outcome()
	require.True(t, done)
	require.Equal(t, "user_cancelled", outcome.Reason)
	require.Contains(t, outcome.Err.Error(), "access_denied")
}

func TestDetachedContextTimesOut(t *testing.T) {
	c, _ := newCoordinator(&fakeStore{}, auth.WithTimeout(20*time.Millisecond))
	ctx := context.Background()

	h, err := c.Begin(ctx, session.New("s1", "local"))
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = h.Wait(waitCtx)
	require.ErrorIs(t, err, rlerrors.UserCancelled)
	require.Zero(t, c.Pending())
}

func TestStatus(t *testing.T) {
	store := &fakeStore{status: &entity.Credential{AccessToken: "stored", Identity: entity.Identity{Handle: "alice"}}}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	ctx := context.Background()

	a, err := c.Status(ctx, sess)
	require.NoError(t, err)
	require.True(t, a.Authorized)
	require.Equal(t, "alice", a.Identity.Handle)

	store.status = nil
	a, err = c.Status(ctx, sess)
	require.NoError(t, err)
	require.False(t, a.Authorized)

	sess.Tokens.Set(&entity.Credential{AccessToken: "kept"})
	store.statusErr = rlerrors.Transient
	_, err = c.Status(ctx, sess)
	require.ErrorIs(t, err, rlerrors.Transient)
	require.Equal(t, "kept", sess.Tokens.AccessToken())
}

func TestRevokeAlwaysClears(t *testing.T) {
	for _, remoteErr := range []error{nil, errors.Wrap(rlerrors.Transient, "connection refused")} {
		store := &fakeStore{revokeErr: remoteErr}
		c, _ := newCoordinator(store)
		sess := session.New("s1", "local")
		sess.Tokens.Set(&entity.Credential{AccessToken: "t"})

		err := c.Revoke(context.Background(), sess)
		if remoteErr == nil {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, rlerrors.Transient)
		}
		require.False(t, sess.Tokens.Get().Authorized)
		require.Equal(t, 1, store.revoked)
	}
}

func TestRevokeCancelsPendingAttempts(t *testing.T) {
	c, _ := newCoordinator(&fakeStore{})
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)
	require.NoError(t, c.Revoke(ctx, sess))

	_, err = h.Wait(ctx)
	require.ErrorIs(t, err, rlerrors.UserCancelled)
}

func TestRevokeDuringExchangeDiscardsToken(t *testing.T) {
	release := make(chan struct{})
	store := &fakeStore{exchangeFn: func(code string) (*entity.Credential, error) {
		<-release
		return &entity.Credential{AccessToken: "t", Identity: entity.Identity{Handle: "alice"}}, nil
	}}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Complete(ctx, "abc", h.State())
		errc <- err
	}()
	require.Eventually(t, func() bool { return store.exchangeCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Revoke(ctx, sess))
	require.False(t, sess.Tokens.Get().Authorized)

	close(release)
	require.ErrorIs(t, <-errc, rlerrors.UserCancelled)
	require.False(t, sess.Tokens.Get().Authorized)
	require.Equal(t, []string{"local"}, store.forgotten)

	_, err = h.Wait(ctx)
	require.ErrorIs(t, err, rlerrors.UserCancelled)
}

func TestInvalidate(t *testing.T) {
	store := &fakeStore{}
	c, _ := newCoordinator(store)
	sess := session.New("s1", "local")
	sess.Tokens.Set(&entity.Credential{AccessToken: "t"})

	c.Invalidate(context.Background(), sess)
	require.False(t, sess.Tokens.Get().Authorized)
	require.Equal(t, []string{"local"}, store.forgotten)
	require.Zero(t, store.revoked)
}

func TestRandomizerFailure(t *testing.T) {
	c, _ := newCoordinator(&fakeStore{}, auth.WithRandomizer(random.NewFromReader(bytes.NewReader(nil))))

	_, err := c.Begin(context.Background(), session.New("s1", "local"))
	require.Error(t, err)
	require.Zero(t, c.Pending())
}

func TestCallbackHandler(t *testing.T) {
	c, _ := newCoordinator(&fakeStore{})
	sess := session.New("s1", "local")
	ctx := context.Background()

	h, err := c.Begin(ctx, sess)
	require.NoError(t, err)

	srv := httptest.NewServer(auth.CallbackHandler(c, "http://console.example"))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/?code=abc&state=" + h.State())
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"AUTH_SUCCESS"`)
	require.Contains(t, string(body), `"http://console.example"`)
	require.True(t, sess.Tokens.Get().Authorized)

	res, err = http.Get(srv.URL + "/?code=abc&state=" + h.State())
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, string(body), `"AUTH_ERROR"`)
	require.True(t, strings.Contains(string(body), `"auth_mismatch"`))
}

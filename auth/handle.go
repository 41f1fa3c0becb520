package auth

import (
	"context"
	"sync"

	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
)

// Outcome types carried by the detached context's message to its opener.
const (
	AuthSuccess = "AUTH_SUCCESS"
	AuthError   = "AUTH_ERROR"
)

// Outcome is the single result of one authorization attempt.
type Outcome struct {
	Type     string           `json:"type"`
	Identity *entity.Identity `json:"identity,omitempty"`
	// Reason is an error kind code for AUTH_ERROR.
	Reason string `json:"error,omitempty"`
	Err    error  `json:"-"`
}

func success(identity entity.Identity) Outcome {
	return Outcome{Type: AuthSuccess, Identity: &identity}
}

func failure(err error) Outcome {
	return Outcome{Type: AuthError, Reason: rlerrors.Kind(err), Err: err}
}

// Handle is a single-resolution future for one beginAuthorization call.
// Only the first resolution is kept; later ones are dropped.
type Handle struct {
	state   string
	authURL string

	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newHandle(state, authURL string) *Handle {
	return &Handle{
		state:   state,
		authURL: authURL,
		done:    make(chan struct{}),
	}
}

func (h *Handle) State() string {
	return h.state
}

// AuthURL is the provider consent page for this attempt.
func (h *Handle) AuthURL() string {
	return h.authURL
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Outcome polls the handle without blocking.
func (h *Handle) Outcome() (Outcome, bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the attempt resolves or ctx ends. Ending ctx does not
// resolve the attempt.
func (h *Handle) Wait(ctx context.Context) (*entity.Identity, error) {
	select {
	case <-h.done:
		if h.outcome.Type == AuthSuccess {
			return h.outcome.Identity, nil
		}
		return nil, h.outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Handle) resolve(o Outcome) bool {
	resolved := false
	h.once.Do(func() {
		h.outcome = o
		resolved = true
		close(h.done)
	})
	return resolved
}

// Package controller orchestrates one browsing session: connecting, picking a
// repository, walking its tree and opening files. It is the only place that
// turns errors into state transitions.
package controller

import (
	"sync"

	"github.com/repolens/cli/auth"
	"github.com/repolens/cli/entity"
	"github.com/repolens/cli/gateway"
	"github.com/repolens/cli/session"
	"github.com/repolens/cli/tree"
)

type State string

const (
	Disconnected       State = "disconnected"
	Connecting         State = "connecting"
	Connected          State = "connected"
	RepositorySelected State = "repository_selected"
	FileShown          State = "file_shown"
)

// View is a read-only copy of what the session currently shows.
type View struct {
	State        State                `json:"state"`
	Identity     *entity.Identity     `json:"identity,omitempty"`
	Repositories []*entity.Repository `json:"repositories"`
	Selected     *entity.Repository   `json:"selected,omitempty"`
	Tree         *entity.TreeNode     `json:"tree,omitempty"`
	File         *entity.FileSnapshot `json:"file,omitempty"`
}

type Controller struct {
	sess  *session.Session
	auth  *auth.Coordinator
	gtwy  *gateway.Gateway
	cache *tree.Cache

	mu       sync.Mutex
	state    State
	pending  *auth.Handle
	repos    []*entity.Repository
	selected *entity.Repository
	file     *entity.FileSnapshot
	// epoch changes whenever the selection does; results issued under an
	// older epoch are dropped.
	epoch uint64
}

func New(sess *session.Session, coordinator *auth.Coordinator, gtwy *gateway.Gateway, cache *tree.Cache) *Controller {
	return &Controller{
		sess:  sess,
		auth:  coordinator,
		gtwy:  gtwy,
		cache: cache,
		state: Disconnected,
	}
}

func (c *Controller) Session() *session.Session {
	return c.sess
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:        c.state,
		Repositories: append([]*entity.Repository{}, c.repos...),
	}
	if a := c.sess.Tokens.Get(); a.Authorized {
		v.Identity = a.Identity
	}
	if c.selected != nil {
		selected := *c.selected
		v.Selected = &selected
		v.Tree = c.cache.Snapshot(selected.ID())
	}
	if c.file != nil {
		file := *c.file
		v.File = &file
	}
	return v
}

// selection returns the selected repository and the current epoch.
func (c *Controller) selection() (*entity.Repository, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return nil, c.epoch, false
	}
	return c.selected, c.epoch, true
}

func (c *Controller) connected() bool {
	switch c.state {
	case Connected, RepositorySelected, FileShown:
		return true
	}
	return false
}

package controller

import (
	"context"

	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway"
)

// Repositories reloads the first page of repositories.
func (c *Controller) Repositories(ctx context.Context) ([]*entity.Repository, error) {
	c.mu.Lock()
	if !c.connected() {
		c.mu.Unlock()
		return nil, rlerrors.NotAuthorized
	}
	c.mu.Unlock()

	repos, err := c.gtwy.ListRepositories(ctx, c.sess)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected() {
		return nil, errors.Wrap(rlerrors.Superseded, "disconnected while listing repositories")
	}
	c.repos = repos
	return append([]*entity.Repository{}, repos...), nil
}

// SelectRepository makes id the current repository and ensures its tree
// root. A repository outside the loaded list is selected by name alone.
func (c *Controller) SelectRepository(ctx context.Context, id entity.RepositoryID) (*entity.TreeNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected() {
		return nil, rlerrors.NotAuthorized
	}

	var repo *entity.Repository
	for _, r := range c.repos {
		if r.ID() == id {
			repo = r
			break
		}
	}
	if repo == nil {
		repo = &entity.Repository{Owner: id.Owner(), Name: id.Name(), FullName: id.String()}
	}

	c.selected = repo
	c.file = nil
	c.epoch++
	c.state = RepositorySelected
	return c.cache.EnsureRoot(id), nil
}

// Deselect returns to the repository list. The tree stays cached so
// selecting the repository again reuses it.
func (c *Controller) Deselect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return rlerrors.NoSelection
	}
	c.selected = nil
	c.file = nil
	c.epoch++
	c.state = Connected
	return nil
}

// Expand loads the children of the directory at path in the selected
// repository. A result that arrives after the selection changed is dropped
// and reported as Superseded.
func (c *Controller) Expand(ctx context.Context, path string) ([]*entity.TreeNode, error) {
	repo, epoch, ok := c.selection()
	if !ok {
		return nil, rlerrors.NoSelection
	}

	children, err := c.cache.Expand(ctx, c.sess, repo.ID(), path)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	if c.stale(epoch) {
		return nil, errors.Wrapf(rlerrors.Superseded, "expand %s", path)
	}
	return children, nil
}

// ExpandPath expands every directory from the root down to path.
func (c *Controller) ExpandPath(ctx context.Context, path string) ([]*entity.TreeNode, error) {
	path = gateway.CleanPath(path)
	children, err := c.Expand(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, dir := range ancestors(path) {
		if children, err = c.Expand(ctx, dir); err != nil {
			return nil, err
		}
	}
	return children, nil
}

// OpenFile reads path from the selected repository and shows it.
func (c *Controller) OpenFile(ctx context.Context, path string) (*entity.FileSnapshot, error) {
	repo, epoch, ok := c.selection()
	if !ok {
		return nil, rlerrors.NoSelection
	}

	file, err := c.gtwy.ReadFile(ctx, c.sess, repo.ID(), path)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return nil, errors.Wrapf(rlerrors.Superseded, "open %s", path)
	}
	c.file = file
	c.state = FileShown
	return file, nil
}

// CloseFile goes back to the tree.
func (c *Controller) CloseFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == FileShown {
		c.file = nil
		c.state = RepositorySelected
	}
}

// Refresh throws away the selected repository's tree and lists its root again.
func (c *Controller) Refresh(ctx context.Context) ([]*entity.TreeNode, error) {
	repo, _, ok := c.selection()
	if !ok {
		return nil, rlerrors.NoSelection
	}
	c.cache.Invalidate(repo.ID())
	c.cache.EnsureRoot(repo.ID())
	return c.Expand(ctx, "")
}

func (c *Controller) stale(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch
}

// ancestors lists the directories leading to path, outermost first and
// including path itself: "a/b/c" gives a, a/b, a/b/c.
func ancestors(path string) []string {
	var out []string
	for i, r := range path {
		if r == '/' {
			out = append(out, path[:i])
		}
	}
	if path != "" {
		out = append(out, path)
	}
	return out
}

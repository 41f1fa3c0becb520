// Package tree keeps a lazily populated file tree per repository. Nodes live
// in a flat index keyed by path; a directory is listed at most once until its
// repository's tree is invalidated.
package tree

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway"
	"github.com/repolens/cli/logging"
	"github.com/repolens/cli/metrics"
	"github.com/repolens/cli/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RootPath is the path of the synthetic root directory.
const RootPath = ""

// Lister lists one remote directory. *gateway.Gateway implements it.
type Lister interface {
	ListDirectory(ctx context.Context, sess *session.Session, repo entity.RepositoryID, path string) ([]*entity.Entry, error)
}

type node struct {
	path     string
	name     string
	kind     entity.EntryKind
	loaded   bool
	children []string
}

type repoTree struct {
	generation uint64
	nodes      map[string]*node
}

type Cache struct {
	lister Lister
	hidden *Filter

	mu         sync.Mutex
	trees      map[entity.RepositoryID]*repoTree
	generation uint64

	group singleflight.Group
}

type Option func(*Cache)

// WithFilter hides matching entries from every listing.
func WithFilter(f *Filter) Option {
	return func(c *Cache) {
		c.hidden = f
	}
}

func New(lister Lister, opts ...Option) *Cache {
	c := &Cache{
		lister: lister,
		trees:  map[entity.RepositoryID]*repoTree{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensure returns repo's tree, creating it with an unloaded root. Callers hold mu.
func (c *Cache) ensure(repo entity.RepositoryID) *repoTree {
	t, ok := c.trees[repo]
	if ok {
		return t
	}
	c.generation++
	t = &repoTree{
		generation: c.generation,
		nodes: map[string]*node{
			RootPath: {path: RootPath, name: repo.Name(), kind: entity.KindDirectory},
		},
	}
	c.trees[repo] = t
	return t
}

// EnsureRoot creates the tree for repo if needed and returns its root.
func (c *Cache) EnsureRoot(repo entity.RepositoryID) *entity.TreeNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.ensure(repo)
	return t.snapshot(RootPath, false)
}

// Expand returns the children of the directory at path, listing it remotely
// only the first time. Concurrent expands of one path share a single listing.
// A listing that completes after its tree was invalidated is not applied and
// returns errors.Superseded. A failed listing commits nothing.
func (c *Cache) Expand(ctx context.Context, sess *session.Session, repo entity.RepositoryID, path string) ([]*entity.TreeNode, error) {
	path = gateway.CleanPath(path)
	log := logging.WithContext(ctx).With(zap.String("repository", repo.String()), zap.String("path", path))

	c.mu.Lock()
	t := c.ensure(repo)
	n, ok := t.nodes[path]
	if !ok {
		c.mu.Unlock()
		return nil, errors.Wrapf(rlerrors.NotFound, "%s is not in the loaded tree", path)
	}
	if n.kind != entity.KindDirectory {
		c.mu.Unlock()
		return nil, errors.Wrapf(rlerrors.NotADirectory, "%s", path)
	}
	if n.loaded {
		children := t.children(n)
		c.mu.Unlock()
		metrics.RecordExpand("hit")
		log.Debug("tree cache hit")
		return children, nil
	}
	generation := t.generation
	c.mu.Unlock()

	leader := false
	key := repo.String() + "\x00" + strconv.FormatUint(generation, 10) + "\x00" + path
	ch := c.group.DoChan(key, func() (interface{}, error) {
		leader = true
		metrics.RecordExpand("miss")
		log.Debug("listing directory")

		// Other callers may be waiting on this listing after ctx is gone.
		entries, err := c.lister.ListDirectory(context.WithoutCancel(ctx), sess, repo, path)
		return c.commit(repo, generation, path, entries, err)
	})

	select {
	case res := <-ch:
		if !leader {
			metrics.RecordExpand("coalesced")
		}
		if res.Err != nil {
			if errors.Is(res.Err, rlerrors.Superseded) {
				metrics.RecordExpand("stale")
				log.Debug("discarded listing for invalidated tree")
			} else if leader {
				metrics.RecordExpand("error")
			}
			return nil, res.Err
		}
		return res.Val.([]*entity.TreeNode), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// commit attaches a finished listing to its node, unless the tree it was
// issued against is gone.
func (c *Cache) commit(repo entity.RepositoryID, generation uint64, path string, entries []*entity.Entry, listErr error) ([]*entity.TreeNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.trees[repo]
	if !ok || t.generation != generation {
		return nil, errors.Wrapf(rlerrors.Superseded, "listing of %s:%s", repo, path)
	}
	if listErr != nil {
		return nil, listErr
	}
	n, ok := t.nodes[path]
	if !ok {
		return nil, errors.Wrapf(rlerrors.Superseded, "listing of %s:%s", repo, path)
	}
	if n.loaded {
		return t.children(n), nil
	}

	children := make([]string, 0, len(entries))
	for _, e := range entries {
		p := gateway.CleanPath(e.Path)
		if p == "" {
			p = join(path, e.Name)
		}
		if c.hidden.Hidden(p, e.Kind == entity.KindDirectory) {
			continue
		}
		if _, dup := t.nodes[p]; !dup {
			t.nodes[p] = &node{path: p, name: e.Name, kind: e.Kind}
			children = append(children, p)
		}
	}
	n.children = children
	n.loaded = true
	return t.children(n), nil
}

// Invalidate drops repo's tree. In-flight listings for it are discarded.
func (c *Cache) Invalidate(repo entity.RepositoryID) {
	c.mu.Lock()
	delete(c.trees, repo)
	c.mu.Unlock()
}

// Clear drops every tree.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.trees = map[entity.RepositoryID]*repoTree{}
	c.mu.Unlock()
}

// Has reports whether a tree exists for repo.
func (c *Cache) Has(repo entity.RepositoryID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.trees[repo]
	return ok
}

// Snapshot returns a copy of repo's loaded tree, or nil.
func (c *Cache) Snapshot(repo entity.RepositoryID) *entity.TreeNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.trees[repo]
	if !ok {
		return nil
	}
	return t.snapshot(RootPath, true)
}

// Node returns a copy of the node at path without its subtree.
func (c *Cache) Node(repo entity.RepositoryID, path string) (*entity.TreeNode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.trees[repo]
	if !ok {
		return nil, false
	}
	if _, ok := t.nodes[gateway.CleanPath(path)]; !ok {
		return nil, false
	}
	return t.snapshot(gateway.CleanPath(path), false), true
}

func (t *repoTree) children(n *node) []*entity.TreeNode {
	out := make([]*entity.TreeNode, 0, len(n.children))
	for _, p := range n.children {
		out = append(out, t.snapshot(p, false))
	}
	return out
}

// snapshot copies the node at path; deep also copies loaded descendants.
func (t *repoTree) snapshot(path string, deep bool) *entity.TreeNode {
	n := t.nodes[path]
	out := &entity.TreeNode{
		Path:           n.path,
		Name:           n.name,
		Kind:           n.kind,
		ChildrenLoaded: n.loaded,
	}
	if deep && n.loaded {
		out.Children = make([]*entity.TreeNode, 0, len(n.children))
		for _, p := range n.children {
			out.Children = append(out.Children, t.snapshot(p, true))
		}
	}
	return out
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

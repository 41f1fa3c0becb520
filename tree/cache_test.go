package tree_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/session"
	"github.com/repolens/cli/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu      sync.Mutex
	calls   map[string]int
	listing map[string][]*entity.Entry
	fail    map[string]error
	gate    chan struct{}
	started chan string
}

func newLister() *fakeLister {
	return &fakeLister{
		calls: map[string]int{},
		listing: map[string][]*entity.Entry{
			"": {
				{Name: "src", Path: "src", Kind: entity.KindDirectory},
				{Name: "README.md", Path: "README.md", Kind: entity.KindFile},
			},
			"src": {
				{Name: "main.go", Path: "src/main.go", Kind: entity.KindFile},
				{Name: "util", Path: "src/util", Kind: entity.KindDirectory},
			},
		},
		fail: map[string]error{},
	}
}

func (f *fakeLister) ListDirectory(ctx context.Context, sess *session.Session, repo entity.RepositoryID, path string) ([]*entity.Entry, error) {
	f.mu.Lock()
	f.calls[repo.String()+":"+path]++
	err := f.fail[path]
	entries := f.listing[path]
	gate := f.gate
	f.mu.Unlock()

	if f.started != nil {
		f.started <- path
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *fakeLister) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func names(nodes []*entity.TreeNode) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

var sess = session.New("s1", "local")

const widgets = entity.RepositoryID("acme/widgets")

func TestEnsureRoot(t *testing.T) {
	c := tree.New(newLister())

	root := c.EnsureRoot(widgets)
	require.Equal(t, &entity.TreeNode{Path: "", Name: "widgets", Kind: entity.KindDirectory}, root)
	require.True(t, c.Has(widgets))

	again := c.EnsureRoot(widgets)
	require.Equal(t, root, again)
}

func TestExpandScenario(t *testing.T) {
	lister := newLister()
	c := tree.New(lister)
	ctx := context.Background()

	c.EnsureRoot(widgets)
	children, err := c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)
	require.Equal(t, []string{"src", "README.md"}, names(children))
	require.Equal(t, entity.KindDirectory, children[0].Kind)
	require.False(t, children[0].ChildrenLoaded)
	require.Equal(t, entity.KindFile, children[1].Kind)

	src, err := c.Expand(ctx, sess, widgets, "src")
	require.NoError(t, err)
	require.Equal(t, []string{"main.go", "util"}, names(src))
	require.Equal(t, 1, lister.count("acme/widgets:src"))

	again, err := c.Expand(ctx, sess, widgets, "src")
	require.NoError(t, err)
	require.Equal(t, src, again)
	require.Equal(t, 1, lister.count("acme/widgets:src"))
	require.Equal(t, 1, lister.count("acme/widgets:"))
}

func TestExpandPreservesOtherBranches(t *testing.T) {
	c := tree.New(newLister())
	ctx := context.Background()

	_, err := c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)
	_, err = c.Expand(ctx, sess, widgets, "src")
	require.NoError(t, err)

	snap := c.Snapshot(widgets)
	require.True(t, snap.ChildrenLoaded)
	require.Equal(t, []string{"src", "README.md"}, names(snap.Children))
	src := snap.Find("src")
	require.NotNil(t, src)
	require.True(t, src.ChildrenLoaded)
	require.Equal(t, []string{"main.go", "util"}, names(src.Children))
	require.False(t, snap.Find("src/util").ChildrenLoaded)
	require.Empty(t, snap.Find("README.md").Children)
}

func TestExpandRetryAfterFailure(t *testing.T) {
	lister := newLister()
	lister.fail["src"] = errors.Wrap(rlerrors.Transient, "timeout")
	c := tree.New(lister)
	ctx := context.Background()

	_, err := c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)

	_, err = c.Expand(ctx, sess, widgets, "src")
	require.ErrorIs(t, err, rlerrors.Transient)
	node, ok := c.Node(widgets, "src")
	require.True(t, ok)
	require.False(t, node.ChildrenLoaded)
	require.Nil(t, c.Snapshot(widgets).Find("src/main.go"))

	delete(lister.fail, "src")
	src, err := c.Expand(ctx, sess, widgets, "src")
	require.NoError(t, err)
	require.Equal(t, []string{"main.go", "util"}, names(src))
	require.Equal(t, 2, lister.count("acme/widgets:src"))
}

func TestExpandRejectsFilesAndUnknownPaths(t *testing.T) {
	lister := newLister()
	c := tree.New(lister)
	ctx := context.Background()

	_, err := c.Expand(ctx, sess, widgets, "src")
	require.ErrorIs(t, err, rlerrors.NotFound)

	_, err = c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)
	_, err = c.Expand(ctx, sess, widgets, "README.md")
	require.ErrorIs(t, err, rlerrors.NotADirectory)
	require.Zero(t, lister.count("acme/widgets:README.md"))
}

func TestConcurrentExpandIsCoalesced(t *testing.T) {
	lister := newLister()
	lister.gate = make(chan struct{})
	lister.started = make(chan string, 10)
	c := tree.New(lister)
	ctx := context.Background()

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]*entity.TreeNode, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			children, err := c.Expand(ctx, sess, widgets, "")
			assert.NoError(t, err)
			results[i] = children
		}(i)
	}

	<-lister.started
	// Give the remaining callers time to join the in-flight listing.
	time.Sleep(50 * time.Millisecond)
	close(lister.gate)
	wg.Wait()

	require.Equal(t, 1, lister.count("acme/widgets:"))
	for _, r := range results {
		require.Equal(t, []string{"src", "README.md"}, names(r))
	}
}

func TestStaleExpandIsDiscarded(t *testing.T) {
	lister := newLister()
	lister.gate = make(chan struct{})
	lister.started = make(chan string, 10)
	c := tree.New(lister)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Expand(ctx, sess, widgets, "")
		errc <- err
	}()
	<-lister.started

	c.Invalidate(widgets)
	c.EnsureRoot(widgets)
	close(lister.gate)

	require.ErrorIs(t, <-errc, rlerrors.Superseded)
	node, ok := c.Node(widgets, "")
	require.True(t, ok)
	require.False(t, node.ChildrenLoaded)
}

func TestCallerCancellationKeepsListing(t *testing.T) {
	lister := newLister()
	lister.gate = make(chan struct{})
	lister.started = make(chan string, 10)
	c := tree.New(lister)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Expand(ctx, sess, widgets, "")
		errc <- err
	}()
	<-lister.started
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	close(lister.gate)
	require.Eventually(t, func() bool {
		node, _ := c.Node(widgets, "")
		return node.ChildrenLoaded
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidateRebuilds(t *testing.T) {
	lister := newLister()
	c := tree.New(lister)
	ctx := context.Background()

	_, err := c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)

	c.Invalidate(widgets)
	require.False(t, c.Has(widgets))
	require.Nil(t, c.Snapshot(widgets))

	_, err = c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)
	require.Equal(t, 2, lister.count("acme/widgets:"))
}

func TestRepositoriesDoNotShareNodes(t *testing.T) {
	lister := newLister()
	c := tree.New(lister)
	ctx := context.Background()

	_, err := c.Expand(ctx, sess, widgets, "")
	require.NoError(t, err)
	_, err = c.Expand(ctx, sess, "acme/gadgets", "")
	require.NoError(t, err)
	require.Equal(t, 1, lister.count("acme/gadgets:"))

	c.Clear()
	require.False(t, c.Has(widgets))
	require.False(t, c.Has("acme/gadgets"))
}

func TestFilterHidesEntries(t *testing.T) {
	lister := newLister()
	lister.listing[""] = append(lister.listing[""],
		&entity.Entry{Name: "node_modules", Path: "node_modules", Kind: entity.KindDirectory},
		&entity.Entry{Name: "debug.log", Path: "debug.log", Kind: entity.KindFile},
	)
	c := tree.New(lister, tree.WithFilter(tree.NewFilter([]string{"node_modules/", "*.log", " "})))

	children, err := c.Expand(context.Background(), sess, widgets, "")
	require.NoError(t, err)
	require.Equal(t, []string{"src", "README.md"}, names(children))
}

func TestNewFilterWithoutPatterns(t *testing.T) {
	require.Nil(t, tree.NewFilter(nil))
	require.Nil(t, tree.NewFilter([]string{"", "  "}))

	var f *tree.Filter
	require.False(t, f.Hidden("anything", false))
}

// Package identity resolves filesystem paths to project identities: the
// repository root, a display name, the checked-out branch, and the origin
// remote. Non-repository paths resolve to absent, never to an error.
package identity

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/nvali/chronotap/internal/track"
)

// Identity is the resolved project identity for a path.
type Identity struct {
	Path      string // repository root
	Name      string // display name, usually the root directory name
	Branch    string
	RemoteURL string
}

// Resolver maps a file or directory path to its project identity.
// Implementations must be cheap to call on every activity event and must
// return (nil, nil) for paths outside any repository.
type Resolver interface {
	Resolve(path string) (*Identity, error)
}

// cacheTTL bounds how stale a cached identity may be; branch switches are
// picked up on the next miss.
const cacheTTL = 30 * time.Second

type cacheEntry struct {
	id      *Identity // nil means "known non-repository"
	expires time.Time
}

// GitResolver resolves identities by opening the enclosing git repository.
// Results are cached per queried directory.
type GitResolver struct {
	clock track.Clock

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewGitResolver returns a caching git-backed Resolver.
func NewGitResolver(clock track.Clock) *GitResolver {
	if clock == nil {
		clock = track.SystemClock{}
	}
	return &GitResolver{clock: clock, cache: make(map[string]cacheEntry)}
}

// Resolve implements Resolver. The path may be a file or a directory; the
// enclosing repository is detected by walking up from its directory.
func (r *GitResolver) Resolve(path string) (*Identity, error) {
	dir := path
	if ext := filepath.Ext(path); ext != "" {
		dir = filepath.Dir(path)
	}

	now := r.clock.Now()
	r.mu.Lock()
	if e, ok := r.cache[dir]; ok && now.Before(e.expires) {
		r.mu.Unlock()
		return e.id, nil
	}
	r.mu.Unlock()

	id := resolveGit(dir)

	r.mu.Lock()
	r.cache[dir] = cacheEntry{id: id, expires: now.Add(cacheTTL)}
	r.mu.Unlock()
	return id, nil
}

// resolveGit opens the repository enclosing dir and extracts its identity.
// Any failure yields nil: identity resolution is never fatal.
func resolveGit(dir string) *Identity {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil
	}
	root := wt.Filesystem.Root()

	id := &Identity{
		Path: root,
		Name: filepath.Base(root),
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			id.Branch = head.Name().Short()
		} else {
			// Detached HEAD: use the short hash so time is still attributable.
			id.Branch = head.Hash().String()[:7]
		}
	} else if err == plumbing.ErrReferenceNotFound {
		// Freshly initialized repository with no commits yet.
		id.Branch = "main"
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			id.RemoteURL = urls[0]
		}
	}

	return id
}

// StaticResolver returns a fixed identity for every path. Used as the
// fallback for non-repository workspaces and as a stub in tests.
type StaticResolver struct {
	Identity *Identity
}

func (s *StaticResolver) Resolve(string) (*Identity, error) {
	return s.Identity, nil
}

// Fallback returns the workspace identity used when resolution yields
// absent: the directory itself with no branch.
func Fallback(dir string) *Identity {
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		name = "unknown"
	}
	return &Identity{Path: dir, Name: name}
}

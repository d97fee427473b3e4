// Package git provides read-only repository metadata for gearbox: the
// repository root used to anchor the catalog and cache, and the commit,
// branch, tag and change information shown by `gearbox info`.
package git

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Common Git errors
var (
	ErrNotAGitRepo  = errors.New("not a git repository")
	ErrInvalidScope = errors.New("change scope must be at least 1")
	ErrShallowScope = errors.New("history is shorter than the requested scope")
)

// ShortHashLen is the length of abbreviated commit hashes.
const ShortHashLen = 7

// Git is the interface for repository metadata.
type Git interface {
	Root(ctx context.Context) (string, error)
	Commit(ctx context.Context) (string, error)
	Branch(ctx context.Context) (string, error)
	Tag(ctx context.Context, current bool) (string, error)
	Changes(ctx context.Context, scope int) ([]string, error)
}

// Client implements the Git interface for the repository containing a path.
type Client struct {
	path string // Any path inside the repository
}

// NewClient creates a client for the repository that contains path.
func NewClient(path string) *Client {
	return &Client{path: path}
}

// FindRoot returns the top-level directory of the repository containing dir.
func FindRoot(dir string) (string, error) {
	return NewClient(dir).Root(context.Background())
}

func (c *Client) open(ctx context.Context) (*gogit.Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(c.path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, ErrNotAGitRepo
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// Root returns the repository's worktree root.
func (c *Client) Root(ctx context.Context) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// Commit returns the abbreviated hash of HEAD.
func (c *Client) Commit(ctx context.Context) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	return ref.Hash().String()[:ShortHashLen], nil
}

// Branch returns the checked out branch name, or "HEAD" when detached.
func (c *Client) Branch(ctx context.Context) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	if !ref.Name().IsBranch() {
		return plumbing.HEAD.String(), nil
	}
	return ref.Name().Short(), nil
}

// Tag returns a tag name, or "" when there is none. With current set it is a
// tag pointing exactly at HEAD; otherwise it is the nearest tag reachable
// from HEAD.
func (c *Client) Tag(ctx context.Context, current bool) (string, error) {
	repo, err := c.open(ctx)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	tags, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}
	if current {
		return first(tags[head.Hash()]), nil
	}

	commits, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}
	defer commits.Close()

	var found string
	err = commits.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if names := tags[commit.Hash]; len(names) > 0 {
			found = first(names)
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return "", fmt.Errorf("walk history: %w", err)
	}
	return found, nil
}

var errStop = errors.New("stop")

// tagsByCommit maps commit hashes to the tags that point at them, resolving
// annotated tags to their target commit.
func tagsByCommit(repo *gogit.Repository) (map[plumbing.Hash][]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	out := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, err := repo.TagObject(hash); err == nil {
			commit, err := tag.Commit()
			if err != nil {
				// Tags of trees or blobs carry no commit.
				return nil
			}
			hash = commit.Hash
		}
		out[hash] = append(out[hash], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return out, nil
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// Changes returns the paths that differ between HEAD and the commit scope
// first-parent steps behind it, sorted.
func (c *Client) Changes(ctx context.Context, scope int) ([]string, error) {
	if scope < 1 {
		return nil, ErrInvalidScope
	}
	repo, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}
	newer, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}

	older := newer
	for range scope {
		if older.NumParents() == 0 {
			return nil, ErrShallowScope
		}
		if older, err = older.Parent(0); err != nil {
			return nil, fmt.Errorf("read parent commit: %w", err)
		}
	}

	oldTree, err := older.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	newTree, err := newer.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	changes, err := object.DiffTreeWithOptions(ctx, oldTree, newTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				paths = append(paths, name)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

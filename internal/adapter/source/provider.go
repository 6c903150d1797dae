// Package source lists and reads the files a review session analyzes.
// It prefers the committed tree of a branch when the root directory is a
// git repository, and falls back to walking the directory otherwise.
package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/jgardner/reviewflow/internal/domain"
)

// DefaultMaxFiles caps how many files a single session will analyze.
const DefaultMaxFiles = 20

// Provider implements the orchestrator's SourceProvider port.
type Provider struct {
	rootDir  string
	maxFiles int
}

// NewProvider constructs a provider rooted at the given directory.
// maxFiles <= 0 selects DefaultMaxFiles.
func NewProvider(rootDir string, maxFiles int) *Provider {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Provider{rootDir: rootDir, maxFiles: maxFiles}
}

// ListFiles returns the analyzable files for the given branch, sorted by
// path and capped at the provider's file limit. An empty branch ref means
// the checked-out HEAD. Non-repositories fall back to a directory walk.
func (p *Provider) ListFiles(ctx context.Context, branchRef string) ([]string, error) {
	repo, err := goGit.PlainOpenWithOptions(p.rootDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err == goGit.ErrRepositoryNotExists {
		return p.walkFiles(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	commit, err := resolveCommit(repo, branchRef)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %q: %w", branchRef, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}

	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if domain.IsSourceFile(f.Name) {
			files = append(files, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk tree: %w", err)
	}

	return p.capSorted(files), nil
}

// ReadFile reads a file relative to the provider root. Paths escaping the
// root are rejected.
func (p *Provider) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full, err := p.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func (p *Provider) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute path not allowed: %s", path)
	}
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes repository root: %s", path)
	}
	return filepath.Join(p.rootDir, cleaned), nil
}

func (p *Provider) walkFiles(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		name := d.Name()
		if d.IsDir() {
			if path != p.rootDir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !domain.IsSourceFile(name) {
			return nil
		}
		rel, err := filepath.Rel(p.rootDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", p.rootDir, err)
	}
	return p.capSorted(files), nil
}

func (p *Provider) capSorted(files []string) []string {
	sort.Strings(files)
	if len(files) > p.maxFiles {
		files = files[:p.maxFiles]
	}
	return files
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	if ref == "" {
		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolve HEAD: %w", err)
		}
		return repo.CommitObject(head.Hash())
	}

	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	return nil, lastErr
}

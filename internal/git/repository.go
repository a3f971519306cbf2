// Package git provides the local git queries stylescan needs: which files
// are staged or changed, and the branch/commit context recorded with each
// scan run. It shells out to the git binary rather than reimplementing
// repository access.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Context identifies the repository state a scan ran against.
type Context struct {
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// Repo runs git commands against a working tree.
type Repo struct {
	path string
}

// NewRepo creates a Repo rooted at path, verifying it is inside a git
// repository.
func NewRepo(path string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	repo := &Repo{path: absPath}
	if _, err := repo.Root(context.Background()); err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	return repo, nil
}

// runGit executes a git command and returns the output.
func (r *Repo) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Include stderr in error message for debugging
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, errMsg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return stdout.String(), nil
}

// StagedFiles returns the paths of files with staged changes, relative to
// the repository root. Deleted files are excluded since they cannot be
// scanned.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	output, err := r.runGit(ctx, "diff", "--cached", "--name-only", "--diff-filter=d")
	if err != nil {
		return nil, err
	}
	return splitNames(output), nil
}

// ChangedFiles returns the paths of files that differ from base. An empty
// base compares the working tree against HEAD.
func (r *Repo) ChangedFiles(ctx context.Context, base string) ([]string, error) {
	args := []string{"diff", "--name-only", "--diff-filter=d"}
	if base != "" {
		args = append(args, base)
	}
	output, err := r.runGit(ctx, args...)
	if err != nil {
		return nil, err
	}
	return splitNames(output), nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// HeadCommit returns the abbreviated hash of HEAD.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Root returns the repository's top-level directory.
func (r *Repo) Root(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	output, err := r.runGit(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) == "", nil
}

// CurrentContext returns the branch and commit for run records. Both are
// best-effort: a repository with no commits yields an empty Context, not
// an error.
func (r *Repo) CurrentContext(ctx context.Context) Context {
	var gc Context
	if branch, err := r.CurrentBranch(ctx); err == nil {
		gc.Branch = branch
	}
	if commit, err := r.HeadCommit(ctx); err == nil {
		gc.Commit = commit
	}
	return gc
}

// splitNames splits name-only git output into a path list, dropping blank
// lines.
func splitNames(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

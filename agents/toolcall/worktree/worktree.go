/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package worktree provides repository tools (read, write, delete, list,
// search, status) scoped to a go-git worktree.
package worktree

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/chainguard-dev/clog"
	gogit "github.com/go-git/go-git/v5"
)

// Match represents a search result from search_codebase.
type Match struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// Tree performs file operations rooted at a git worktree. Write and delete
// operations stage their changes in the index.
type Tree struct {
	wt         *gogit.Worktree
	root       string
	maxMatches int
}

// New returns a Tree over wt.
func New(wt *gogit.Worktree) *Tree {
	return &Tree{wt: wt, root: wt.Filesystem.Root(), maxMatches: 200}
}

// Open opens the repository containing dir and returns a Tree over its worktree.
func Open(dir string) (*Tree, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	return New(wt), nil
}

// resolve ensures path doesn't escape the worktree root.
func (t *Tree) resolve(path string) (string, error) {
	full := filepath.Join(t.root, filepath.Clean(path))
	rel, err := filepath.Rel(t.root, full)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes worktree", path)
	}
	return full, nil
}

// ReadFile returns the content of path.
func (t *Tree) ReadFile(_ context.Context, path string) (string, error) {
	full, err := t.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile writes content to path and stages it.
func (t *Tree) WriteFile(_ context.Context, path, content string, mode os.FileMode) error {
	full, err := t.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(content), mode); err != nil {
		return err
	}
	_, err = t.wt.Add(filepath.ToSlash(filepath.Clean(path)))
	return err
}

// DeleteFile removes path and stages the deletion.
func (t *Tree) DeleteFile(_ context.Context, path string) error {
	full, err := t.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return err
	}
	_, err = t.wt.Remove(filepath.ToSlash(filepath.Clean(path)))
	return err
}

// ListFiles lists path. Directories carry a trailing "/". When recursive is
// set, every non-hidden file below path is returned relative to the root.
func (t *Tree) ListFiles(ctx context.Context, path string, recursive bool) ([]string, error) {
	full, err := t.resolve(path)
	if err != nil {
		return nil, err
	}

	if !recursive {
		entries, err := os.ReadDir(full)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Name() == ".git" {
				continue
			}
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		return names, nil
	}

	var files []string
	err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != full && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// SearchCodebase returns lines matching pattern across non-hidden text files.
func (t *Tree) SearchCodebase(ctx context.Context, pattern string) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	var matches []Match
	err = filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != t.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isBinaryFile(path) {
			return nil
		}
		found, err := searchFile(path, t.root, re)
		if err != nil {
			return nil // Skip files we can't read
		}
		matches = append(matches, found...)
		if len(matches) >= t.maxMatches {
			matches = matches[:t.maxMatches]
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Status returns the porcelain status code of every changed path.
func (t *Tree) Status(_ context.Context) (map[string]string, error) {
	st, err := t.wt.Status()
	if err != nil {
		return nil, fmt.Errorf("computing status: %w", err)
	}
	out := make(map[string]string, len(st))
	for path, s := range st {
		out[path] = string(s.Staging) + string(s.Worktree)
	}
	return out, nil
}

func searchFile(path, root string, re *regexp.Regexp) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}

	var matches []Match
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if text := scanner.Text(); re.MatchString(text) {
			matches = append(matches, Match{Path: filepath.ToSlash(rel), Line: line, Content: text})
		}
	}
	return matches, scanner.Err()
}

var binaryExts = []string{
	".exe", ".dll", ".so", ".dylib",
	".zip", ".tar", ".gz", ".bz2",
	".png", ".jpg", ".jpeg", ".gif", ".ico",
	".pdf", ".bin", ".dat",
}

func isBinaryFile(path string) bool {
	return slices.Contains(binaryExts, strings.ToLower(filepath.Ext(path)))
}

// logReasoning records the model's stated reason for a tool call.
func logReasoning(ctx context.Context, tool, reasoning string) {
	if reasoning == "" {
		return
	}
	clog.FromContext(ctx).With("tool", tool).With("reasoning", reasoning).Info("Tool call reasoning")
}

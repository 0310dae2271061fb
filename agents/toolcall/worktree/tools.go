/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package worktree

import (
	"context"
	"fmt"
	"os"

	"chainguard.dev/reasoner/agents/toolcall"
)

type readFileArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Explain why you are reading this file."`
	Path      string `json:"path" jsonschema:"description=The path to the file to read (relative to repository root),required"`
}

type writeFileArgs struct {
	Reasoning  string `json:"reasoning,omitempty" jsonschema:"description=Explain why you are writing this file."`
	Path       string `json:"path" jsonschema:"description=The path to the file to write (relative to repository root),required"`
	Content    string `json:"content" jsonschema:"description=The complete content to write to the file,required"`
	Executable bool   `json:"executable,omitempty" jsonschema:"description=Whether the file should be executable"`
}

type deleteFileArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Explain why you are deleting this file."`
	Path      string `json:"path" jsonschema:"description=The path to the file to delete (relative to repository root),required"`
}

type listFilesArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Explain why you are listing files."`
	Path      string `json:"path,omitempty" jsonschema:"description=Directory relative to repository root (default: the root)"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"description=List every file below the directory"`
}

type searchArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Explain what you are searching for and why."`
	Pattern   string `json:"pattern" jsonschema:"description=The regex pattern to search for,required"`
}

type statusArgs struct {
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Explain why you need the repository status."`
}

// Tools returns the repository tools bound to t.
func (t *Tree) Tools() ([]toolcall.Tool, error) {
	var tools []toolcall.Tool
	add := func(tool toolcall.Tool, err error) error {
		if err != nil {
			return err
		}
		tools = append(tools, tool)
		return nil
	}

	if err := add(toolcall.NewTool("read_file", "Read the complete content of a file from the codebase.",
		func(ctx context.Context, args readFileArgs) (any, error) {
			logReasoning(ctx, "read_file", args.Reasoning)
			content, err := t.ReadFile(ctx, args.Path)
			if err != nil {
				return nil, err
			}
			return map[string]any{"path": args.Path, "content": content, "size": len(content)}, nil
		})); err != nil {
		return nil, err
	}

	if err := add(toolcall.NewTool("write_file", "Create or update a file in the codebase.",
		func(ctx context.Context, args writeFileArgs) (any, error) {
			logReasoning(ctx, "write_file", args.Reasoning)
			mode := os.FileMode(0o644)
			if args.Executable {
				mode = 0o755
			}
			if err := t.WriteFile(ctx, args.Path, args.Content, mode); err != nil {
				return nil, err
			}
			return map[string]any{"path": args.Path, "bytes_written": len(args.Content)}, nil
		})); err != nil {
		return nil, err
	}

	if err := add(toolcall.NewTool("delete_file", "Delete a file from the codebase.",
		func(ctx context.Context, args deleteFileArgs) (any, error) {
			logReasoning(ctx, "delete_file", args.Reasoning)
			if err := t.DeleteFile(ctx, args.Path); err != nil {
				return nil, err
			}
			return map[string]any{"path": args.Path, "deleted": true}, nil
		})); err != nil {
		return nil, err
	}

	if err := add(toolcall.NewTool("list_files", "List the files and directories under a path.",
		func(ctx context.Context, args listFilesArgs) (any, error) {
			logReasoning(ctx, "list_files", args.Reasoning)
			path := args.Path
			if path == "" {
				path = "."
			}
			entries, err := t.ListFiles(ctx, path, args.Recursive)
			if err != nil {
				return nil, err
			}
			return map[string]any{"path": path, "entries": entries, "count": len(entries)}, nil
		})); err != nil {
		return nil, err
	}

	if err := add(toolcall.NewTool("search_codebase", "Search for a pattern across all files in the codebase.",
		func(ctx context.Context, args searchArgs) (any, error) {
			logReasoning(ctx, "search_codebase", args.Reasoning)
			matches, err := t.SearchCodebase(ctx, args.Pattern)
			if err != nil {
				return nil, err
			}
			return map[string]any{"pattern": args.Pattern, "matches": matches, "count": len(matches)}, nil
		})); err != nil {
		return nil, err
	}

	if err := add(toolcall.NewTool("git_status", "Show files changed in the working tree and index.",
		func(ctx context.Context, args statusArgs) (any, error) {
			logReasoning(ctx, "git_status", args.Reasoning)
			st, err := t.Status(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"changes": st, "clean": len(st) == 0}, nil
		})); err != nil {
		return nil, fmt.Errorf("building git_status: %w", err)
	}

	return tools, nil
}

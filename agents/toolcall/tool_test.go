/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall_test

import (
	"context"
	"errors"
	"testing"

	"chainguard.dev/reasoner/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

type greetArgs struct {
	Name  string `json:"name" jsonschema:"description=Who to greet,required"`
	Times int    `json:"times,omitempty"`
}

func greetTool(t *testing.T) toolcall.Tool {
	t.Helper()
	tool, err := toolcall.NewTool("greet", "Greets someone", func(_ context.Context, args greetArgs) (any, error) {
		return map[string]any{"greeting": "hello " + args.Name, "times": args.Times}, nil
	})
	if err != nil {
		t.Fatalf("NewTool() error = %v", err)
	}
	return tool
}

func TestNewToolDefinition(t *testing.T) {
	tool := greetTool(t)

	want := toolcall.Definition{
		Name:        "greet",
		Description: "Greets someone",
		Parameters: []toolcall.Parameter{
			{Name: "name", Type: "string", Description: "Who to greet", Required: true},
			{Name: "times", Type: "integer"},
		},
	}
	if diff := cmp.Diff(want, tool.Def); diff != "" {
		t.Errorf("definition mismatch (-want +got):\n%s", diff)
	}
}

func TestNewToolHandler(t *testing.T) {
	tool := greetTool(t)
	ctx := context.Background()

	got, err := tool.Handler(ctx, toolcall.ToolCall{Args: map[string]any{"name": "gopher", "times": float64(2)}})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if diff := cmp.Diff(map[string]any{"greeting": "hello gopher", "times": 2}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	if _, err := tool.Handler(ctx, toolcall.ToolCall{Args: map[string]any{"times": float64(1)}}); err == nil {
		t.Error("Handler() without required name: got nil error")
	}
	if _, err := tool.Handler(ctx, toolcall.ToolCall{Args: map[string]any{"name": 42}}); err == nil {
		t.Error("Handler() with wrongly typed name: got nil error")
	}
}

func TestRegistry(t *testing.T) {
	echo := toolcall.Tool{
		Def: toolcall.Definition{Name: "echo"},
		Handler: func(_ context.Context, call toolcall.ToolCall) (any, error) {
			v, err := toolcall.Param[string](call, "text")
			if err != nil {
				return nil, err
			}
			upper, err := toolcall.OptionalParam(call, "upper", false)
			if err != nil {
				return nil, err
			}
			if upper {
				return "ECHO " + v, nil
			}
			return v, nil
		},
	}

	reg, err := toolcall.NewRegistry(greetTool(t), echo)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	names := []string{}
	for _, d := range reg.Definitions() {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"greet", "echo"}, names); diff != "" {
		t.Errorf("definition order mismatch (-want +got):\n%s", diff)
	}

	ctx := context.Background()
	got, err := reg.Execute(ctx, "echo", map[string]any{"text": "hi", "upper": true})
	if err != nil || got != "ECHO hi" {
		t.Errorf("Execute(echo) = (%v, %v), want (ECHO hi, nil)", got, err)
	}

	if _, err := reg.Execute(ctx, "missing", nil); !errors.Is(err, toolcall.ErrUnknownTool) {
		t.Errorf("Execute(missing): got %v, want %v", err, toolcall.ErrUnknownTool)
	}

	if err := reg.Register(echo); err == nil {
		t.Error("Register() duplicate: got nil error")
	}
	if err := reg.Register(toolcall.Tool{Def: toolcall.Definition{Name: "nohandler"}}); err == nil {
		t.Error("Register() without handler: got nil error")
	}
}

func TestTransient(t *testing.T) {
	if toolcall.Transient(nil) != nil {
		t.Error("Transient(nil): got non-nil, wanted nil")
	}

	base := errors.New("connection reset")
	err := toolcall.Transient(base)
	if !errors.Is(err, base) {
		t.Errorf("errors.Is(%v, base): got = false, wanted = true", err)
	}
	if err.Error() != base.Error() {
		t.Errorf("Error(): got = %q, wanted = %q", err.Error(), base.Error())
	}
	var r interface{ Retryable() bool }
	if !errors.As(err, &r) || !r.Retryable() {
		t.Errorf("Retryable(): got = false, wanted = true")
	}
}

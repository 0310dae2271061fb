/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"chainguard.dev/reasoner/agents/session"
)

const detailWidth = 60

// writeReport renders the session summary and its steps as markdown.
func writeReport(w io.Writer, st *session.State) error {
	if _, err := fmt.Fprintf(w, "## Session %s\n\n**Status:** %s | **Iterations:** %d/%d\n\n",
		st.ID, st.Status, st.IterationCount, st.MaxIterations); err != nil {
		return err
	}
	if st.Error != "" {
		if _, err := fmt.Fprintf(w, "**Error:** %s\n\n", st.Error); err != nil {
			return err
		}
	}

	table := newStepTable(w)
	for i, step := range st.Steps {
		if err := table.Append(stepRow(i+1, step)); err != nil {
			return err
		}
	}
	return table.Render()
}

func newStepTable(w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{"#", "Iteration", "Kind", "Detail", "Outcome"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

func stepRow(n int, step session.Step) []string {
	var detail string
	switch step.Kind {
	case session.StepToolInvocation:
		detail = cell(fmt.Sprintf("%s (%s)", step.Tool, step.CallID))
	case session.StepModelResponse:
		detail = cell(step.Text)
		if len(step.CallIDs) > 0 {
			detail = fmt.Sprintf("%s [calls: %s]", detail, escape(strings.Join(step.CallIDs, ", ")))
		}
		if step.Intent != "" {
			detail = fmt.Sprintf("%s [intent: %s]", detail, escape(step.Intent))
		}
	default:
		detail = cell(step.Text)
	}
	return []string{
		strconv.Itoa(n),
		strconv.Itoa(step.Iteration),
		string(step.Kind),
		detail,
		outcome(step),
	}
}

// cell renders free text as a single-line table cell of bounded width.
// Escaping happens after truncation so an escape is never cut in half.
func cell(s string) string {
	return escape(truncate(oneLine(s), detailWidth))
}

func outcome(step session.Step) string {
	switch {
	case step.Status != "":
		return string(step.Status)
	case step.Outcome == nil:
		return ""
	case step.Outcome.Success:
		return "ok"
	default:
		return "failed: " + step.Outcome.Reason
	}
}

// oneLine collapses whitespace so a cell never breaks the table.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

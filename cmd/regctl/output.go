package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joshuapare/regremote/pkg/batch"
	"github.com/joshuapare/regremote/pkg/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// render prints the outcome: tables on stdout and host problems on stderr,
// or the whole outcome as JSON.
func (g *globals) render(out *batch.Outcome) error {
	if g.jsonOut {
		return printJSON(g.stdout, out)
	}

	switch {
	case len(out.Results) > 0:
		g.printTable(resultsTable(out.Results))
	case len(out.Tests) > 0:
		g.printTable(testsTable(out.Tests))
	case len(out.Keys) > 0:
		g.printTable(keysTable(out.Keys))
	}

	fail, skip := g.style(failStyle), g.style(skipStyle)
	for _, h := range out.Hosts {
		switch h.State {
		case batch.Failed:
			kind, _ := types.KindOf(h.Err)
			fmt.Fprintln(g.stderr, fail.Render(fmt.Sprintf("FAILED  %s [%s at %s]: %s", h.ComputerName, kind, h.Stage, h.Reason)))
		case batch.Skipped:
			fmt.Fprintln(g.stderr, skip.Render(fmt.Sprintf("SKIPPED %s [%s]: %s", h.ComputerName, h.Stage, h.Reason)))
		}
	}

	if !g.quiet && (len(out.Hosts) > 1 || out.HasFailures()) {
		fmt.Fprintf(g.stderr, "%d host(s): %d succeeded, %d failed, %d skipped\n",
			len(out.Hosts), out.Count(batch.Succeeded), out.Count(batch.Failed), out.Count(batch.Skipped))
	}
	return nil
}

// printJSON outputs data as indented JSON.
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type tableData struct {
	headers []string
	rows    [][]string
}

func (g *globals) printTable(d tableData) {
	header, cell, border := g.style(headerStyle), g.style(cellStyle), g.style(borderStyle)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		Headers(d.headers...).
		Rows(d.rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	fmt.Fprintln(g.stdout, t.Render())
}

// style drops colors under --no-color and keeps layout.
func (g *globals) style(s lipgloss.Style) lipgloss.Style {
	if !g.noColor {
		return s
	}
	return s.UnsetForeground().UnsetBackground().UnsetBold()
}

func resultsTable(results []*types.Result) tableData {
	d := tableData{headers: []string{"ComputerName", "Hive", "Key", "Value", "Type", "Data"}}
	for _, r := range results {
		d.rows = append(d.rows, []string{
			r.ComputerName, r.Hive.String(), r.Key, r.Value, r.Type.String(), formatData(r),
		})
	}
	return d
}

func testsTable(tests []batch.TestResult) tableData {
	d := tableData{headers: []string{"ComputerName", "Hive", "Key", "Value", "Exists"}}
	for _, t := range tests {
		d.rows = append(d.rows, []string{
			t.ComputerName, t.Hive.String(), t.Key, t.Value, strconv.FormatBool(t.Exists),
		})
	}
	return d
}

func keysTable(keys []batch.KeyEntry) tableData {
	d := tableData{headers: []string{"ComputerName", "Hive", "Key", "Name"}}
	for _, k := range keys {
		d.rows = append(d.rows, []string{k.ComputerName, k.Hive.String(), k.Key, k.Name})
	}
	return d
}

// formatData renders a result's data for a table cell. Hex and expanded
// renderings win when they were requested.
func formatData(r *types.Result) string {
	if r.Hex != "" {
		return r.Hex
	}
	if r.Expanded != "" {
		return r.Expanded
	}
	switch v := r.Data.(type) {
	case string:
		return v
	case types.ExpandString:
		return string(v)
	case []string:
		return strings.Join(v, "\n")
	case []byte:
		return formatBytes(v)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func formatBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

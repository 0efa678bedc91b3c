// Package format renders query results for the command line.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/query"
)

// Output formats.
const (
	Auto  = "auto"
	Table = "table"
	Plain = "plain"
	JSON  = "json"
)

const timeLayout = "2006-01-02 15:04"

// Resolve turns "auto" into table for terminals and plain otherwise.
func Resolve(format string, out io.Writer) string {
	format = strings.ToLower(format)
	if format != "" && format != Auto {
		return format
	}
	if IsTerminal(out) {
		return Table
	}
	return Plain
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width returns the terminal width of out, then $COLUMNS, then 80.
func Width(out io.Writer) int {
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

// WriteResult writes res to w in format (table, plain or json). width
// bounds the description column.
func WriteResult(w io.Writer, res query.Result, format string, width int) error {
	switch strings.ToLower(format) {
	case Table:
		return writeTable(w, res, width)
	case Plain:
		return writePlain(w, res, width)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeTable(w io.Writer, res query.Result, width int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.SetTitle(title(res))

	descMax := width - 50
	if descMax < 20 {
		descMax = 20
	}

	if res.Kind == query.ResultEvents {
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignLeft},
			{Number: 2, Align: text.AlignLeft},
			{Number: 3, Align: text.AlignLeft},
			{Number: 4, Align: text.AlignLeft, WidthMax: descMax},
		})
		tw.AppendHeader(table.Row{"Time", "App", "Key", "Window"})
		for _, e := range res.Events {
			tw.AppendRow(table.Row{e.Timestamp.Local().Format(timeLayout), e.Context.AppName, keyLabel(e), e.Context.WindowTitle})
		}
		tw.Render()
		return nil
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, WidthMax: 24},
		{Number: 4, Align: text.AlignLeft, WidthMax: descMax},
	})
	tw.AppendHeader(table.Row{"Start", "End", "Tags", "Description"})
	for _, s := range res.Summaries {
		tw.AppendRow(table.Row{
			s.StartTime.Local().Format(timeLayout),
			s.EndTime.Local().Format(timeLayout),
			strings.Join(s.Tags, ", "),
			s.Description,
		})
	}
	if res.Kind == query.ResultEmpty {
		tw.AppendRow(table.Row{"-", "-", "-", "(nothing found)"})
	}
	tw.Render()
	return nil
}

func writePlain(w io.Writer, res query.Result, width int) error {
	if _, err := fmt.Fprintln(w, "# "+title(res)); err != nil {
		return err
	}
	switch res.Kind {
	case query.ResultEvents:
		for _, e := range res.Events {
			line := fmt.Sprintf("%s\t%s\t%s\t%s",
				e.Timestamp.Local().Format(timeLayout), e.Context.AppName, keyLabel(e), e.Context.WindowTitle)
			if _, err := fmt.Fprintln(w, runewidth.Truncate(line, width, "…")); err != nil {
				return err
			}
		}
	case query.ResultSummaries:
		for _, s := range res.Summaries {
			line := fmt.Sprintf("%s\t%s\t%s\t%s",
				s.ID,
				s.StartTime.Local().Format(timeLayout),
				strings.Join(s.Tags, ","),
				strings.ReplaceAll(s.Description, "\n", " "))
			if _, err := fmt.Fprintln(w, runewidth.Truncate(line, width, "…")); err != nil {
				return err
			}
		}
	}
	return nil
}

func title(res query.Result) string {
	t := fmt.Sprintf("%s: %d %s", res.Timeframe.Description, count(res), res.Kind)
	if res.IsEmpty() {
		t = res.Timeframe.Description + ": nothing found"
	}
	if res.AppFilter != "" {
		t += " in " + res.AppFilter
	}
	if res.Rewritten != "" {
		t += fmt.Sprintf(" as %q", res.Rewritten)
	}
	return t
}

func count(res query.Result) int {
	if res.Kind == query.ResultEvents {
		return len(res.Events)
	}
	return len(res.Summaries)
}

func keyLabel(e activity.Event) string {
	k, ok := e.Keystroke()
	if !ok {
		return e.Kind
	}
	if len(k.Modifiers) == 0 {
		return k.Key
	}
	return strings.Join(k.Modifiers, "+") + "+" + k.Key
}

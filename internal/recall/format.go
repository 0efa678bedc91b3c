package recall

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/probe"
	"github.com/runnerr0/secondbrain/internal/query"
)

const header = "Fishy says:"

// Formatter renders query results as the plain-text recall response.
type Formatter struct {
	// Aliases map a case-insensitive app-name substring to a display name.
	Aliases map[string]string
	// Browsers, if set, is the live browser list used for activity guesses.
	Browsers *probe.Browsers
	keys     []string
}

// NewFormatter returns a Formatter using aliases, or the defaults if nil.
func NewFormatter(aliases map[string]string) *Formatter {
	if aliases == nil {
		aliases = config.DefaultAppAliases()
	}
	f := &Formatter{Aliases: aliases}
	for k := range aliases {
		f.keys = append(f.keys, k)
	}
	sort.Strings(f.keys)
	return f
}

// DisplayName applies the first matching alias to app.
func (f *Formatter) DisplayName(app string) string {
	lower := strings.ToLower(app)
	for _, k := range f.keys {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return f.Aliases[k]
		}
	}
	return app
}

func (f *Formatter) browsers() []string {
	if list := f.Browsers.List(); len(list) > 0 {
		return list
	}
	return config.DefaultBrowsers()
}

// Format renders res.
func (f *Formatter) Format(res query.Result) string {
	switch res.Kind {
	case query.ResultSummaries:
		return f.formatSummaries(res)
	case query.ResultEvents:
		return f.formatEvents(res)
	default:
		return FormatEmpty(res.Timeframe)
	}
}

// FormatEmpty is the response when nothing matched in tf.
func FormatEmpty(tf query.Timeframe) string {
	return fmt.Sprintf("%s I don't remember anything matching that query (%s).", header, tf.Description)
}

type mode int

const (
	modeActivity mode = iota
	modeKeys
	modeApps
)

func queryMode(q string) mode {
	q = strings.ToLower(q)
	ranking := strings.Contains(q, "most") || strings.Contains(q, "frequent")
	switch {
	case ranking && strings.Contains(q, "key"):
		return modeKeys
	case ranking && strings.Contains(q, "app"):
		return modeApps
	default:
		return modeActivity
	}
}

func (f *Formatter) formatSummaries(res query.Result) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	if res.Rewritten != "" {
		fmt.Fprintf(&b, "(I looked for %q)\n", res.Rewritten)
	}

	m := queryMode(res.Query)
	for _, s := range res.Summaries {
		span := timeSpan(s)
		keys := tally(s.Events, eventKey)
		apps := tally(s.Events, func(e activity.Event) string { return f.DisplayName(e.Context.AppName) })

		switch {
		case m == modeKeys && len(s.Events) > 0:
			fmt.Fprintf(&b, "• %s: Most frequently used keys:\n", span)
			for i, c := range head(keys, 10) {
				fmt.Fprintf(&b, "%d. %s (%d times)\n", i+1, c.name, c.n)
			}
			fmt.Fprintf(&b, "(%d events)\n", len(s.Events))
		case m == modeApps && len(s.Events) > 0:
			fmt.Fprintf(&b, "• %s: Most frequently used applications:\n", span)
			for i, c := range head(apps, 5) {
				fmt.Fprintf(&b, "%d. %s (%d events)\n", i+1, c.name, c.n)
			}
			fmt.Fprintf(&b, "(%d events)\n", len(s.Events))
		case len(s.Events) == 0:
			fmt.Fprintf(&b, "• %s: %s\n", span, firstLine(s.Description))
		default:
			top := names(head(apps, 2))
			fmt.Fprintf(&b, "• %s: %s in %s (%d events)\n",
				span, guessActivity(keys, top, f.browsers()), strings.Join(top, " and "), len(s.Events))
		}
	}
	return b.String()
}

func (f *Formatter) formatEvents(res query.Result) string {
	type group struct {
		count
		first, last activity.Event
	}
	groups := map[string]*group{}
	var order []string
	for _, e := range res.Events {
		name := f.DisplayName(e.Context.AppName)
		g, ok := groups[name]
		if !ok {
			g = &group{count: count{name: name}, first: e}
			groups[name] = g
			order = append(order, name)
		}
		g.n++
		g.last = e
	}
	sort.SliceStable(order, func(i, j int) bool {
		return groups[order[i]].n > groups[order[j]].n
	})

	var b strings.Builder
	b.WriteString(header + "\n")
	if res.Rewritten != "" {
		fmt.Fprintf(&b, "(I looked for %q)\n", res.Rewritten)
	}
	fmt.Fprintf(&b, "No summaries yet for %s, but I saw %d keystrokes:\n", res.Timeframe.Description, len(res.Events))
	for _, name := range order {
		g := groups[name]
		fmt.Fprintf(&b, "• %s: %d events from %s to %s\n",
			name, g.n, clock(g.first.Timestamp), clock(g.last.Timestamp))
	}
	return b.String()
}

// guessActivity labels a session from its key and app mix.
func guessActivity(keys []count, apps, browsers []string) string {
	has := func(names ...string) bool {
		for _, c := range keys {
			for _, n := range names {
				if c.name == n {
					return true
				}
			}
		}
		return false
	}
	inTerminal, inBrowser := false, false
	for _, a := range apps {
		l := strings.ToLower(a)
		inTerminal = inTerminal || strings.Contains(l, "terminal")
		inBrowser = inBrowser || probe.IsBrowser(a, browsers)
	}
	letters := false
	for _, c := range keys {
		letters = letters || strings.HasPrefix(c.name, "Key")
	}

	switch {
	case inTerminal && has("Escape", "KeyI", "KeyA"):
		return "Editing text with Vim, switching between insert and normal modes"
	case inTerminal && has("UpArrow", "DownArrow") && has("Return"):
		return "Navigating through command history in the terminal"
	case inBrowser && has("KeyS", "KeyF"):
		return "Searching for information on web pages"
	case letters && has("Space", "Return"):
		return "Writing or editing text"
	default:
		return "Working on the computer"
	}
}

type count struct {
	name string
	n    int
}

func tally(events []activity.Event, key func(activity.Event) string) []count {
	m := map[string]int{}
	for _, e := range events {
		if k := key(e); k != "" {
			m[k]++
		}
	}
	out := make([]count, 0, len(m))
	for name, n := range m {
		out = append(out, count{name, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].name < out[j].name
	})
	return out
}

func eventKey(e activity.Event) string {
	k, _ := e.Keystroke()
	return k.Key
}

func head(cs []count, n int) []count {
	if len(cs) > n {
		return cs[:n]
	}
	return cs
}

func names(cs []count) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.name
	}
	return out
}

func timeSpan(s activity.Summary) string {
	return clock(s.StartTime) + " to " + clock(s.EndTime)
}

func clock(t time.Time) string {
	return t.Local().Format("15:04")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

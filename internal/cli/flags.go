package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (.yaml or .toml)" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
	DBPath  string `long:"db-path" description:"Override the SQLite database path"`
}

// StartCommand runs the daemon: capture, summarizer and recall service.
type StartCommand struct {
	Demo      bool `long:"demo" description:"Replay a scripted typing session instead of reading keyboards"`
	NoCapture bool `long:"no-capture" description:"Serve queries only; do not capture input"`
	Port      int  `long:"port" description:"Override the recall service port"`

	globals *GlobalFlags
	version string
}

// AskCommand answers a natural-language question about past activity.
type AskCommand struct {
	Remote    bool   `long:"remote" description:"Ask the running daemon instead of reading the database directly"`
	Format    string `long:"format" description:"Output format: text | table | plain | json | auto" default:"text"`
	Summarize bool   `long:"summarize" description:"Add an LLM overview of the matching summaries"`

	globals *GlobalFlags
	version string
}

// SearchCommand runs a content search over summaries.
type SearchCommand struct {
	Format string `long:"format" description:"Output format: auto | table | plain | json" default:"auto"`
	Limit  int    `long:"limit" description:"Maximum results (0 = all)" default:"10"`

	globals *GlobalFlags
	version string
}

// OpenCommand prints one stored summary with its events.
type OpenCommand struct {
	ID     string `long:"id" description:"Summary ID (required)"`
	Format string `long:"format" description:"Output format: full | json" default:"full"`

	globals *GlobalFlags
	version string
}

// AddCommand records a summary by hand.
type AddCommand struct {
	Description string   `long:"description" description:"What you were doing (required)"`
	Tags        []string `long:"tag" description:"Tag (repeatable)"`
	Start       string   `long:"start" description:"Start time: RFC3339, HH:MM today, or duration ago (e.g. 1h)" default:"1h"`
	End         string   `long:"end" description:"End time: RFC3339, HH:MM today, or duration ago; empty = now"`

	globals *GlobalFlags
	version string
}

// SummarizeCommand summarizes recent events once.
type SummarizeCommand struct {
	Since string `long:"since" description:"Window to summarize, ending now (e.g. 15m, 2h)" default:"15m"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows database statistics and daemon reachability.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// PruneCommand removes data older than the retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	Archive   bool   `long:"archive" description:"Write pruned events to a zstd archive first"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes all data after confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // confirmation input; nil means os.Stdin
}

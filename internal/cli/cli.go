// Package cli implements the secondbrain command line.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Start     *StartCommand
	Ask       *AskCommand
	Search    *SearchCommand
	Open      *OpenCommand
	Add       *AddCommand
	Summarize *SummarizeCommand
	Status    *StatusCommand
	Prune     *PruneCommand
	Purge     *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "secondbrain"
	parser.LongDescription = "Local keystroke and app activity capture with natural-language recall."

	cmds := &commands{
		Start:     &StartCommand{globals: &globals, version: version},
		Ask:       &AskCommand{globals: &globals, version: version},
		Search:    &SearchCommand{globals: &globals, version: version},
		Open:      &OpenCommand{globals: &globals, version: version},
		Add:       &AddCommand{globals: &globals, version: version},
		Summarize: &SummarizeCommand{globals: &globals, version: version},
		Status:    &StatusCommand{globals: &globals, version: version},
		Prune:     &PruneCommand{globals: &globals, version: version},
		Purge:     &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("start", "Start the daemon", "Start capture, the summarizer, and the recall service in the foreground.", cmds.Start)
	parser.AddCommand("ask", "Ask what you were doing", "Answer a natural-language question such as \"what did I do on vscode today\".", cmds.Ask)
	parser.AddCommand("search", "Search summaries", "Search stored summaries by keyword, ignoring time phrases.", cmds.Search)
	parser.AddCommand("open", "Print a stored summary", "Print a stored summary and its events.", cmds.Open)
	parser.AddCommand("add", "Record a summary by hand", "Record an activity summary by hand.", cmds.Add)
	parser.AddCommand("summarize", "Summarize recent events", "Summarize recent events once and store the result.", cmds.Summarize)
	parser.AddCommand("status", "Show database statistics", "Show database statistics, retention, and daemon reachability.", cmds.Status)
	parser.AddCommand("prune", "Apply retention pruning", "Delete events and summaries older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL data", "Delete ALL secondbrain data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand, which go-flags would reject.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("secondbrain %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}

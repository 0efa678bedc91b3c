package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/logging"
)

// DefaultTimeout bounds each probe call.
const DefaultTimeout = 500 * time.Millisecond

const (
	macAppScript   = `tell application "System Events" to get name of first application process whose frontmost is true`
	macTitleScript = `tell application "System Events" to get name of front window of (first application process whose frontmost is true)`
)

// runFunc runs a command and returns its trimmed stdout.
type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// OSProbe shells out to platform tools (xdotool on Linux, osascript on
// macOS) to find the focused window. Other platforms get the sentinel.
type OSProbe struct {
	goos     string
	timeout  time.Duration
	browsers *Browsers
	run      runFunc
	readFile func(string) ([]byte, error)
	log      logrus.FieldLogger
}

// NewOSProbe creates a probe for the current platform.
func NewOSProbe(timeout time.Duration, browsers *Browsers, log logrus.FieldLogger) *OSProbe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OSProbe{
		goos:     runtime.GOOS,
		timeout:  timeout,
		browsers: browsers,
		run:      runCommand,
		readFile: os.ReadFile,
		log:      logging.OrDiscard(log),
	}
}

func (p *OSProbe) Probe(ctx context.Context) activity.AppContext {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var (
		app, title string
		err        error
	)
	switch p.goos {
	case "linux":
		app, title, err = p.probeLinux(ctx)
	case "darwin":
		app, title, err = p.probeDarwin(ctx)
	default:
		return activity.UnknownContext()
	}
	if err != nil {
		p.log.WithError(err).Debug("app context probe failed")
		return activity.UnknownContext()
	}

	return activity.AppContext{
		AppName:     app,
		WindowTitle: title,
		URL:         ExtractURL(app, title, p.browsers.List()),
	}
}

func (p *OSProbe) probeLinux(ctx context.Context) (string, string, error) {
	id, err := p.run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		return "", "", fmt.Errorf("active window: %w", err)
	}

	title, err := p.run(ctx, "xdotool", "getwindowname", id)
	if err != nil || title == "" {
		title = activity.Unknown
	}

	pid, err := p.run(ctx, "xdotool", "getwindowpid", id)
	if err != nil {
		return "", "", fmt.Errorf("window pid: %w", err)
	}
	comm, err := p.readFile("/proc/" + pid + "/comm")
	if err != nil {
		return "", "", fmt.Errorf("read process name: %w", err)
	}
	app := strings.TrimSpace(string(comm))
	if app == "" {
		return "", "", fmt.Errorf("empty process name for pid %s", pid)
	}
	return app, title, nil
}

func (p *OSProbe) probeDarwin(ctx context.Context) (string, string, error) {
	app, err := p.run(ctx, "osascript", "-e", macAppScript)
	if err != nil {
		return "", "", fmt.Errorf("frontmost app: %w", err)
	}
	if app == "" {
		return "", "", fmt.Errorf("frontmost app: empty name")
	}

	// Apps without windows make this script fail; keep the app name.
	title, err := p.run(ctx, "osascript", "-e", macTitleScript)
	if err != nil || title == "" {
		title = activity.Unknown
	}
	return app, title, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

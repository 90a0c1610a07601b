package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupportedOS indicates the current OS has no known notification command.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Desktop shows notifications through the OS's built-in tools:
//   - Linux:   `notify-send`
//   - macOS:   `osascript -e 'display notification ...'`
//   - Windows: a PowerShell balloon tip
//
// Commands are started asynchronously; the OS takes over the rest.
type Desktop struct {
	// goos overrides runtime.GOOS in tests.
	goos string
	// start launches cmd. Defaults to (*exec.Cmd).Start.
	start func(cmd *exec.Cmd) error
}

// NewDesktop creates a desktop notifier for the running OS.
func NewDesktop() *Desktop {
	return &Desktop{
		goos:  runtime.GOOS,
		start: (*exec.Cmd).Start,
	}
}

// Notify implements Notifier.
func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	cmd, err := d.command(ctx, n)
	if err != nil {
		return err
	}

	if err = d.start(cmd); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	return nil
}

// command builds the OS-specific notification command.
func (d *Desktop) command(ctx context.Context, n Notification) (*exec.Cmd, error) {
	osName := strings.ToLower(d.goos)

	switch {
	case strings.Contains(osName, "linux"):
		args := []string{"--app-name=alarm-clock"}
		if n.Icon != "" {
			args = append(args, "--icon="+n.Icon)
		}

		return exec.CommandContext(ctx, "notify-send", append(args, n.Title, n.Body)...), nil
	case strings.Contains(osName, "darwin"):
		script := fmt.Sprintf("display notification %s with title %s", appleScriptQuote(n.Body), appleScriptQuote(n.Title))

		return exec.CommandContext(ctx, "osascript", "-e", script), nil
	case strings.Contains(osName, "windows"):
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Windows.Forms;"+
				"$n=New-Object System.Windows.Forms.NotifyIcon;"+
				"$n.Icon=[System.Drawing.SystemIcons]::Information;$n.Visible=$true;"+
				"$n.ShowBalloonTip(10000,%s,%s,'Info');Start-Sleep -Seconds 10;$n.Dispose()",
			powerShellQuote(n.Title), powerShellQuote(n.Body))

		return exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-Command", script), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s: %w", d.goos, ErrUnsupportedOS)
	}
}

func appleScriptQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func powerShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

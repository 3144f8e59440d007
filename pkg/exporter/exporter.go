package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"feedjournal/pkg/config"
	"feedjournal/pkg/logger"
)

// Exporter hands one rendered post to a note-taking backend. The call blocks
// until the backend is done and returns whatever it printed.
type Exporter interface {
	Export(ctx context.Context, text, timestamp string) (string, error)
}

// New builds the exporter selected by the configuration
func New(cfg *config.ExporterConfig, log logger.Logger) (Exporter, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendDayOne, "":
		return NewDayOne(cfg.Command, log), nil
	case config.BackendStdout:
		return NewWriter(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown exporter backend %q", cfg.Backend)
	}
}

// DayOne creates journal entries through the Day One command line tool:
//
//	dayone -d=<timestamp> new < text
type DayOne struct {
	command string
	logger  logger.Logger
}

// NewDayOne creates an exporter running command. An empty command means "dayone".
func NewDayOne(command string, log logger.Logger) *DayOne {
	if command == "" {
		command = "dayone"
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &DayOne{command: command, logger: log}
}

// Export runs the command with text on stdin and returns its stdout
func (d *DayOne) Export(ctx context.Context, text, timestamp string) (string, error) {
	cmd := exec.CommandContext(ctx, d.command, "-d="+timestamp, "new")
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.logger.DebugWithFields("Running note command", map[string]interface{}{
		"command":   d.command,
		"timestamp": timestamp,
		"bytes":     len(text),
	})

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s failed: %w: %s", d.command, err, msg)
		}
		return stdout.String(), fmt.Errorf("%s failed: %w", d.command, err)
	}

	return stdout.String(), nil
}

// Writer prints entries instead of creating notes. Used for dry runs.
type Writer struct {
	w io.Writer
}

// NewWriter creates an exporter printing to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Export writes the entry and returns an empty output
func (w *Writer) Export(ctx context.Context, text, timestamp string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintf(w.w, "[%s]\n%s\n\n", timestamp, text); err != nil {
		return "", fmt.Errorf("failed to write entry: %w", err)
	}
	return "", nil
}

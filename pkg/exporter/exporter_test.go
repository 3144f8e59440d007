package exporter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"feedjournal/pkg/config"
	"feedjournal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script standing in for dayone
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available")
	}
	path := filepath.Join(t.TempDir(), "dayone")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestDayOneExport(t *testing.T) {
	script := writeScript(t, `echo "args: $1 $2"
cat
echo
echo "New entry : /tmp/Journal.dayone/entries/ABC.doentry"
`)
	exp := NewDayOne(script, logger.NewNopLogger())

	out, err := exp.Export(context.Background(), "hello via https://example.com", "2012-08-29 19:12:58 +0200")
	require.NoError(t, err)

	assert.Contains(t, out, "args: -d=2012-08-29 19:12:58 +0200 new")
	assert.Contains(t, out, "hello via https://example.com")
	assert.Contains(t, out, "New entry")
}

func TestDayOneExportFailure(t *testing.T) {
	script := writeScript(t, `echo "journal not found" >&2
exit 3
`)
	exp := NewDayOne(script, logger.NewNopLogger())

	_, err := exp.Export(context.Background(), "hello", "now")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal not found")
}

func TestDayOneMissingCommand(t *testing.T) {
	exp := NewDayOne(filepath.Join(t.TempDir(), "no-such-command"), logger.NewNopLogger())

	_, err := exp.Export(context.Background(), "hello", "now")
	assert.Error(t, err)
}

func TestNewDayOneDefaultCommand(t *testing.T) {
	exp := NewDayOne("", nil)
	assert.Equal(t, "dayone", exp.command)
}

func TestWriterExport(t *testing.T) {
	var buf bytes.Buffer
	exp := NewWriter(&buf)

	out, err := exp.Export(context.Background(), "hello", "2012-08-29 19:12:58 +0200")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "[2012-08-29 19:12:58 +0200]\nhello\n\n", buf.String())
}

func TestWriterExportCancelled(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWriter(&buf).Export(ctx, "hello", "now")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestNewSelectsBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		want    interface{}
		wantErr bool
	}{
		{name: "default", backend: "", want: &DayOne{}},
		{name: "dayone", backend: config.BackendDayOne, want: &DayOne{}},
		{name: "stdout", backend: config.BackendStdout, want: &Writer{}},
		{name: "unknown", backend: "evernote", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := New(&config.ExporterConfig{Backend: tt.backend, Command: "dayone"}, logger.NewNopLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, exp)
		})
	}
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantCommand string
		check       func(t *testing.T, a *cliArgs)
	}{
		{
			name:        "start with defaults",
			args:        []string{"start"},
			wantCommand: commandStart,
			check: func(t *testing.T, a *cliArgs) {
				assert.Equal(t, defaultControllerURL, a.Controller)
				assert.Equal(t, defaultTxID, a.TxID)
				assert.False(t, a.set(flagController))
				assert.False(t, a.set(flagTxID))
			},
		},
		{
			name:        "start with options",
			args:        []string{"start", "-c", "http://ctrl:9000", "--txid", "0x0A", "--status-addr", ":8080", "--config", "gw.yaml"},
			wantCommand: commandStart,
			check: func(t *testing.T, a *cliArgs) {
				assert.Equal(t, "http://ctrl:9000", a.Controller)
				assert.Equal(t, "0x0A", a.TxID)
				assert.Equal(t, ":8080", a.StatusAddr)
				assert.Equal(t, "gw.yaml", a.ConfigPath)
				assert.True(t, a.set(flagController))
				assert.True(t, a.set(flagTxID))
				assert.True(t, a.set(flagStatusAddr))
				assert.True(t, a.set(flagConfig))
			},
		},
		{
			name:        "equals syntax",
			args:        []string{"start", "-c=http://ctrl:9000", "--txid=0x91"},
			wantCommand: commandStart,
			check: func(t *testing.T, a *cliArgs) {
				assert.Equal(t, "http://ctrl:9000", a.Controller)
				assert.Equal(t, "0x91", a.TxID)
			},
		},
		{
			name:  "help",
			args:  []string{"-h"},
			check: func(t *testing.T, a *cliArgs) { assert.True(t, a.Help) },
		},
		{
			name:  "version",
			args:  []string{"--version"},
			check: func(t *testing.T, a *cliArgs) { assert.True(t, a.Version) },
		},
		{name: "missing command", args: []string{}, wantErr: true},
		{name: "unknown command", args: []string{"stop"}, wantErr: true},
		{name: "extra argument", args: []string{"start", "now"}, wantErr: true},
		{name: "unknown flag", args: []string{"start", "--rxid", "0x90"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseArgs(tt.args, &bytes.Buffer{})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errUsage)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommand, a.Command)
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	out := buf.String()
	assert.Contains(t, out, "isotpgateway start [options]")
	assert.Contains(t, out, "--controller")
	assert.Contains(t, out, "--txid")
	assert.Contains(t, out, "--version")
	assert.Contains(t, out, defaultControllerURL)
}

func TestRun_HelpVersionUsage(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "version", args: []string{"--version"}, wantCode: 0, wantStdout: version},
		{name: "help", args: []string{"--help"}, wantCode: 0, wantStdout: "Usage:"},
		{name: "usage error", args: []string{"bogus"}, wantCode: 2, wantStderr: "unknown command"},
		{name: "bad config", args: []string{"start", "--txid", "zz"}, wantCode: 1, wantStderr: "txid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envConfigPath, "")
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

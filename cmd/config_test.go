package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"isotpgateway/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadConfig reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		envControllerURL, envTxID, envInterface, envStatusAddr,
		envHTTPTimeoutMs, envReceiveTimeoutMs, envLogLevel, envConfigPath,
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func mustParseArgs(t *testing.T, args ...string) *cliArgs {
	t.Helper()
	cli, err := parseArgs(append([]string{"start"}, args...), &bytes.Buffer{})
	require.NoError(t, err)
	return cli
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(mustParseArgs(t))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8888", cfg.ControllerURL)
	assert.Equal(t, uint32(0x90), cfg.TxID)
	assert.Equal(t, "vcan0", cfg.Interface)
	assert.Equal(t, domain.FlowControl{STmin: 5, BlockSize: 10, WFTmax: 0}, cfg.FlowControl)
	assert.Empty(t, cfg.FlowControlOverrides)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Second, cfg.ReceiveTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.IdleBackoff)
	assert.Equal(t, 100*time.Millisecond, cfg.RebindBackoff)
	assert.Equal(t, domain.RelayErrorNegativeResponse, cfg.ErrorPolicy)
	assert.False(t, cfg.RestartOnFailure)
	assert.Empty(t, cfg.StatusAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
controller_url: http://controller:9000
txid: 0x0A
interface: can1
flow_control:
  stmin: 0
  bs: 8
flow_control_overrides:
  "0x91":
    wftmax: 3
http_timeout_ms: 2500
receive_timeout_ms: 250
idle_backoff_ms: 50
rebind_backoff_ms: 0
relay_error_policy: escalate
restart:
  enabled: true
  delay_ms: 750
status_addr: ":8081"
log_level: debug
`)

	cfg, err := LoadConfig(mustParseArgs(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "http://controller:9000", cfg.ControllerURL)
	assert.Equal(t, uint32(0x0A), cfg.TxID, "unquoted 0x0A is read as hex")
	assert.Equal(t, "can1", cfg.Interface)
	assert.Equal(t, domain.FlowControl{STmin: 0, BlockSize: 8, WFTmax: 0}, cfg.FlowControl)
	assert.Equal(t, map[uint32]domain.FlowControl{0x91: {STmin: 0, BlockSize: 8, WFTmax: 3}}, cfg.FlowControlOverrides)
	assert.Equal(t, 2500*time.Millisecond, cfg.HTTPTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.ReceiveTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.IdleBackoff)
	assert.Zero(t, cfg.RebindBackoff)
	assert.Equal(t, domain.RelayErrorEscalate, cfg.ErrorPolicy)
	assert.True(t, cfg.RestartOnFailure)
	assert.Equal(t, 750*time.Millisecond, cfg.RestartDelay)
	assert.Equal(t, ":8081", cfg.StatusAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
controller_url: http://yaml:9000
txid: "0x10"
http_timeout_ms: 1000
status_addr: ":1111"
`)
	t.Setenv(envConfigPath, path)
	t.Setenv(envControllerURL, "http://env:9000")
	t.Setenv(envTxID, "0x20")
	t.Setenv(envHTTPTimeoutMs, "3000")

	t.Run("env over yaml", func(t *testing.T) {
		cfg, err := LoadConfig(mustParseArgs(t))
		require.NoError(t, err)
		assert.Equal(t, "http://env:9000", cfg.ControllerURL)
		assert.Equal(t, uint32(0x20), cfg.TxID)
		assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, ":1111", cfg.StatusAddr)
	})
	t.Run("flags over env", func(t *testing.T) {
		cfg, err := LoadConfig(mustParseArgs(t, "-c", "http://flag:9000", "--txid", "30", "--status-addr", ":2222"))
		require.NoError(t, err)
		assert.Equal(t, "http://flag:9000", cfg.ControllerURL)
		assert.Equal(t, uint32(0x30), cfg.TxID)
		assert.Equal(t, ":2222", cfg.StatusAddr)
	})
	t.Run("config flag over CONFIG_PATH", func(t *testing.T) {
		other := writeConfig(t, "interface: can7\n")
		cfg, err := LoadConfig(mustParseArgs(t, "--config", other))
		require.NoError(t, err)
		assert.Equal(t, "can7", cfg.Interface)
		assert.Empty(t, cfg.StatusAddr)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{name: "txid not hex", args: []string{"--txid", "0xZZ"}, wantErr: "txid"},
		{name: "txid above single byte", args: []string{"--txid", "0x100"}, wantErr: "txid must not exceed 0xff"},
		{name: "controller not a URL", args: []string{"-c", "localhost:8888"}, wantErr: "controller_url"},
		{name: "http timeout not a number", env: map[string]string{envHTTPTimeoutMs: "soon"}, wantErr: envHTTPTimeoutMs},
		{name: "receive timeout zero", env: map[string]string{envReceiveTimeoutMs: "0"}, wantErr: "receive_timeout_ms must be positive"},
		{name: "bad log level", env: map[string]string{envLogLevel: "trace"}, wantErr: "log_level"},
		{name: "bad policy", yaml: "relay_error_policy: retry\n", wantErr: "relay_error_policy"},
		{name: "bad override key", yaml: "flow_control_overrides:\n  ecu1:\n    bs: 1\n", wantErr: "flow_control_overrides"},
		{name: "override above single byte", yaml: "flow_control_overrides:\n  \"0x150\":\n    bs: 1\n", wantErr: "exceeds 0xff"},
		{name: "negative backoff", yaml: "rebind_backoff_ms: -1\n", wantErr: "rebind_backoff_ms"},
		{name: "malformed yaml", yaml: "txid: [1, 2\n", wantErr: "load config"},
		{name: "missing file", env: map[string]string{envConfigPath: "/nonexistent/gateway.yaml"}, wantErr: "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := tt.args
			if tt.yaml != "" {
				args = append(args, "--config", writeConfig(t, tt.yaml))
			}
			cfg, err := LoadConfig(mustParseArgs(t, args...))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseHexID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{in: "0x90", want: 0x90},
		{in: "0X0A", want: 0x0A},
		{in: "0a", want: 0x0A},
		{in: " 0x7df ", want: 0x7DF},
		{in: "0x", wantErr: true},
		{in: "", wantErr: true},
		{in: "0xgg", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

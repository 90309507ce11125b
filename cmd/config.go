package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"isotpgateway/domain"

	"gopkg.in/yaml.v3"
)

// Env variable names.
const (
	envControllerURL    = "CONTROLLER_URL"
	envTxID             = "TX_ID"
	envInterface        = "CAN_INTERFACE"
	envStatusAddr       = "STATUS_ADDR"
	envHTTPTimeoutMs    = "HTTP_TIMEOUT_MS"
	envReceiveTimeoutMs = "RECEIVE_TIMEOUT_MS"
	envLogLevel         = "LOG_LEVEL"
	envConfigPath       = "CONFIG_PATH"
)

// Defaults applied before the YAML file, environment and flags.
const (
	defaultControllerURL    = "http://localhost:8888"
	defaultTxID             = "0x90"
	defaultInterface        = "vcan0"
	defaultHTTPTimeoutMs    = 5000
	defaultReceiveTimeoutMs = 1000
	defaultIdleBackoffMs    = 200
	defaultRebindBackoffMs  = 100
	defaultRestartDelayMs   = 1000
	defaultLogLevel         = "info"
)

// Config holds the full gateway configuration built by LoadConfig.
type Config struct {
	ControllerURL        string
	TxID                 uint32
	Interface            string
	FlowControl          domain.FlowControl
	FlowControlOverrides map[uint32]domain.FlowControl
	HTTPTimeout          time.Duration
	ReceiveTimeout       time.Duration
	IdleBackoff          time.Duration
	RebindBackoff        time.Duration
	ErrorPolicy          domain.RelayErrorPolicy
	RestartOnFailure     bool
	RestartDelay         time.Duration
	StatusAddr           string
	LogLevel             string
}

// yamlConfig is the root struct for YAML unmarshalling. Pointers distinguish absent keys from zero values.
type yamlConfig struct {
	ControllerURL        *string                    `yaml:"controller_url"`
	TxID                 *hexValue                  `yaml:"txid"`
	Interface            *string                    `yaml:"interface"`
	FlowControl          *yamlFlowControl           `yaml:"flow_control"`
	FlowControlOverrides map[string]yamlFlowControl `yaml:"flow_control_overrides"`
	HTTPTimeoutMs        *int                       `yaml:"http_timeout_ms"`
	ReceiveTimeoutMs     *int                       `yaml:"receive_timeout_ms"`
	IdleBackoffMs        *int                       `yaml:"idle_backoff_ms"`
	RebindBackoffMs      *int                       `yaml:"rebind_backoff_ms"`
	RelayErrorPolicy     *string                    `yaml:"relay_error_policy"`
	Restart              *yamlRestart               `yaml:"restart"`
	StatusAddr           *string                    `yaml:"status_addr"`
	LogLevel             *string                    `yaml:"log_level"`
}

// yamlFlowControl holds ISO-TP receive flow-control parameters; absent keys keep the inherited value.
type yamlFlowControl struct {
	STmin  *uint8 `yaml:"stmin"`
	BS     *uint8 `yaml:"bs"`
	WFTmax *uint8 `yaml:"wftmax"`
}

// yamlRestart holds the worker restart policy.
type yamlRestart struct {
	Enabled *bool `yaml:"enabled"`
	DelayMs *int  `yaml:"delay_ms"`
}

// hexValue keeps the scalar text of a YAML node so that an unquoted 0x0A is read as hex and not as the integer 10.
type hexValue string

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *hexValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*h = hexValue(node.Value)
	return nil
}

func (fc yamlFlowControl) apply(base domain.FlowControl) domain.FlowControl {
	if fc.STmin != nil {
		base.STmin = *fc.STmin
	}
	if fc.BS != nil {
		base.BlockSize = *fc.BS
	}
	if fc.WFTmax != nil {
		base.WFTmax = *fc.WFTmax
	}
	return base
}

// loadYAMLConfig reads the YAML file at path and unmarshals it into yamlConfig.
//
// Returns: (*yamlConfig, nil) on success; (nil, error) on os.ReadFile or yaml.Unmarshal error.
//
// Called only from LoadConfig.
func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadConfig builds the gateway config from defaults, the YAML file, environment variables and explicit flags,
// each layer overriding the previous one. The YAML path comes from --config or CONFIG_PATH and is optional.
//
// Parameter cli: parsed command line; only flags the user actually passed take part.
//
// Returns: (*Config, nil) on success; (nil, error) naming the offending key on a parse or validation failure.
//
// Called only from main at startup.
func LoadConfig(cli *cliArgs) (*Config, error) {
	cfg := &Config{
		ControllerURL:        defaultControllerURL,
		Interface:            defaultInterface,
		FlowControl:          domain.DefaultFlowControl(),
		FlowControlOverrides: map[uint32]domain.FlowControl{},
		HTTPTimeout:          defaultHTTPTimeoutMs * time.Millisecond,
		ReceiveTimeout:       defaultReceiveTimeoutMs * time.Millisecond,
		IdleBackoff:          defaultIdleBackoffMs * time.Millisecond,
		RebindBackoff:        defaultRebindBackoffMs * time.Millisecond,
		ErrorPolicy:          domain.RelayErrorNegativeResponse,
		RestartDelay:         defaultRestartDelayMs * time.Millisecond,
		LogLevel:             defaultLogLevel,
	}
	txID := defaultTxID

	configPath := strings.TrimSpace(os.Getenv(envConfigPath))
	if cli.set(flagConfig) {
		configPath = strings.TrimSpace(cli.ConfigPath)
	}
	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			abs, absErr := filepath.Abs(configPath)
			if absErr != nil {
				return nil, absErr
			}
			configPath = abs
		}
		raw, err := loadYAMLConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
		if err := applyYAML(cfg, &txID, raw); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg, &txID); err != nil {
		return nil, err
	}

	if cli.set(flagController) {
		cfg.ControllerURL = cli.Controller
	}
	if cli.set(flagTxID) {
		txID = cli.TxID
	}
	if cli.set(flagStatusAddr) {
		cfg.StatusAddr = cli.StatusAddr
	}

	parsedTxID, err := parseHexID(txID)
	if err != nil {
		return nil, fmt.Errorf("txid: %w", err)
	}
	cfg.TxID = parsedTxID

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyYAML(cfg *Config, txID *string, raw *yamlConfig) error {
	if raw.ControllerURL != nil {
		cfg.ControllerURL = *raw.ControllerURL
	}
	if raw.TxID != nil {
		*txID = string(*raw.TxID)
	}
	if raw.Interface != nil {
		cfg.Interface = *raw.Interface
	}
	if raw.FlowControl != nil {
		cfg.FlowControl = raw.FlowControl.apply(cfg.FlowControl)
	}
	for key, fc := range raw.FlowControlOverrides {
		addr, err := domain.ParseAddress(key)
		if err != nil {
			return fmt.Errorf("flow_control_overrides: %w", err)
		}
		cfg.FlowControlOverrides[addr] = fc.apply(cfg.FlowControl)
	}
	if raw.HTTPTimeoutMs != nil {
		cfg.HTTPTimeout = time.Duration(*raw.HTTPTimeoutMs) * time.Millisecond
	}
	if raw.ReceiveTimeoutMs != nil {
		cfg.ReceiveTimeout = time.Duration(*raw.ReceiveTimeoutMs) * time.Millisecond
	}
	if raw.IdleBackoffMs != nil {
		cfg.IdleBackoff = time.Duration(*raw.IdleBackoffMs) * time.Millisecond
	}
	if raw.RebindBackoffMs != nil {
		cfg.RebindBackoff = time.Duration(*raw.RebindBackoffMs) * time.Millisecond
	}
	if raw.RelayErrorPolicy != nil {
		policy, err := domain.ParseRelayErrorPolicy(*raw.RelayErrorPolicy)
		if err != nil {
			return fmt.Errorf("relay_error_policy: %w", err)
		}
		cfg.ErrorPolicy = policy
	}
	if raw.Restart != nil {
		if raw.Restart.Enabled != nil {
			cfg.RestartOnFailure = *raw.Restart.Enabled
		}
		if raw.Restart.DelayMs != nil {
			cfg.RestartDelay = time.Duration(*raw.Restart.DelayMs) * time.Millisecond
		}
	}
	if raw.StatusAddr != nil {
		cfg.StatusAddr = *raw.StatusAddr
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	return nil
}

func applyEnv(cfg *Config, txID *string) error {
	if v, ok := os.LookupEnv(envControllerURL); ok && strings.TrimSpace(v) != "" {
		cfg.ControllerURL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(envTxID); ok && strings.TrimSpace(v) != "" {
		*txID = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(envInterface); ok && strings.TrimSpace(v) != "" {
		cfg.Interface = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(envStatusAddr); ok {
		cfg.StatusAddr = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if err := envMillis(envHTTPTimeoutMs, &cfg.HTTPTimeout); err != nil {
		return err
	}
	return envMillis(envReceiveTimeoutMs, &cfg.ReceiveTimeout)
}

// envMillis overrides dst with the millisecond value of env variable name when it is set.
func envMillis(name string, dst *time.Duration) error {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return nil
	}
	ms, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%s must be an integer (ms), got %q", name, s)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

// parseHexID parses an arbitration ID written as hex with an optional 0x prefix ("0x0A", "0a").
func parseHexID(s string) (uint32, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if v == "" {
		return 0, fmt.Errorf("%q is not a hex arbitration ID", s)
	}
	id, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a hex arbitration ID", s)
	}
	return uint32(id), nil
}

func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.ControllerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("controller_url must be an absolute http(s) URL, got %q", cfg.ControllerURL)
	}
	if cfg.TxID > domain.MaxSingleByteAddress {
		return fmt.Errorf("txid must not exceed 0xff, got %s", domain.FormatAddress(cfg.TxID))
	}
	if strings.TrimSpace(cfg.Interface) == "" {
		return fmt.Errorf("interface is required")
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout_ms must be positive")
	}
	if cfg.ReceiveTimeout <= 0 {
		return fmt.Errorf("receive_timeout_ms must be positive")
	}
	if cfg.IdleBackoff < 0 {
		return fmt.Errorf("idle_backoff_ms must not be negative")
	}
	if cfg.RebindBackoff < 0 {
		return fmt.Errorf("rebind_backoff_ms must not be negative")
	}
	if cfg.RestartDelay < 0 {
		return fmt.Errorf("restart.delay_ms must not be negative")
	}
	for addr := range cfg.FlowControlOverrides {
		if addr > domain.MaxSingleByteAddress {
			return fmt.Errorf("flow_control_overrides: %s exceeds 0xff", domain.FormatAddress(addr))
		}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug|info|warn|error, got %q", cfg.LogLevel)
	}
	return nil
}

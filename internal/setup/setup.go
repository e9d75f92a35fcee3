// Package setup registers the health analytics MCP server with desktop MCP
// clients that read a claude_desktop_config.json style file.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key the server is registered under.
const ServerName = "health-analytics"

// DataDirEnv is passed to the server to select its data directory.
const DataDirEnv = "HEALTH_DATA_DIR"

// ClientConfig represents the client configuration file structure. Unknown
// top-level keys are preserved on save.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// ServerEntry represents a single MCP server registration.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for Register.
type Options struct {
	BinaryPath string
	DataDir    string
}

// Status describes the current registration.
type Status struct {
	ConfigPath   string
	Registered   bool
	BinaryPath   string
	BinaryExists bool
	DataDir      string
	DataDirReady bool
	HistoryDB    bool
}

// DefaultConfigPath returns the client config path for this platform.
func DefaultConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// DefaultDataDir returns the data directory used when none is configured.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".health-analytics")
}

// Load reads a client config. A missing file yields an empty config.
func Load(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: map[string]ServerEntry{}, extra: map[string]json.RawMessage{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.extra); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := cfg.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.extra, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = map[string]ServerEntry{}
	}
	return cfg, nil
}

// Save writes the config, creating its directory.
func Save(path string, cfg *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]interface{}, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the server entry in the config at path.
func Register(path string, opts Options) error {
	if opts.BinaryPath == "" {
		return fmt.Errorf("binary path is required")
	}
	binary, err := filepath.Abs(opts.BinaryPath)
	if err != nil {
		return fmt.Errorf("failed to resolve binary path: %w", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return err
	}

	entry := ServerEntry{Command: binary}
	if opts.DataDir != "" {
		entry.Env = map[string]string{DataDirEnv: opts.DataDir}
	}
	cfg.MCPServers[ServerName] = entry

	return Save(path, cfg)
}

// Inspect reports the registration found in the config at path.
func Inspect(path string) (*Status, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	status := &Status{ConfigPath: path, DataDir: DefaultDataDir()}
	if entry, ok := cfg.MCPServers[ServerName]; ok {
		status.Registered = true
		status.BinaryPath = entry.Command
		if _, err := os.Stat(entry.Command); err == nil {
			status.BinaryExists = true
		}
		if dir := entry.Env[DataDirEnv]; dir != "" {
			status.DataDir = dir
		}
	}

	if info, err := os.Stat(status.DataDir); err == nil && info.IsDir() {
		status.DataDirReady = true
	}
	if _, err := os.Stat(filepath.Join(status.DataDir, "history.db")); err == nil {
		status.HistoryDB = true
	}
	return status, nil
}

// FindBinary looks for the server binary on PATH and in common locations.
func FindBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	locations := []string{
		"./" + name,
		"./build/" + name,
		filepath.Join(os.Getenv("HOME"), ".local", "bin", name),
		"/usr/local/bin/" + name,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", name)
}

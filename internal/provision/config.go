// Package provision implements host provisioning and teardown for the
// authrelay service: service account, install tree, program artifacts, server
// configuration, systemd unit, log rotation, and firewall access.
package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultUser is the default service account name.
const DefaultUser = "authrelay"

// DefaultGroup is the default service group name.
const DefaultGroup = "authrelay"

// DefaultRoot is the default install root.
const DefaultRoot = "/opt/authrelay"

// DefaultSourceDir is the default artifact source directory, relative to the
// invoker's working directory.
const DefaultSourceDir = "./authrelay"

// DefaultListenPort is the default proxy listen port.
const DefaultListenPort = 5865

// DefaultUpstreamHost is the default upstream proxy host.
const DefaultUpstreamHost = "proxy"

// DefaultUpstreamPort is the default upstream proxy port.
const DefaultUpstreamPort = 8080

// DefaultAuthDomain is the default NT authentication domain.
const DefaultAuthDomain = "WORKGROUP"

// DefaultServiceName is the systemd service name.
const DefaultServiceName = "authrelay"

// DefaultUnitFilePath is the default path for the systemd unit file.
const DefaultUnitFilePath = "/etc/systemd/system/authrelay.service"

// DefaultLogrotatePath is the default path for the logrotate policy file.
const DefaultLogrotatePath = "/etc/logrotate.d/authrelay"

// DefaultLockPath is the default advisory lock file serializing concurrent
// authrelayctl invocations.
const DefaultLockPath = "/run/authrelayctl.lock"

// EntryArtifact is the program entry point expected in the artifact source.
const EntryArtifact = "authrelayd"

// InstallParams holds the resolved installation parameters. It is constructed
// once at process start by LoadParams and passed read-only to every component.
type InstallParams struct {
	// User is the service account name.
	// Default: authrelay. Env: AUTHRELAY_USER.
	User string `yaml:"user"`

	// Group is the service group name.
	// Default: authrelay. Env: AUTHRELAY_GROUP.
	Group string `yaml:"group"`

	// Root is the install root directory.
	// Default: /opt/authrelay. Env: AUTHRELAY_ROOT.
	Root string `yaml:"root"`

	// SourceDir is the artifact source directory.
	// Default: ./authrelay. Env: AUTHRELAY_SOURCE_DIR.
	SourceDir string `yaml:"source_dir"`

	// ListenPort is the proxy listen port.
	// Default: 5865. Env: AUTHRELAY_LISTEN_PORT.
	ListenPort int `yaml:"listen_port"`

	// UpstreamHost is the upstream proxy host.
	// Default: proxy. Env: AUTHRELAY_PROXY_HOST.
	UpstreamHost string `yaml:"proxy_host"`

	// UpstreamPort is the upstream proxy port.
	// Default: 8080. Env: AUTHRELAY_PROXY_PORT.
	UpstreamPort int `yaml:"proxy_port"`

	// AuthDomain is the NT authentication domain.
	// Default: WORKGROUP. Env: AUTHRELAY_NT_DOMAIN.
	AuthDomain string `yaml:"nt_domain"`

	// ServiceName is the systemd service name.
	// Default: authrelay.
	ServiceName string `yaml:"service_name"`

	// UnitFilePath is the path for the systemd unit file.
	// Default: /etc/systemd/system/authrelay.service.
	UnitFilePath string `yaml:"unit_file_path"`

	// LogrotatePath is the path for the logrotate policy file.
	// Default: /etc/logrotate.d/authrelay.
	LogrotatePath string `yaml:"logrotate_path"`

	// LockPath is the advisory lock file path.
	// Default: /run/authrelayctl.lock.
	LockPath string `yaml:"lock_path"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (p *InstallParams) ApplyDefaults() {
	if p.User == "" {
		p.User = DefaultUser
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.Root == "" {
		p.Root = DefaultRoot
	}
	if p.SourceDir == "" {
		p.SourceDir = DefaultSourceDir
	}
	if p.ListenPort == 0 {
		p.ListenPort = DefaultListenPort
	}
	if p.UpstreamHost == "" {
		p.UpstreamHost = DefaultUpstreamHost
	}
	if p.UpstreamPort == 0 {
		p.UpstreamPort = DefaultUpstreamPort
	}
	if p.AuthDomain == "" {
		p.AuthDomain = DefaultAuthDomain
	}
	if p.ServiceName == "" {
		p.ServiceName = DefaultServiceName
	}
	if p.UnitFilePath == "" {
		p.UnitFilePath = DefaultUnitFilePath
	}
	if p.LogrotatePath == "" {
		p.LogrotatePath = DefaultLogrotatePath
	}
	if p.LockPath == "" {
		p.LockPath = DefaultLockPath
	}
}

// Validate checks that required fields are set and values are acceptable.
func (p *InstallParams) Validate() error {
	if p.User == "" {
		return errors.New("provision: params: User is required")
	}
	if p.Group == "" {
		return errors.New("provision: params: Group is required")
	}
	if p.Root == "" {
		return errors.New("provision: params: Root is required")
	}
	if p.ListenPort < 1 || p.ListenPort > 65535 {
		return fmt.Errorf("provision: params: invalid listen port %d", p.ListenPort)
	}
	if p.UpstreamHost == "" {
		return errors.New("provision: params: UpstreamHost is required")
	}
	if p.UpstreamPort < 1 || p.UpstreamPort > 65535 {
		return fmt.Errorf("provision: params: invalid upstream port %d", p.UpstreamPort)
	}
	if p.ServiceName == "" {
		return errors.New("provision: params: ServiceName is required")
	}
	return nil
}

// BinDir returns the program files directory under the install root.
func (p InstallParams) BinDir() string {
	return filepath.Join(p.Root, "bin")
}

// LogDir returns the log directory under the install root.
func (p InstallParams) LogDir() string {
	return filepath.Join(p.Root, "logs")
}

// ConfigPath returns the path of the rendered server configuration document.
func (p InstallParams) ConfigPath() string {
	return filepath.Join(p.Root, "server.cfg")
}

// EntryPath returns the installed program entry point.
func (p InstallParams) EntryPath() string {
	return filepath.Join(p.BinDir(), EntryArtifact)
}

// LogGlob returns the glob the logrotate policy is keyed by.
func (p InstallParams) LogGlob() string {
	return filepath.Join(p.LogDir(), "*.log")
}

// LoadParams resolves InstallParams once at process start: defaults, then the
// optional YAML parameter file, then AUTHRELAY_* environment overrides.
func LoadParams(file string) (InstallParams, error) {
	var p InstallParams

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return p, fmt.Errorf("provision: read parameter file: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("provision: parse parameter file %s: %w", file, err)
		}
	}

	if err := applyEnv(&p); err != nil {
		return p, err
	}

	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func applyEnv(p *InstallParams) error {
	if v := os.Getenv("AUTHRELAY_USER"); v != "" {
		p.User = v
	}
	if v := os.Getenv("AUTHRELAY_GROUP"); v != "" {
		p.Group = v
	}
	if v := os.Getenv("AUTHRELAY_ROOT"); v != "" {
		p.Root = v
	}
	if v := os.Getenv("AUTHRELAY_SOURCE_DIR"); v != "" {
		p.SourceDir = v
	}
	if v := os.Getenv("AUTHRELAY_PROXY_HOST"); v != "" {
		p.UpstreamHost = v
	}
	if v := os.Getenv("AUTHRELAY_NT_DOMAIN"); v != "" {
		p.AuthDomain = v
	}
	if v := os.Getenv("AUTHRELAY_LISTEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("provision: AUTHRELAY_LISTEN_PORT: invalid port %q", v)
		}
		p.ListenPort = port
	}
	if v := os.Getenv("AUTHRELAY_PROXY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("provision: AUTHRELAY_PROXY_PORT: invalid port %q", v)
		}
		p.UpstreamPort = port
	}
	return nil
}

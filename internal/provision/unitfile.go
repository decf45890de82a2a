package provision

import "fmt"

// GenerateUnitFile produces a complete systemd unit file for the authrelay
// service. The unit runs the proxy under the service account with no extra
// privileges beyond CAP_NET_BIND_SERVICE, which it needs only when the listen
// port is below 1024; the filesystem is read-only outside the install root.
func GenerateUnitFile(p InstallParams) string {
	return fmt.Sprintf(`[Unit]
Description=authrelay NTLM authentication relay proxy
After=network-online.target
Wants=network-online.target
StartLimitBurst=5
StartLimitIntervalSec=60

[Service]
Type=simple
User=%s
Group=%s
WorkingDirectory=%s
ExecStart=%s --config %s
Restart=always
RestartSec=5s
NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=strict
ProtectHome=true
ReadWritePaths=%s
AmbientCapabilities=CAP_NET_BIND_SERVICE
CapabilityBoundingSet=CAP_NET_BIND_SERVICE

[Install]
WantedBy=multi-user.target
`, p.User, p.Group, p.Root, p.EntryPath(), p.ConfigPath(), p.Root)
}

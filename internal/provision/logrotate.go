package provision

import "fmt"

// GenerateLogrotatePolicy renders the logrotate stanza for the install tree's
// log directory. The postrotate hook asks systemd to reload-or-restart the
// service so it reopens its log files; the hook's failure is swallowed because
// rotation must not fail merely because the service happens to be stopped.
func GenerateLogrotatePolicy(p InstallParams) string {
	return fmt.Sprintf(`%s {
    daily
    rotate 30
    compress
    delaycompress
    missingok
    notifempty
    postrotate
        systemctl reload-or-restart %s >/dev/null 2>&1 || true
    endscript
}
`, p.LogGlob(), p.ServiceName)
}

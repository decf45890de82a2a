//go:build !linux

package provision

import "log/slog"

// nftables is only reachable on Linux.
func newNftablesManager(_ *slog.Logger) FirewallManager {
	return nil
}

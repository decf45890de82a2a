package provision

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// firewalldManager implements FirewallManager using os/exec to call firewall-cmd.
type firewalldManager struct {
	logger *slog.Logger
}

func (m *firewalldManager) Name() string { return "firewalld" }

func (m *firewalldManager) IsActive() bool {
	output, err := exec.Command("firewall-cmd", "--state").CombinedOutput()
	return err == nil && strings.TrimSpace(string(output)) == "running"
}

func (m *firewalldManager) AllowPort(port int) error {
	if err := m.run("--permanent", fmt.Sprintf("--add-port=%d/tcp", port)); err != nil {
		return err
	}
	if err := m.run("--reload"); err != nil {
		return err
	}
	m.logger.Info("firewall port opened", "component", "firewall", "manager", "firewalld", "port", port)
	return nil
}

func (m *firewalldManager) RemovePort(port int) error {
	err := m.run("--permanent", fmt.Sprintf("--remove-port=%d/tcp", port))
	if err != nil {
		// firewalld reports removal of an absent rule as NOT_ENABLED.
		if isNotEnabled(err) {
			return nil
		}
		return err
	}
	if err := m.run("--reload"); err != nil {
		return err
	}
	m.logger.Info("firewall port closed", "component", "firewall", "manager", "firewalld", "port", port)
	return nil
}

func (m *firewalldManager) run(args ...string) error {
	output, err := exec.Command("firewall-cmd", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("provision: firewall-cmd %s: %s: %w", args[0], strings.TrimSpace(string(output)), err)
	}
	return nil
}

func isNotEnabled(err error) bool {
	return strings.Contains(err.Error(), "NOT_ENABLED")
}

// DetectFirewall probes for a usable firewall manager: firewalld via the
// firewall-cmd binary, and the nftables netlink API. It returns nil when
// neither is present, which the orchestrator degrades to a warning.
func DetectFirewall(logger *slog.Logger) FirewallManager {
	var fwd FirewallManager
	if _, err := exec.LookPath("firewall-cmd"); err == nil {
		fwd = &firewalldManager{logger: logger}
	}
	return selectFirewall(fwd, newNftablesManager(logger))
}

// selectFirewall picks between the detected managers. An active firewalld
// wins; otherwise an active nftables serves, so a host that installs
// firewall-cmd without running the daemon still gets its port opened. An
// inactive firewalld is returned last so the degraded-path warning can name
// the manager that was found.
func selectFirewall(firewalld, nft FirewallManager) FirewallManager {
	if firewalld != nil && firewalld.IsActive() {
		return firewalld
	}
	if nft != nil && nft.IsActive() {
		return nft
	}
	return firewalld
}

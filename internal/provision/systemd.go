package provision

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// realSystemdController implements SystemdController using os/exec to call systemctl.
type realSystemdController struct{}

// NewSystemdController returns a SystemdController that calls the real systemctl binary.
func NewSystemdController() SystemdController {
	return &realSystemdController{}
}

func (c *realSystemdController) IsAvailable() bool {
	_, err := exec.LookPath("systemctl")
	return err == nil
}

func (c *realSystemdController) DaemonReload() error {
	return c.run("daemon-reload")
}

func (c *realSystemdController) Enable(service string) error {
	return c.run("enable", service)
}

func (c *realSystemdController) Disable(service string) error {
	return c.run("disable", service)
}

func (c *realSystemdController) Start(service string) error {
	return c.run("start", service)
}

func (c *realSystemdController) Stop(service string) error {
	return c.run("stop", service)
}

func (c *realSystemdController) IsActive(service string) bool {
	err := exec.Command("systemctl", "is-active", "--quiet", service).Run()
	return err == nil
}

func (c *realSystemdController) IsEnabled(service string) bool {
	err := exec.Command("systemctl", "is-enabled", "--quiet", service).Run()
	return err == nil
}

func (c *realSystemdController) Status(service string) string {
	// status exits non-zero for inactive services; the output is still the
	// diagnostic we want.
	output, _ := exec.Command("systemctl", "status", "--no-pager", service).CombinedOutput()
	return strings.TrimSpace(string(output))
}

func (c *realSystemdController) run(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("provision: systemctl %s: %s: %w", args[0], strings.TrimSpace(string(output)), err)
	}
	return nil
}

// realPrivilegeChecker implements PrivilegeChecker using os.Geteuid.
type realPrivilegeChecker struct{}

// NewPrivilegeChecker returns a PrivilegeChecker that checks the real
// effective UID.
func NewPrivilegeChecker() PrivilegeChecker {
	return &realPrivilegeChecker{}
}

func (c *realPrivilegeChecker) IsRoot() bool {
	return os.Geteuid() == 0
}

package provision

import (
	"fmt"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
)

// nologinShell disables interactive login for the service account.
const nologinShell = "/usr/sbin/nologin"

// realIdentityManager implements IdentityManager with os/user lookups and the
// standard shadow-utils tools for mutation.
type realIdentityManager struct{}

// NewIdentityManager returns an IdentityManager backed by the host identity
// subsystem.
func NewIdentityManager() IdentityManager {
	return &realIdentityManager{}
}

func (m *realIdentityManager) GroupExists(name string) bool {
	_, err := user.LookupGroup(name)
	return err == nil
}

func (m *realIdentityManager) UserExists(name string) bool {
	_, err := user.Lookup(name)
	return err == nil
}

func (m *realIdentityManager) CreateGroup(name string) error {
	return runTool("groupadd", "--system", name)
}

func (m *realIdentityManager) CreateUser(name, group, home string) error {
	return runTool("useradd",
		"--system",
		"--gid", group,
		"--home-dir", home,
		"--no-create-home",
		"--shell", nologinShell,
		"--comment", "authrelay service account",
		name,
	)
}

func (m *realIdentityManager) DeleteUser(name string) error {
	return runTool("userdel", name)
}

func (m *realIdentityManager) DeleteGroup(name string) error {
	return runTool("groupdel", name)
}

func (m *realIdentityManager) LookupIDs(userName, groupName string) (int, int, error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, fmt.Errorf("provision: lookup user %s: %w", userName, err)
	}
	g, err := user.LookupGroup(groupName)
	if err != nil {
		return 0, 0, fmt.Errorf("provision: lookup group %s: %w", groupName, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("provision: non-numeric uid %q for user %s", u.Uid, userName)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("provision: non-numeric gid %q for group %s", g.Gid, groupName)
	}
	return uid, gid, nil
}

func runTool(tool string, args ...string) error {
	output, err := exec.Command(tool, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("provision: %s: %s: %w", tool, strings.TrimSpace(string(output)), err)
	}
	return nil
}

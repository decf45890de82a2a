package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/authrelay/authrelayctl/internal/fsutil"
)

// graceInterval is the fixed wait between requesting service start and
// polling whether it became active.
const graceInterval = 3 * time.Second

// Installer orchestrates provisioning and teardown of the authrelay service.
// Steps run strictly in sequence; the first fatal error aborts the run with no
// rollback, and every step is safe to repeat, so a rerun after operator
// inspection is the documented recovery path.
type Installer struct {
	params   InstallParams
	systemd  SystemdController
	identity IdentityManager
	firewall FirewallManager // nil when no manager is present
	priv     PrivilegeChecker
	confirm  ConfirmFunc
	logger   *slog.Logger

	// Seams replaced in tests.
	sleep func(time.Duration)
	chown func(root string, uid, gid int) error
	lock  func(path string) (func(), error)
}

// NewInstaller creates a new Installer with defaults applied.
func NewInstaller(params InstallParams, systemd SystemdController, identity IdentityManager, firewall FirewallManager, priv PrivilegeChecker, confirm ConfirmFunc, logger *slog.Logger) *Installer {
	params.ApplyDefaults()
	return &Installer{
		params:   params,
		systemd:  systemd,
		identity: identity,
		firewall: firewall,
		priv:     priv,
		confirm:  confirm,
		logger:   logger.With("component", "provision"),
		sleep:    time.Sleep,
		chown:    fsutil.ChownTree,
		lock:     acquireLock,
	}
}

// Install provisions the authrelay service end to end: account, install tree,
// program artifacts, server configuration, systemd unit, log rotation,
// firewall rule, and activation. The artifact source is checked before any
// mutation, so a missing source performs no changes at all.
func (ins *Installer) Install() error {
	if !ins.priv.IsRoot() {
		return ErrInsufficientPrivilege
	}
	if !ins.systemd.IsAvailable() {
		return errors.New("provision: systemd is not available")
	}

	release, err := ins.lock(ins.params.LockPath)
	if err != nil {
		return err
	}
	defer release()

	if err := ins.checkSource(); err != nil {
		return err
	}
	if err := ins.ensureAccount(); err != nil {
		return err
	}

	uid, gid, err := ins.identity.LookupIDs(ins.params.User, ins.params.Group)
	if err != nil {
		return err
	}

	if err := ins.ensureTree(uid, gid); err != nil {
		return err
	}
	if err := ins.installArtifacts(uid, gid); err != nil {
		return err
	}
	if err := ins.renderConfig(uid, gid); err != nil {
		return err
	}
	if err := ins.registerService(); err != nil {
		return err
	}
	if err := ins.registerRotation(); err != nil {
		return err
	}
	if err := ins.openFirewall(); err != nil {
		return err
	}
	return ins.activate()
}

// checkSource verifies the artifact source exists and contains the program
// entry point. This is the one precondition the orchestrator cannot repair.
func (ins *Installer) checkSource() error {
	info, err := os.Stat(ins.params.SourceDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: directory %s not found", ErrMissingSource, ins.params.SourceDir)
	case err != nil:
		// A stat failure (permissions, bad path component) is not the same as
		// absent artifacts; report it as what it is.
		return fmt.Errorf("provision: stat artifact source %s: %w", ins.params.SourceDir, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrMissingSource, ins.params.SourceDir)
	}

	entry := filepath.Join(ins.params.SourceDir, EntryArtifact)
	if _, err := os.Stat(entry); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: entry point %s not found", ErrMissingSource, entry)
		}
		return fmt.Errorf("provision: stat entry point %s: %w", entry, err)
	}
	return nil
}

// ensureAccount creates the service group and account if absent. Existing
// resources are logged and left alone.
func (ins *Installer) ensureAccount() error {
	if ins.identity.GroupExists(ins.params.Group) {
		ins.logger.Info("group exists, skipping creation", "group", ins.params.Group)
	} else {
		if err := ins.identity.CreateGroup(ins.params.Group); err != nil {
			return fmt.Errorf("provision: create group %s: %w", ins.params.Group, err)
		}
		ins.logger.Info("group created", "group", ins.params.Group)
	}

	if ins.identity.UserExists(ins.params.User) {
		ins.logger.Info("account exists, skipping creation", "user", ins.params.User)
		return nil
	}
	if err := ins.identity.CreateUser(ins.params.User, ins.params.Group, ins.params.Root); err != nil {
		return fmt.Errorf("provision: create account %s: %w", ins.params.User, err)
	}
	ins.logger.Info("account created", "user", ins.params.User, "group", ins.params.Group, "home", ins.params.Root)
	return nil
}

// ensureTree creates the install root and its subdirectories and hands the
// whole tree to the service account.
func (ins *Installer) ensureTree(uid, gid int) error {
	dirs := []string{ins.params.Root, ins.params.BinDir(), ins.params.LogDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("provision: create directory %s: %w", dir, err)
		}
	}
	// MkdirAll is a no-op on existing directories; reassert the root mode so
	// reruns converge even if someone loosened it.
	if err := os.Chmod(ins.params.Root, 0o750); err != nil {
		return fmt.Errorf("provision: chmod %s: %w", ins.params.Root, err)
	}
	if err := ins.chown(ins.params.Root, uid, gid); err != nil {
		return fmt.Errorf("provision: own install tree: %w", err)
	}
	ins.logger.Info("install tree ready", "root", ins.params.Root, "uid", uid, "gid", gid)
	return nil
}

// installArtifacts copies the program files from the artifact source into the
// bin directory, overwriting any prior copy.
func (ins *Installer) installArtifacts(uid, gid int) error {
	count := 0
	err := filepath.WalkDir(ins.params.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(ins.params.SourceDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(ins.params.BinDir(), rel)
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			return os.MkdirAll(dst, 0o750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := fsutil.CopyFile(path, dst, 0o755); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("provision: install artifacts: %w", err)
	}
	if err := ins.chown(ins.params.BinDir(), uid, gid); err != nil {
		return fmt.Errorf("provision: own artifacts: %w", err)
	}
	ins.logger.Info("artifacts installed", "source", ins.params.SourceDir, "dest", ins.params.BinDir(), "files", count)
	return nil
}

// renderConfig writes the server configuration document. It is rewritten on
// every run, and the owner-only mode holds across reruns because the file will
// later carry a plaintext credential.
func (ins *Installer) renderConfig(uid, gid int) error {
	content := GenerateServerConfig(ins.params)
	if err := fsutil.WriteFileAtomic(ins.params.Root, filepath.Base(ins.params.ConfigPath()), []byte(content), 0o600); err != nil {
		return fmt.Errorf("provision: write server config: %w", err)
	}
	if err := ins.chown(ins.params.ConfigPath(), uid, gid); err != nil {
		return fmt.Errorf("provision: own server config: %w", err)
	}
	ins.logger.Info("server config written", "path", ins.params.ConfigPath())
	return nil
}

// registerService writes the systemd unit and reloads the unit cache.
func (ins *Installer) registerService() error {
	unitDir := filepath.Dir(ins.params.UnitFilePath)
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		return fmt.Errorf("provision: create unit directory: %w", err)
	}
	content := GenerateUnitFile(ins.params)
	if err := fsutil.WriteFileAtomic(unitDir, filepath.Base(ins.params.UnitFilePath), []byte(content), 0o644); err != nil {
		return fmt.Errorf("provision: write unit file: %w", err)
	}
	ins.logger.Info("unit file written", "path", ins.params.UnitFilePath)

	if err := ins.systemd.DaemonReload(); err != nil {
		return fmt.Errorf("provision: daemon-reload: %w", err)
	}
	ins.logger.Info("systemd daemon reloaded")
	return nil
}

// registerRotation writes the logrotate policy for the log directory.
func (ins *Installer) registerRotation() error {
	dir := filepath.Dir(ins.params.LogrotatePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("provision: create logrotate directory: %w", err)
	}
	content := GenerateLogrotatePolicy(ins.params)
	if err := fsutil.WriteFileAtomic(dir, filepath.Base(ins.params.LogrotatePath), []byte(content), 0o644); err != nil {
		return fmt.Errorf("provision: write logrotate policy: %w", err)
	}
	ins.logger.Info("logrotate policy written", "path", ins.params.LogrotatePath)
	return nil
}

// openFirewall opens the listen port if a firewall manager is present and
// active. An absent or inactive manager degrades to a warning.
func (ins *Installer) openFirewall() error {
	if ins.firewall == nil {
		ins.logger.Warn("no firewall manager present, listen port not opened", "port", ins.params.ListenPort)
		return nil
	}
	if !ins.firewall.IsActive() {
		ins.logger.Warn("firewall manager inactive, listen port not opened",
			"manager", ins.firewall.Name(),
			"port", ins.params.ListenPort,
		)
		return nil
	}
	if err := ins.firewall.AllowPort(ins.params.ListenPort); err != nil {
		return fmt.Errorf("provision: open firewall port %d: %w", ins.params.ListenPort, err)
	}
	return nil
}

// activate enables the service for boot start, starts it, waits the grace
// interval, and polls active status once. On failure everything already
// installed stays in place for operator inspection.
func (ins *Installer) activate() error {
	svc := ins.params.ServiceName
	if err := ins.systemd.Enable(svc); err != nil {
		return fmt.Errorf("provision: enable service: %w", err)
	}
	if err := ins.systemd.Start(svc); err != nil {
		return fmt.Errorf("provision: start service: %w", err)
	}
	ins.logger.Info("waiting for service to settle", "service", svc, "grace", graceInterval)
	ins.sleep(graceInterval)

	if !ins.systemd.IsActive(svc) {
		return &ActivationError{Service: svc, Diagnostic: ins.systemd.Status(svc)}
	}
	ins.logger.Info("service active", "service", svc)
	return nil
}

// Uninstall reverses the installation: stop, disable, remove the unit,
// logrotate policy, and firewall rule, then — gated on operator confirmation —
// purge the account, group, and install tree. Every step treats an absent
// resource as success, so uninstalling a never-installed host is a no-op.
func (ins *Installer) Uninstall() error {
	if !ins.priv.IsRoot() {
		return ErrInsufficientPrivilege
	}

	release, err := ins.lock(ins.params.LockPath)
	if err != nil {
		return err
	}
	defer release()

	svc := ins.params.ServiceName
	if ins.systemd.IsAvailable() {
		if ins.systemd.IsActive(svc) {
			if err := ins.systemd.Stop(svc); err != nil {
				ins.logger.Warn("stop service", "service", svc, "error", err)
			}
		}
		if ins.systemd.IsEnabled(svc) {
			if err := ins.systemd.Disable(svc); err != nil {
				ins.logger.Warn("disable service", "service", svc, "error", err)
			}
		}
		if err := os.Remove(ins.params.UnitFilePath); err == nil {
			ins.logger.Info("unit file removed", "path", ins.params.UnitFilePath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("provision: remove unit file: %w", err)
		}
		if err := ins.systemd.DaemonReload(); err != nil {
			return fmt.Errorf("provision: daemon-reload: %w", err)
		}
	} else {
		ins.logger.Warn("systemd not available, skipping service teardown")
	}

	if err := os.Remove(ins.params.LogrotatePath); err == nil {
		ins.logger.Info("logrotate policy removed", "path", ins.params.LogrotatePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("provision: remove logrotate policy: %w", err)
	}

	if ins.firewall != nil && ins.firewall.IsActive() {
		if err := ins.firewall.RemovePort(ins.params.ListenPort); err != nil {
			ins.logger.Warn("remove firewall rule", "port", ins.params.ListenPort, "error", err)
		}
	}

	prompt := fmt.Sprintf("Remove account %q, group %q, and directory %s? This deletes the credential-bearing configuration and cannot be undone. [y/N] ",
		ins.params.User, ins.params.Group, ins.params.Root)
	if !ins.confirm(prompt) {
		ins.logger.Info("purge declined, account and install tree left in place")
		return nil
	}
	return ins.purge()
}

// purge removes the service account, group, and install tree.
func (ins *Installer) purge() error {
	if ins.identity.UserExists(ins.params.User) {
		if err := ins.identity.DeleteUser(ins.params.User); err != nil {
			return fmt.Errorf("provision: delete account %s: %w", ins.params.User, err)
		}
		ins.logger.Info("account removed", "user", ins.params.User)
	}
	if ins.identity.GroupExists(ins.params.Group) {
		if err := ins.identity.DeleteGroup(ins.params.Group); err != nil {
			return fmt.Errorf("provision: delete group %s: %w", ins.params.Group, err)
		}
		ins.logger.Info("group removed", "group", ins.params.Group)
	}
	if err := os.RemoveAll(ins.params.Root); err != nil {
		return fmt.Errorf("provision: remove install tree %s: %w", ins.params.Root, err)
	}
	ins.logger.Info("install tree removed", "root", ins.params.Root)
	return nil
}

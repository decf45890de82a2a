package provision

// SystemdController abstracts systemd service management for testability.
// All methods that modify state must be idempotent: repeating an operation
// that is already applied returns nil.
type SystemdController interface {
	// IsAvailable returns true if systemd (systemctl) is available on the system.
	IsAvailable() bool

	// DaemonReload executes systemctl daemon-reload to reload unit file changes.
	DaemonReload() error

	// Enable enables the named service to start on boot.
	Enable(service string) error

	// Disable disables the named service from starting on boot.
	Disable(service string) error

	// Start starts the named service.
	Start(service string) error

	// Stop stops the named service. Returns nil if the service is not running.
	Stop(service string) error

	// IsActive returns true if the named service is currently running.
	IsActive(service string) bool

	// IsEnabled returns true if the named service is enabled for boot start.
	IsEnabled(service string) bool

	// Status returns the service manager's human-readable status output for
	// the named service, for diagnostics. It never fails; on error it returns
	// whatever output was produced.
	Status(service string) string
}

// IdentityManager abstracts the host identity subsystem (groups and system
// accounts) for testability. Creation methods are not idempotent; callers
// check existence first.
type IdentityManager interface {
	// GroupExists returns true if the named group exists.
	GroupExists(name string) bool

	// UserExists returns true if the named account exists.
	UserExists(name string) bool

	// CreateGroup creates a system group.
	CreateGroup(name string) error

	// CreateUser creates a system account in the named group with the given
	// home directory and a disabled login shell.
	CreateUser(name, group, home string) error

	// DeleteUser removes the named account.
	DeleteUser(name string) error

	// DeleteGroup removes the named group.
	DeleteGroup(name string) error

	// LookupIDs resolves the numeric uid and gid of an existing account and group.
	LookupIDs(user, group string) (uid, gid int, err error)
}

// FirewallManager abstracts a host firewall manager. DetectFirewall returns
// nil when no manager is present; the orchestrator treats that as a warning,
// not an error.
type FirewallManager interface {
	// Name identifies the backing manager ("firewalld", "nftables").
	Name() string

	// IsActive returns true if the firewall is running and enforcing rules.
	IsActive() bool

	// AllowPort installs a permanent TCP allow rule for the port. Installing
	// an already-present rule returns nil.
	AllowPort(port int) error

	// RemovePort removes the TCP allow rule for the port. Removing an absent
	// rule returns nil.
	RemovePort(port int) error
}

// PrivilegeChecker abstracts privilege checking for testability.
type PrivilegeChecker interface {
	// IsRoot returns true if the current process has root privileges.
	IsRoot() bool
}

// ConfirmFunc asks the operator a yes/no question and reports the answer.
// The uninstall purge step is gated on it so teardown logic stays testable
// without a terminal.
type ConfirmFunc func(prompt string) bool

package provision

import (
	"errors"
	"fmt"
)

// ErrInsufficientPrivilege is returned when the process lacks the root
// privileges needed to mutate accounts, system directories, and systemd state.
var ErrInsufficientPrivilege = errors.New("provision: root privileges required")

// ErrMissingSource is returned when the artifact source directory is absent
// from the invocation context. No mutation has been performed when it is
// returned.
var ErrMissingSource = errors.New("provision: artifact source missing")

// ErrLocked is returned when another authrelayctl invocation holds the
// advisory lock.
var ErrLocked = errors.New("provision: another invocation is running")

// ActivationError reports a service that was registered and started but did
// not reach active state within the grace window. Diagnostic carries the
// service manager's status output for operator inspection; none of the
// installed artifacts are rolled back.
type ActivationError struct {
	Service    string
	Diagnostic string
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("provision: service %s did not become active\n%s", e.Service, e.Diagnostic)
}

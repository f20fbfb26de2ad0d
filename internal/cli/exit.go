package cli

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/spf13/cobra"
)

// ExitUsage is returned for malformed command lines.
const ExitUsage = 2

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// ExitCode maps err onto a process exit status. File access failures exit
// with the operating system error number, usage errors with ExitUsage and
// everything else with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		var errno syscall.Errno
		if errors.As(pathErr.Err, &errno) && errno > 0 && errno < 256 {
			return int(errno)
		}
	}
	return 1
}

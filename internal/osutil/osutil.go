// Package osutil holds platform names and process constants
package osutil

const (
	Windows = "windows"
	Darwin  = "darwin"
)

type ExitCode int

const (
	ExitOK    ExitCode = 0
	ExitError ExitCode = 1
)

// DirPermission is used for directories workstate creates.
const DirPermission = 0o750

package checkfile

import (
	"errors"
	"fmt"
)

const (
	// NAME contains the plugin family name.
	NAME = "check_file"

	// VERSION contains the actual plugin version.
	VERSION = "0.1.0"

	// ExitCodeOK is used for normal exits.
	ExitCodeOK = 0

	// ExitCodeUnknown is used for help, version and every error.
	ExitCodeUnknown = 3

	// DefaultTimeout sets the default acquisition timeout in seconds.
	DefaultTimeout = 10

	// DefaultSSHPort is used when no port is given for ssh.
	DefaultSSHPort = 22

	// DefaultWinRMPort is used when no port is given for winrm over http.
	DefaultWinRMPort = 5985

	// DefaultWinRMHTTPSPort is used when no port is given for winrm over https.
	DefaultWinRMHTTPSPort = 5986

	// DefaultURL is the monitoring api used by passive checks.
	DefaultURL = "localhost"
)

// Mode selects the plugin variant.
type Mode string

const (
	// ModeNetwork reads the file on a remote host.
	ModeNetwork Mode = "network"

	// ModePassive reads a local file and submits the result to the monitoring api.
	ModePassive Mode = "passive"
)

var (
	// ErrConfiguration is used for missing or invalid options.
	ErrConfiguration = errors.New("configuration error")

	// ErrAcquisition is used when the value cannot be retrieved.
	ErrAcquisition = errors.New("acquisition error")

	// ErrArgumentSyntax is used for unparsable command line arguments.
	ErrArgumentSyntax = errors.New("argument syntax error")

	// ErrSubmission is used when the passive result cannot be delivered.
	ErrSubmission = errors.New("submission error")
)

// CheckError marks an error with its kind, Error() returns the message of Err.
type CheckError struct {
	Kind error
	Err  error
}

func (e *CheckError) Error() string {
	return e.Err.Error()
}

func (e *CheckError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, format string, args ...interface{}) error {
	return &CheckError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func wrapError(kind, err error) error {
	return &CheckError{Kind: kind, Err: err}
}

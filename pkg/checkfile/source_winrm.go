package checkfile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/masterzen/winrm"
)

// WinRMSource reads the value by running type on a windows host.
type WinRMSource struct {
	Target   RemoteTarget
	FilePath string
	Timeout  time.Duration
}

// RemoteCommand returns the cmd.exe command which prints the file.
func (s *WinRMSource) RemoteCommand() (string, error) {
	if strings.ContainsAny(s.FilePath, "\"\r\n") {
		return "", newError(ErrConfiguration, "filepath must not contain quotes or newlines: %s", s.FilePath)
	}

	return fmt.Sprintf("type \"%s\"", s.FilePath), nil
}

func (s *WinRMSource) Fetch(ctx context.Context) (string, error) {
	cmd, err := s.RemoteCommand()
	if err != nil {
		return "", err
	}

	endpoint := winrm.NewEndpoint(s.Target.Host, s.Target.Port, s.Target.UseHTTPS, s.Target.Insecure, nil, nil, nil, s.Timeout)
	client, err := winrm.NewClient(endpoint, s.Target.Username, s.Target.Password)
	if err != nil {
		return "", newError(ErrAcquisition, "cannot create winrm client: %s", err.Error())
	}

	log.Debugf("running %q on %s:%d via winrm", cmd, s.Target.Host, s.Target.Port)
	stdout, stderr, exitCode, err := client.RunWithContextWithString(ctx, cmd, "")
	if ctx.Err() != nil {
		return "", newError(ErrAcquisition, "reading %s on %s timed out", s.FilePath, s.Target.Host)
	}

	return winrmResult(stdout, stderr, exitCode, err)
}

func winrmResult(stdout, stderr string, exitCode int, err error) (string, error) {
	switch {
	case err != nil:
		return "", newError(ErrAcquisition, "winrm execution failed: %s", err.Error())
	case exitCode != 0:
		return "", newError(ErrAcquisition, "remote command failed (exit code %d): %s",
			exitCode, strings.TrimSpace(stderr))
	}

	return stdout, nil
}

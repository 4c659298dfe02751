package checkfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHSource reads the value by running cat on the remote host.
type SSHSource struct {
	Target   RemoteTarget
	FilePath string
	Timeout  time.Duration
}

// RemoteCommand returns the shell command which prints the file.
func (s *SSHSource) RemoteCommand() string {
	return "cat " + shellescape.Quote(s.FilePath)
}

func (s *SSHSource) Fetch(ctx context.Context) (string, error) {
	clientConf, err := s.clientConfig()
	if err != nil {
		return "", err
	}

	address := net.JoinHostPort(s.Target.Host, strconv.Itoa(s.Target.Port))
	log.Debugf("connecting to %s@%s", s.Target.Username, address)

	dialer := &net.Dialer{Timeout: s.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return "", newError(ErrAcquisition, "cannot connect to %s: %s", address, err.Error())
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, clientConf)
	if err != nil {
		conn.Close()

		return "", newError(ErrAcquisition, "ssh handshake with %s failed: %s", address, err.Error())
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return "", newError(ErrAcquisition, "cannot open ssh session: %s", err.Error())
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	cmd := s.RemoteCommand()
	log.Tracef("running remote command: %s", cmd)
	err = session.Run(cmd)

	var exitErr *ssh.ExitError
	switch {
	case ctx.Err() != nil:
		return "", newError(ErrAcquisition, "reading %s on %s timed out", s.FilePath, s.Target.Host)
	case errors.As(err, &exitErr):
		return "", newError(ErrAcquisition, "remote command failed (exit code %d): %s",
			exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
	case err != nil:
		return "", newError(ErrAcquisition, "remote command failed: %s", err.Error())
	}

	return stdout.String(), nil
}

func (s *SSHSource) clientConfig() (*ssh.ClientConfig, error) {
	auth := []ssh.AuthMethod{}

	if s.Target.Identity != "" {
		signer, err := loadIdentity(s.Target.Identity, s.Target.Password)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.Target.Password != "" {
		auth = append(auth, ssh.Password(s.Target.Password))
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // host keys are only verified with --known-hosts
	if s.Target.KnownHosts != "" {
		callback, err := knownhosts.New(s.Target.KnownHosts)
		if err != nil {
			return nil, newError(ErrConfiguration, "known-hosts: %s", err.Error())
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            s.Target.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		HostKeyAlgorithms: []string{
			ssh.KeyAlgoED25519,
			ssh.KeyAlgoECDSA256,
			ssh.KeyAlgoRSASHA256,
			ssh.KeyAlgoRSASHA512,
		},
		Timeout: s.Timeout,
	}, nil
}

// loadIdentity reads the private key, the password is used as passphrase for encrypted keys.
func loadIdentity(path, passphrase string) (ssh.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ErrConfiguration, "identity: %s", err.Error())
	}

	signer, err := ssh.ParsePrivateKey(pem)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) && passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	}
	if err != nil {
		return nil, newError(ErrConfiguration, "identity %s: %s", path, err.Error())
	}

	return signer, nil
}

func (s *SSHSource) String() string {
	return fmt.Sprintf("ssh://%s@%s:%d%s", s.Target.Username, s.Target.Host, s.Target.Port, s.FilePath)
}

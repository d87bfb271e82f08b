package pgctl

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Runner executes a shell command on a database server.
type Runner interface {
	Run(ctx context.Context, host, cmd string) (string, error)
}

// SSHRunner runs commands over a fresh SSH connection per call.
type SSHRunner struct {
	User        string
	Port        int
	DialTimeout time.Duration

	auth func() (ssh.AuthMethod, error)
}

// NewSSHRunner authenticates with a private key file when keyPath is set,
// otherwise with certificates signed by the CA key at caKeyPath.
func NewSSHRunner(user string, port int, keyPath, caKeyPath string, dialTimeout time.Duration) (*SSHRunner, error) {
	r := &SSHRunner{User: user, Port: port, DialTimeout: dialTimeout}

	switch {
	case keyPath != "":
		pemBytes, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		r.auth = func() (ssh.AuthMethod, error) { return ssh.PublicKeys(signer), nil }
	case caKeyPath != "":
		pemBytes, err := os.ReadFile(caKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh ca key: %w", err)
		}
		ca, err := NewCA(pemBytes)
		if err != nil {
			return nil, err
		}
		r.auth = func() (ssh.AuthMethod, error) {
			signer, err := ca.Sign(user, 5*time.Minute)
			if err != nil {
				return nil, err
			}
			return ssh.PublicKeys(signer), nil
		}
	default:
		return nil, fmt.Errorf("no ssh credentials configured")
	}
	return r, nil
}

// Run dials host, runs cmd and returns its combined output. Cancelling ctx
// tears the connection down.
func (r *SSHRunner) Run(ctx context.Context, host, cmd string) (string, error) {
	auth, err := r.auth()
	if err != nil {
		return "", err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(r.Port))
	dialer := net.Dialer{Timeout: r.DialTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.DialTimeout,
	})
	if err != nil {
		tcpConn.Close()
		return "", fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("ssh session on %s: %w", addr, err)
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	session.Stderr = &out
	if err := session.Run(cmd); err != nil {
		if ctx.Err() != nil {
			return out.String(), ctx.Err()
		}
		msg := strings.TrimSpace(out.String())
		if msg != "" {
			return out.String(), fmt.Errorf("%w: %s", err, msg)
		}
		return out.String(), err
	}
	return out.String(), nil
}

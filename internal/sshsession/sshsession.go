// Package sshsession dials and authenticates an SSH connection shared by
// the SFTP and SCP backends. Neither backend, nor internal/remotefs,
// imports golang.org/x/crypto/ssh directly — this package is the single
// seam where that dependency lives.
package sshsession

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"gateway/internal/ferrors"
)

const dialTimeout = 10 * time.Second

// defaultIdentityFiles are tried, in order, once an explicit password and
// the running ssh-agent both fail to produce a working auth method. These
// are the SSH ecosystem's own conventional default identity files; nothing
// in the retrieved reference material pins a different order for Gateway,
// so the library's own defaults are used (SPEC_FULL.md §10.4).
var defaultIdentityFiles = []string{"id_rsa", "id_ecdsa", "id_ed25519"}

// Client wraps an authenticated *ssh.Client so callers outside this
// package never need to import golang.org/x/crypto/ssh themselves.
type Client struct {
	ssh *ssh.Client
}

// Dial connects to address:port and authenticates as username. If password
// is non-empty it is tried first; auth then falls back to SSH_AUTH_SOCK
// agent keys, then to the user's default identity files under ~/.ssh
// (spec.md §4.2).
func Dial(address string, port int, username, password string) (*Client, error) {
	methods := authMethods(username, password)
	if len(methods) == 0 {
		return nil, ferrors.New(ferrors.AuthenticationFailed)
	}

	config := &ssh.ClientConfig{
		User:            username,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	target := net.JoinHostPort(address, fmt.Sprintf("%d", port))
	conn, err := ssh.Dial("tcp", target, config)
	if err != nil {
		return nil, translateDialError(err)
	}
	return &Client{ssh: conn}, nil
}

func (c *Client) Raw() *ssh.Client {
	return c.ssh
}

// NewSession opens a fresh SSH session on the underlying connection, used
// by the SCP backend to run `scp` and `ls -la` over exec channels.
func (c *Client) NewSession() (*ssh.Session, error) {
	sess, err := c.ssh.NewSession()
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ConnectionError, err)
	}
	return sess, nil
}

func (c *Client) Close() error {
	if c.ssh == nil {
		return nil
	}
	return c.ssh.Close()
}

func authMethods(username, password string) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if password != "" {
		methods = append(methods, ssh.Password(password))
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			agentClient := agent.NewClient(conn)
			methods = append(methods, ssh.PublicKeysCallback(agentClient.Signers))
		}
	}

	if signers := loadDefaultIdentitySigners(); len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	return methods
}

func loadDefaultIdentitySigners() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	var signers []ssh.Signer
	for _, name := range defaultIdentityFiles {
		keyPath := filepath.Join(home, ".ssh", name)
		raw, err := os.ReadFile(keyPath)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(raw)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	return signers
}

func translateDialError(err error) error {
	if _, ok := err.(*net.OpError); ok {
		return ferrors.Wrap(ferrors.ConnectionRefused, err)
	}
	return ferrors.Wrap(ferrors.ConnectionError, err)
}

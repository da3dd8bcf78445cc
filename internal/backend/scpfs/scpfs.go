// Package scpfs implements the remotefs.Filesystem contract over SCP. File
// transfer uses github.com/bramvdbogaerde/go-scp; every other operation
// (listing, mkdir, remove, rename, stat) has no SCP-protocol equivalent,
// so it runs as a shell command over a plain SSH exec channel, the way an
// interactive scp client's sibling sftp/ssh session would (spec.md §4.3).
package scpfs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bramvdbogaerde/go-scp"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/listing"
	"gateway/internal/remotefs"
	"gateway/internal/sshsession"
)

// Backend implements remotefs.Filesystem over SCP for transfers and raw
// shell exec for directory operations.
type Backend struct {
	ssh *sshsession.Client
	cwd string
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Connect(address string, port int, username, password string) (string, error) {
	client, err := sshsession.Dial(address, port, username, password)
	if err != nil {
		return "", err
	}
	b.ssh = client

	out, err := b.exec("pwd")
	if err != nil {
		b.Disconnect()
		return "", ferrors.Wrap(ferrors.DirStatFailed, err)
	}
	b.cwd = fsmodel.Normalize(strings.TrimSpace(out))
	return string(client.Raw().ServerVersion()), nil
}

func (b *Backend) Disconnect() error {
	if b.ssh == nil {
		return nil
	}
	err := b.ssh.Close()
	b.ssh = nil
	return err
}

func (b *Backend) IsConnected() bool {
	return b.ssh != nil
}

func (b *Backend) Pwd() (string, error) {
	if err := b.requireSession(); err != nil {
		return "", err
	}
	return b.cwd, nil
}

func (b *Backend) ChangeDir(p string) (string, error) {
	if err := b.requireSession(); err != nil {
		return "", err
	}
	resolved := b.resolve(p)
	if _, err := b.exec(fmt.Sprintf("test -d %s && echo ok", shellQuote(resolved))); err != nil {
		return "", ferrors.Newf(ferrors.NoSuchFile, "%s is not a directory", resolved)
	}
	b.cwd = resolved
	return b.cwd, nil
}

func (b *Backend) ListDir(p string) ([]fsmodel.Entry, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	resolved := b.resolve(p)
	out, err := b.exec(fmt.Sprintf("ls -la %s", shellQuote(resolved)))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.DirStatFailed, err)
	}
	return listing.Parse(resolved, out), nil
}

func (b *Backend) Mkdir(p string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	resolved := b.resolve(p)
	if _, err := b.exec(fmt.Sprintf("mkdir %s", shellQuote(resolved))); err != nil {
		return ferrors.Wrap(ferrors.FileCreateDenied, err)
	}
	return nil
}

func (b *Backend) Remove(entry fsmodel.Entry) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	var cmd string
	if entry.Kind == fsmodel.KindDirectory && !entry.IsSymlink() {
		cmd = fmt.Sprintf("rmdir %s", shellQuote(entry.Path))
	} else {
		cmd = fmt.Sprintf("rm -f %s", shellQuote(entry.Path))
	}
	if _, err := b.exec(cmd); err != nil {
		if entry.Kind == fsmodel.KindDirectory && !entry.IsSymlink() {
			return b.removeDirRecursive(entry)
		}
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

// removeDirRecursive is the depth-first fallback used when a plain
// `rmdir` fails because the directory is non-empty, since SCP/SSH expose
// no native recursive delete primitive beyond the shell itself (spec.md
// §4.1).
func (b *Backend) removeDirRecursive(dir fsmodel.Entry) error {
	children, err := b.ListDir(dir.Path)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Kind == fsmodel.KindDirectory && !child.IsSymlink() {
			if err := b.removeDirRecursive(child); err != nil {
				return err
			}
			continue
		}
		if err := b.Remove(child); err != nil {
			return err
		}
	}
	if _, err := b.exec(fmt.Sprintf("rmdir %s", shellQuote(dir.Path))); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

func (b *Backend) Rename(entry fsmodel.Entry, newPath string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	resolved := b.resolve(newPath)
	if _, err := b.exec(fmt.Sprintf("mv %s %s", shellQuote(entry.Path), shellQuote(resolved))); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

func (b *Backend) Stat(p string) (fsmodel.Entry, error) {
	if err := b.requireSession(); err != nil {
		return fsmodel.Entry{}, err
	}
	resolved := b.resolve(p)
	parent := path.Dir(resolved)
	out, err := b.exec(fmt.Sprintf("ls -lad %s", shellQuote(resolved)))
	if err != nil {
		return fsmodel.Entry{}, ferrors.Wrap(ferrors.NoSuchFile, err)
	}
	entries := listing.Parse(parent, out)
	if len(entries) == 0 {
		return fsmodel.Entry{}, ferrors.New(ferrors.NoSuchFile)
	}
	return entries[0], nil
}

// SendFile returns a buffering WriteStream: go-scp needs the whole content
// and its exact byte count before the upload starts, so writes accumulate
// in memory and FinalizeSent uploads them with CopyFile, which takes the
// count from the buffered bytes.
func (b *Backend) SendFile(local fsmodel.Entry, remotePath string) (remotefs.WriteStream, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	return &sendBuffer{backend: b, remotePath: b.resolve(remotePath), size: local.Size}, nil
}

type sendBuffer struct {
	backend    *Backend
	remotePath string
	size       int64
	buf        bytes.Buffer
}

func (s *sendBuffer) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (b *Backend) RecvFile(remote fsmodel.Entry) (remotefs.ReadStream, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	client, err := scp.NewClientBySSH(b.ssh.Raw())
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ProtocolError, err)
	}
	var out bytes.Buffer
	if err := client.CopyFromRemotePassThru(context.Background(), &out, remote.Path, nil); err != nil {
		return nil, ferrors.Wrap(ferrors.IoErr, err)
	}
	return bytes.NewReader(out.Bytes()), nil
}

// FinalizeSent performs the actual SCP upload, since sendBuffer only
// accumulates bytes in memory until the full size is known, matching
// go-scp's whole-reader CopyFile signature.
func (b *Backend) FinalizeSent(stream remotefs.WriteStream) error {
	sb, ok := stream.(*sendBuffer)
	if !ok {
		return ferrors.New(ferrors.ProtocolError)
	}
	client, err := scp.NewClientBySSH(b.ssh.Raw())
	if err != nil {
		return ferrors.Wrap(ferrors.ProtocolError, err)
	}
	if err := client.CopyFile(context.Background(), bytes.NewReader(sb.buf.Bytes()), sb.remotePath, "0644"); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

func (b *Backend) FinalizeRecv(stream remotefs.ReadStream) error {
	return nil
}

func (b *Backend) exec(cmd string) (string, error) {
	sess, err := b.ssh.NewSession()
	if err != nil {
		return "", err
	}
	defer sess.Close()
	var out bytes.Buffer
	sess.Stdout = &out
	if err := sess.Run(cmd); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (b *Backend) resolve(p string) string {
	if p == "" || p == "." {
		return b.cwd
	}
	if path.IsAbs(p) {
		return fsmodel.Normalize(p)
	}
	return fsmodel.Normalize(b.cwd + "/" + p)
}

func (b *Backend) requireSession() error {
	if b.ssh == nil {
		return ferrors.New(ferrors.UninitializedSession)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

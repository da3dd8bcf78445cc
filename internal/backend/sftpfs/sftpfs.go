// Package sftpfs implements the remotefs.Filesystem contract over SFTP,
// using the shared sshsession dial/auth helper and github.com/pkg/sftp for
// the subsystem client (spec.md §4.2).
package sftpfs

import (
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/remotefs"
	"gateway/internal/sshsession"
)

// Backend implements remotefs.Filesystem over a single SFTP session.
type Backend struct {
	ssh    *sshsession.Client
	client *sftp.Client
	cwd    string
}

// New returns an unconnected Backend. Connect must be called before any
// other method.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Connect(address string, port int, username, password string) (string, error) {
	client, err := sshsession.Dial(address, port, username, password)
	if err != nil {
		return "", err
	}
	sftpClient, err := sftp.NewClient(client.Raw())
	if err != nil {
		client.Close()
		return "", ferrors.Wrap(ferrors.ProtocolError, err)
	}
	b.ssh = client
	b.client = sftpClient

	cwd, err := sftpClient.RealPath(".")
	if err != nil {
		b.Disconnect()
		return "", ferrors.Wrap(ferrors.DirStatFailed, err)
	}
	b.cwd = fsmodel.Normalize(cwd)
	return string(client.Raw().ServerVersion()), nil
}

func (b *Backend) Disconnect() error {
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
	if b.ssh != nil {
		err := b.ssh.Close()
		b.ssh = nil
		return err
	}
	return nil
}

func (b *Backend) IsConnected() bool {
	return b.client != nil
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
	info, err := b.client.Stat(resolved)
	if err != nil {
		return "", translateSftpError(err)
	}
	if !info.IsDir() {
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
	infos, err := b.client.ReadDir(resolved)
	if err != nil {
		return nil, translateSftpError(err)
	}
	entries := make([]fsmodel.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(b.client, resolved, info))
	}
	return entries, nil
}

func (b *Backend) Mkdir(p string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	if err := b.client.Mkdir(b.resolve(p)); err != nil {
		return ferrors.Wrap(ferrors.FileCreateDenied, err)
	}
	return nil
}

func (b *Backend) Remove(entry fsmodel.Entry) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	if entry.Kind == fsmodel.KindFile || entry.IsSymlink() {
		if err := b.client.Remove(entry.Path); err != nil {
			return translateSftpError(err)
		}
		return nil
	}
	return b.removeDirRecursive(entry)
}

// removeDirRecursive walks the directory depth-first because the SFTP
// protocol's SSH_FXP_RMDIR only removes empty directories (spec.md §4.1).
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
	if err := b.client.RemoveDirectory(dir.Path); err != nil {
		return translateSftpError(err)
	}
	return nil
}

func (b *Backend) Rename(entry fsmodel.Entry, newPath string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	resolved := b.resolve(newPath)
	if err := b.client.Rename(entry.Path, resolved); err != nil {
		return translateSftpError(err)
	}
	return nil
}

func (b *Backend) Stat(p string) (fsmodel.Entry, error) {
	if err := b.requireSession(); err != nil {
		return fsmodel.Entry{}, err
	}
	resolved := b.resolve(p)
	info, err := b.client.Lstat(resolved)
	if err != nil {
		return fsmodel.Entry{}, translateSftpError(err)
	}
	return entryFromInfo(b.client, path.Dir(resolved), info), nil
}

func (b *Backend) SendFile(local fsmodel.Entry, remotePath string) (remotefs.WriteStream, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	resolved := b.resolve(remotePath)
	f, err := b.client.OpenFile(resolved, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.FileCreateDenied, err)
	}
	return f, nil
}

func (b *Backend) RecvFile(remote fsmodel.Entry) (remotefs.ReadStream, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	f, err := b.client.Open(remote.Path)
	if err != nil {
		return nil, translateSftpError(err)
	}
	return f, nil
}

// FinalizeSent closes the *sftp.File. pkg/sftp commits the write fully on
// Close, so no further protocol call is needed.
func (b *Backend) FinalizeSent(stream remotefs.WriteStream) error {
	return closeStream(stream)
}

func (b *Backend) FinalizeRecv(stream remotefs.ReadStream) error {
	return closeStream(stream)
}

func closeStream(v any) error {
	if c, ok := v.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
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
	if b.client == nil {
		return ferrors.New(ferrors.UninitializedSession)
	}
	return nil
}

func entryFromInfo(client *sftp.Client, dir string, info os.FileInfo) fsmodel.Entry {
	full := fsmodel.Normalize(dir + "/" + info.Name())
	var e fsmodel.Entry
	if info.IsDir() {
		e = fsmodel.NewDirectory(info.Name(), full, info.ModTime())
	} else {
		e = fsmodel.NewFile(info.Name(), full, info.Size(), info.ModTime())
	}
	if sys, ok := info.Sys().(*sftp.FileStat); ok {
		e.Mode = permissionsFromUnixMode(uint32(info.Mode().Perm()))
		uid := int(sys.UID)
		gid := int(sys.GID)
		e.UID = &uid
		e.GID = &gid
		accessed := time.Unix(int64(sys.Atime), 0).UTC()
		e.AccessedTime = &accessed
	}
	if info.Mode()&os.ModeSymlink != 0 {
		if target, err := client.ReadLink(full); err == nil {
			e.SymlinkTo = target
		} else {
			e.SymlinkTo = "?"
		}
	}
	return e
}

func permissionsFromUnixMode(mode uint32) *fsmodel.Permissions {
	bit := func(shift uint) bool { return mode&(1<<shift) != 0 }
	return &fsmodel.Permissions{
		User:  fsmodel.Triple{Read: bit(8), Write: bit(7), Execute: bit(6)},
		Group: fsmodel.Triple{Read: bit(5), Write: bit(4), Execute: bit(3)},
		Other: fsmodel.Triple{Read: bit(2), Write: bit(1), Execute: bit(0)},
	}
}

func translateSftpError(err error) error {
	if os.IsNotExist(err) {
		return ferrors.Wrap(ferrors.NoSuchFile, err)
	}
	if os.IsPermission(err) {
		return ferrors.Wrap(ferrors.PexError, err)
	}
	if status, ok := err.(*sftp.StatusError); ok {
		switch status.Code {
		case 2: // SSH_FX_NO_SUCH_FILE
			return ferrors.Wrap(ferrors.NoSuchFile, err)
		case 3: // SSH_FX_PERMISSION_DENIED
			return ferrors.Wrap(ferrors.PexError, err)
		}
	}
	return ferrors.Wrap(ferrors.IoErr, err)
}

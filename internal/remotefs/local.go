package remotefs

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
)

// Local implements Filesystem over the host OS, so the orchestrator can
// dispatch recursive operations (delete, directory size) against either
// pane through the same contract (spec.md §4.7, "Recursive operations that
// need polymorphism").
type Local struct {
	cwd string
}

// NewLocal builds a Local filesystem rooted at the process's starting
// working directory.
func NewLocal() *Local {
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}
	return &Local{cwd: fsmodel.Normalize(filepath.ToSlash(wd))}
}

func (l *Local) Connect(address string, port int, username string, password string) (string, error) {
	return "", nil
}

func (l *Local) Disconnect() error { return nil }

func (l *Local) IsConnected() bool { return true }

func (l *Local) Pwd() (string, error) {
	return l.cwd, nil
}

func (l *Local) ChangeDir(path string) (string, error) {
	resolved := l.resolve(path)
	info, err := os.Stat(filepath.FromSlash(resolved))
	if err != nil {
		return "", translateOSError(err)
	}
	if !info.IsDir() {
		return "", ferrors.Newf(ferrors.NoSuchFile, "%s is not a directory", resolved)
	}
	l.cwd = resolved
	return l.cwd, nil
}

func (l *Local) ListDir(path string) ([]fsmodel.Entry, error) {
	resolved := l.resolve(path)
	entries, err := os.ReadDir(filepath.FromSlash(resolved))
	if err != nil {
		return nil, translateOSError(err)
	}
	result := make([]fsmodel.Entry, 0, len(entries))
	for _, de := range entries {
		entry, err := statEntry(filepath.ToSlash(filepath.Join(filepath.FromSlash(resolved), de.Name())))
		if err != nil {
			continue
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (l *Local) Mkdir(path string) error {
	resolved := l.resolve(path)
	if err := os.Mkdir(filepath.FromSlash(resolved), 0o755); err != nil {
		return ferrors.Wrap(ferrors.FileCreateDenied, err)
	}
	return nil
}

func (l *Local) Remove(entry fsmodel.Entry) error {
	localPath := filepath.FromSlash(entry.Path)
	if entry.Kind == fsmodel.KindFile || entry.IsSymlink() {
		if err := os.Remove(localPath); err != nil {
			return translateOSError(err)
		}
		return nil
	}
	return removeDirRecursive(l, entry)
}

// removeDirRecursive implements the depth-first list/recurse/remove
// fallback described in spec.md §4.1 for protocols lacking native
// recursive delete. Local has native recursive delete via os.RemoveAll,
// but the orchestrator relies on first-error-wins, no-rollback semantics
// identical to the remote backends, so the same child-by-child walk is
// used here instead of os.RemoveAll.
func removeDirRecursive(fs Filesystem, dir fsmodel.Entry) error {
	children, err := fs.ListDir(dir.Path)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Kind == fsmodel.KindDirectory && !child.IsSymlink() {
			if err := removeDirRecursive(fs, child); err != nil {
				return err
			}
			continue
		}
		if err := fs.Remove(child); err != nil {
			return err
		}
	}
	return fs.Remove(fsmodel.Entry{Kind: fsmodel.KindFile, Path: dir.Path, Name: dir.Name})
}

func (l *Local) Rename(entry fsmodel.Entry, newPath string) error {
	resolved := l.resolve(newPath)
	if err := os.Rename(filepath.FromSlash(entry.Path), filepath.FromSlash(resolved)); err != nil {
		return translateOSError(err)
	}
	return nil
}

func (l *Local) Stat(path string) (fsmodel.Entry, error) {
	resolved := l.resolve(path)
	entry, err := statEntry(filepath.FromSlash(resolved))
	if err != nil {
		return fsmodel.Entry{}, translateOSError(err)
	}
	return entry, nil
}

func (l *Local) SendFile(local fsmodel.Entry, remotePath string) (WriteStream, error) {
	resolved := l.resolve(remotePath)
	f, err := os.OpenFile(filepath.FromSlash(resolved), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.FileCreateDenied, err)
	}
	return f, nil
}

func (l *Local) RecvFile(remote fsmodel.Entry) (ReadStream, error) {
	f, err := os.Open(filepath.FromSlash(remote.Path))
	if err != nil {
		return nil, translateOSError(err)
	}
	return f, nil
}

// FinalizeSent closes the underlying *os.File. Local auto-finalizes on
// Close, so no extra work is required beyond that.
func (l *Local) FinalizeSent(stream WriteStream) error {
	return closeIfCloser(stream)
}

func (l *Local) FinalizeRecv(stream ReadStream) error {
	return closeIfCloser(stream)
}

func closeIfCloser(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Local) resolve(path string) string {
	if path == "" || path == "." {
		return l.cwd
	}
	if filepath.IsAbs(filepath.FromSlash(path)) || (len(path) > 0 && path[0] == '/') {
		return fsmodel.Normalize(path)
	}
	return fsmodel.Normalize(l.cwd + "/" + path)
}

func statEntry(localPath string) (fsmodel.Entry, error) {
	info, err := os.Lstat(localPath)
	if err != nil {
		return fsmodel.Entry{}, err
	}
	slashPath := fsmodel.Normalize(filepath.ToSlash(localPath))
	name := info.Name()
	var symlinkTo string
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(localPath)
		if err == nil {
			symlinkTo = fsmodel.Normalize(filepath.ToSlash(target))
		}
	}
	mode := permissionsFromFileMode(info.Mode())
	if info.IsDir() {
		e := fsmodel.NewDirectory(name, slashPath, info.ModTime())
		e.Mode = mode
		e.SymlinkTo = symlinkTo
		return e, nil
	}
	e := fsmodel.NewFile(name, slashPath, info.Size(), info.ModTime())
	e.Mode = mode
	e.SymlinkTo = symlinkTo
	return e, nil
}

func permissionsFromFileMode(mode os.FileMode) *fsmodel.Permissions {
	perm := mode.Perm()
	return &fsmodel.Permissions{
		User:  tripleFromBits(perm, 0o400, 0o200, 0o100),
		Group: tripleFromBits(perm, 0o040, 0o020, 0o010),
		Other: tripleFromBits(perm, 0o004, 0o002, 0o001),
	}
}

func tripleFromBits(perm os.FileMode, r, w, x os.FileMode) fsmodel.Triple {
	return fsmodel.Triple{
		Read:    perm&r != 0,
		Write:   perm&w != 0,
		Execute: perm&x != 0,
	}
}

func translateOSError(err error) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return ferrors.Wrap(ferrors.NoSuchFile, err)
	}
	if os.IsPermission(err) {
		return ferrors.Wrap(ferrors.PexError, err)
	}
	return ferrors.Wrap(ferrors.IoErr, err)
}

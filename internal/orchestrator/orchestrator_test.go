package orchestrator

import (
	"context"
	"io"
	"testing"
	"time"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/remotefs"
)

// memFS is a minimal in-memory remotefs.Filesystem used to exercise the
// orchestrator without touching any real backend or the filesystem.
type memFS struct {
	cwd    string
	files  map[string][]byte
	dirs   map[string]bool
	banner string
}

func newMemFS(cwd string) *memFS {
	return &memFS{cwd: cwd, files: make(map[string][]byte), dirs: map[string]bool{cwd: true}}
}

func (m *memFS) Connect(string, int, string, string) (string, error) { return m.banner, nil }
func (m *memFS) Disconnect() error                                   { return nil }
func (m *memFS) IsConnected() bool                                   { return true }
func (m *memFS) Pwd() (string, error)                                { return m.cwd, nil }

func (m *memFS) ChangeDir(path string) (string, error) {
	resolved := fsmodel.Normalize(path)
	if !m.dirs[resolved] {
		return "", ferrors.New(ferrors.NoSuchFile)
	}
	m.cwd = resolved
	return resolved, nil
}

func (m *memFS) ListDir(path string) ([]fsmodel.Entry, error) {
	var entries []fsmodel.Entry
	for p := range m.dirs {
		if p != path && parentOf(p) == path {
			entries = append(entries, fsmodel.NewDirectory(baseOf(p), p, time.Unix(0, 0).UTC()))
		}
	}
	for p, content := range m.files {
		if parentOf(p) == path {
			entries = append(entries, fsmodel.NewFile(baseOf(p), p, int64(len(content)), time.Unix(0, 0).UTC()))
		}
	}
	return entries, nil
}

func (m *memFS) Mkdir(path string) error {
	m.dirs[fsmodel.Normalize(path)] = true
	return nil
}

func (m *memFS) Remove(entry fsmodel.Entry) error {
	if entry.Kind == fsmodel.KindDirectory {
		delete(m.dirs, entry.Path)
		return nil
	}
	delete(m.files, entry.Path)
	return nil
}

func (m *memFS) Rename(entry fsmodel.Entry, newPath string) error {
	if content, ok := m.files[entry.Path]; ok {
		delete(m.files, entry.Path)
		m.files[fsmodel.Normalize(newPath)] = content
	}
	return nil
}

func (m *memFS) Stat(path string) (fsmodel.Entry, error) {
	resolved := fsmodel.Normalize(path)
	if content, ok := m.files[resolved]; ok {
		return fsmodel.NewFile(baseOf(resolved), resolved, int64(len(content)), time.Unix(0, 0).UTC()), nil
	}
	if m.dirs[resolved] {
		return fsmodel.NewDirectory(baseOf(resolved), resolved, time.Unix(0, 0).UTC()), nil
	}
	return fsmodel.Entry{}, ferrors.New(ferrors.NoSuchFile)
}

type memWriter struct {
	fs   *memFS
	path string
	buf  []byte
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (m *memFS) SendFile(local fsmodel.Entry, remotePath string) (remotefs.WriteStream, error) {
	return &memWriter{fs: m, path: fsmodel.Normalize(remotePath)}, nil
}

type memReader struct {
	content []byte
	pos     int
}

func (r *memReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.content) {
		return 0, io.EOF
	}
	n := copy(p, r.content[r.pos:])
	r.pos += n
	return n, nil
}

func (m *memFS) RecvFile(remote fsmodel.Entry) (remotefs.ReadStream, error) {
	content, ok := m.files[remote.Path]
	if !ok {
		return nil, ferrors.New(ferrors.NoSuchFile)
	}
	return &memReader{content: content}, nil
}

func (m *memFS) FinalizeSent(stream remotefs.WriteStream) error {
	w := stream.(*memWriter)
	m.files[w.path] = w.buf
	return nil
}

func (m *memFS) FinalizeRecv(stream remotefs.ReadStream) error { return nil }

func parentOf(p string) string {
	idx := lastSlash(p)
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

func baseOf(p string) string {
	idx := lastSlash(p)
	return p[idx+1:]
}

func lastSlash(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return i
		}
	}
	return -1
}

func TestConnectSeedsBothWorkingDirsAndMovesToExplorer(t *testing.T) {
	local := newMemFS("/home/user")
	remote := newMemFS("/srv/data")
	remote.banner = "welcome"

	o := New(local, remote)
	if err := o.Connect("example.com", 22, "user", "pw"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if o.Activity != ActivityExplorer {
		t.Errorf("Activity = %v, want ActivityExplorer", o.Activity)
	}
	if o.LocalWd != "/home/user" {
		t.Errorf("LocalWd = %q, want /home/user", o.LocalWd)
	}
	if o.RemoteWd != "/srv/data" {
		t.Errorf("RemoteWd = %q, want /srv/data", o.RemoteWd)
	}
	if o.LastBanner != "welcome" {
		t.Errorf("LastBanner = %q, want welcome", o.LastBanner)
	}
}

func TestOpenCloseDialogRoundTrips(t *testing.T) {
	o := New(newMemFS("/a"), newMemFS("/b"))
	o.Activity = ActivityExplorer
	o.OpenDialog(DialogConfirmDelete)
	if o.Activity != ActivityDialog || o.Dialog != DialogConfirmDelete {
		t.Errorf("OpenDialog did not set Activity/Dialog correctly: %v/%v", o.Activity, o.Dialog)
	}
	o.CloseDialog()
	if o.Activity != ActivityExplorer || o.Dialog != DialogNone {
		t.Errorf("CloseDialog did not return to explorer: %v/%v", o.Activity, o.Dialog)
	}
}

func TestTransferFileCopiesContent(t *testing.T) {
	local := newMemFS("/home/user")
	remote := newMemFS("/srv/data")
	local.files["/home/user/report.txt"] = []byte("hello world")

	entry, err := local.Stat("/home/user/report.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	var lastTransferred int64
	err = TransferFile(context.Background(), local, remote, entry, "/srv/data/report.txt", func(transferred, total int64) {
		lastTransferred = transferred
	})
	if err != nil {
		t.Fatalf("TransferFile() error = %v", err)
	}
	if string(remote.files["/srv/data/report.txt"]) != "hello world" {
		t.Errorf("remote content = %q, want %q", remote.files["/srv/data/report.txt"], "hello world")
	}
	if lastTransferred != int64(len("hello world")) {
		t.Errorf("lastTransferred = %d, want %d", lastTransferred, len("hello world"))
	}
}

func TestClampProgressNeverExceedsTotal(t *testing.T) {
	if got := clampProgress(200, 100); got != 100 {
		t.Errorf("clampProgress(200, 100) = %d, want 100", got)
	}
	if got := clampProgress(-5, 100); got != 0 {
		t.Errorf("clampProgress(-5, 100) = %d, want 0", got)
	}
	if got := clampProgress(50, 100); got != 50 {
		t.Errorf("clampProgress(50, 100) = %d, want 50", got)
	}
}

func TestDirectorySizeSumsNestedFiles(t *testing.T) {
	fs := newMemFS("/root")
	fs.dirs["/root/sub"] = true
	fs.files["/root/a.txt"] = []byte("1234")
	fs.files["/root/sub/b.txt"] = []byte("123456")

	dir := fsmodel.NewDirectory("root", "/root", time.Unix(0, 0).UTC())
	total, count, err := DirectorySize(context.Background(), fs, dir)
	if err != nil {
		t.Fatalf("DirectorySize() error = %v", err)
	}
	if total != 10 {
		t.Errorf("total = %d, want 10", total)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestIsBinaryDetectsNulByte(t *testing.T) {
	if !IsBinary([]byte("hello\x00world")) {
		t.Errorf("IsBinary(with NUL) = false, want true")
	}
	if IsBinary([]byte("plain ascii text\nwith lines\n")) {
		t.Errorf("IsBinary(plain text) = true, want false")
	}
}

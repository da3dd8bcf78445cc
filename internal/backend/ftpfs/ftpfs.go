// Package ftpfs implements the remotefs.Filesystem contract over FTP and
// FTPS using github.com/jlaffaye/ftp. LIST responses are parsed by
// jlaffaye/ftp and re-rendered as long-listing lines, which then go
// through the same shared listing parser the SCP backend uses over
// `ls -la` (spec.md §4.4).
package ftpfs

import (
	"crypto/tls"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/listing"
	"gateway/internal/remotefs"
)

// Backend implements remotefs.Filesystem over FTP or, when Secure is set,
// FTPS with an explicit TLS upgrade.
type Backend struct {
	// Secure selects FTPS (AUTH TLS) instead of plain FTP.
	Secure bool

	conn *ftp.ServerConn
	cwd  string
}

func New(secure bool) *Backend {
	return &Backend{Secure: secure}
}

// Connect dials, logs in and seeds the working directory. The returned
// banner is always empty; the server's greeting is not reported.
func (b *Backend) Connect(address string, port int, username, password string) (string, error) {
	target := address + ":" + strconv.Itoa(port)
	opts := []ftp.DialOption{ftp.DialWithTimeout(10 * time.Second)}
	if b.Secure {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: address}))
	}
	conn, err := ftp.Dial(target, opts...)
	if err != nil {
		return "", ferrors.Wrap(ferrors.ConnectionRefused, err)
	}
	if err := conn.Login(username, password); err != nil {
		conn.Quit()
		return "", ferrors.Wrap(ferrors.AuthenticationFailed, err)
	}
	b.conn = conn

	cwd, err := conn.CurrentDir()
	if err != nil {
		b.Disconnect()
		return "", ferrors.Wrap(ferrors.DirStatFailed, err)
	}
	b.cwd = fsmodel.Normalize(cwd)
	return "", nil
}

func (b *Backend) Disconnect() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Quit()
	b.conn = nil
	return err
}

func (b *Backend) IsConnected() bool {
	return b.conn != nil
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
	if err := b.conn.ChangeDir(resolved); err != nil {
		return "", ferrors.Wrap(ferrors.NoSuchFile, err)
	}
	b.cwd = resolved
	return b.cwd, nil
}

func (b *Backend) ListDir(p string) ([]fsmodel.Entry, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	resolved := b.resolve(p)
	lines, err := listRaw(b.conn, resolved)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.DirStatFailed, err)
	}
	return listing.Parse(resolved, lines), nil
}

// listRaw lists dir with jlaffaye/ftp's List, which parses the LIST reply
// itself, and re-renders each parsed ftp.Entry as a long-listing line so
// fsmodel.Entry values are still built by the shared listing parser. The
// parsed entries carry no owner, group, permission bits or symlink
// target, so every rendered line has owner and group "ftp", mode
// rwxr-xr-x, and no "-> target" part.
func listRaw(conn *ftp.ServerConn, dir string) (string, error) {
	entries, err := conn.List(dir)
	if err != nil {
		return "", err
	}
	var sb []byte
	for _, e := range entries {
		sb = append(sb, entryToLine(e)...)
		sb = append(sb, '\n')
	}
	return string(sb), nil
}

// entryToLine re-renders an already-parsed ftp.Entry back into a
// long-listing line so it can flow through the same shared parser every
// other backend uses, keeping fsmodel.Entry construction in one place.
func entryToLine(e *ftp.Entry) string {
	kind := byte('-')
	if e.Type == ftp.EntryTypeFolder {
		kind = 'd'
	} else if e.Type == ftp.EntryTypeLink {
		kind = 'l'
	}
	mode := string(kind) + "rwxr-xr-x"
	t := e.Time
	month := t.Format("Jan")
	day := t.Format("02")
	timeOrYear := t.Format("15:04")
	if t.Year() != time.Now().UTC().Year() {
		timeOrYear = t.Format("2006")
	}
	return mode + " 1 ftp ftp " + strconv.FormatUint(e.Size, 10) + " " + month + " " + day + " " + timeOrYear + " " + e.Name
}

func (b *Backend) Mkdir(p string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	if err := b.conn.MakeDir(b.resolve(p)); err != nil {
		return ferrors.Wrap(ferrors.FileCreateDenied, err)
	}
	return nil
}

func (b *Backend) Remove(entry fsmodel.Entry) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	if entry.Kind == fsmodel.KindFile || entry.IsSymlink() {
		if err := b.conn.Delete(entry.Path); err != nil {
			return ferrors.Wrap(ferrors.IoErr, err)
		}
		return nil
	}
	return b.removeDirRecursive(entry)
}

// removeDirRecursive walks the directory depth-first because FTP's RMD
// only removes empty directories (spec.md §4.1).
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
	if err := b.conn.RemoveDir(dir.Path); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

func (b *Backend) Rename(entry fsmodel.Entry, newPath string) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	resolved := b.resolve(newPath)
	if err := b.conn.Rename(entry.Path, resolved); err != nil {
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
	entries, err := b.ListDir(parent)
	if err != nil {
		return fsmodel.Entry{}, err
	}
	for _, e := range entries {
		if e.Path == resolved {
			return e, nil
		}
	}
	return fsmodel.Entry{}, ferrors.New(ferrors.NoSuchFile)
}

func (b *Backend) SendFile(local fsmodel.Entry, remotePath string) (remotefs.WriteStream, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	resolved := b.resolve(remotePath)
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- b.conn.Stor(resolved, pr)
	}()
	return &sendPipe{writer: pw, reader: pr, done: done}, nil
}

// sendPipe adapts jlaffaye/ftp's whole-io.Reader Stor call into the
// orchestrator's incremental WriteStream contract: writes go to the pipe
// writer, Stor drains the pipe reader on its own goroutine, and
// FinalizeSent waits for that goroutine to report the STOR's result.
type sendPipe struct {
	writer *io.PipeWriter
	reader *io.PipeReader
	done   chan error
}

func (s *sendPipe) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

func (b *Backend) RecvFile(remote fsmodel.Entry) (remotefs.ReadStream, error) {
	if err := b.requireSession(); err != nil {
		return nil, err
	}
	resp, err := b.conn.Retr(remote.Path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.IoErr, err)
	}
	return &recvResponse{resp: resp}, nil
}

// recvResponse wraps *ftp.Response so FinalizeRecv can invoke the
// library-specific finalize (Close, which signals the data connection is
// done) that jlaffaye/ftp requires beyond just exhausting the reader.
type recvResponse struct {
	resp *ftp.Response
}

func (r *recvResponse) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (b *Backend) FinalizeSent(stream remotefs.WriteStream) error {
	sp, ok := stream.(*sendPipe)
	if !ok {
		return ferrors.New(ferrors.ProtocolError)
	}
	if err := sp.writer.Close(); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	if err := <-sp.done; err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

func (b *Backend) FinalizeRecv(stream remotefs.ReadStream) error {
	rr, ok := stream.(*recvResponse)
	if !ok {
		return ferrors.New(ferrors.ProtocolError)
	}
	if err := rr.resp.Close(); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
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
	if b.conn == nil {
		return ferrors.New(ferrors.UninitializedSession)
	}
	return nil
}

// Package remotefs defines the protocol-neutral filesystem contract every
// backend (SFTP, SCP, FTP/FTPS, and the local host filesystem) implements,
// per spec.md §4.1.
package remotefs

import (
	"io"

	"gateway/internal/fsmodel"
)

// WriteStream is the sink send_file opens; the orchestrator writes chunks
// to it in order, then calls the backend's Finalize (via Filesystem).
type WriteStream interface {
	io.Writer
}

// ReadStream is the source recv_file opens; the orchestrator reads chunks
// from it in order, then calls the backend's Finalize.
type ReadStream interface {
	io.Reader
}

// Filesystem is the capability set every backend implements. Every path
// accepted or returned is absolute and forward-slash separated; timestamps
// are UTC; symlinks report their own metadata, not the target's
// (spec.md §4.1, contract invariants).
type Filesystem interface {
	// Connect establishes the session, authenticates, then seeds the
	// working directory via an initial pwd, returning the server's
	// banner (may be empty for protocols without one).
	Connect(address string, port int, username string, password string) (banner string, err error)

	// Disconnect tears down the session. Idempotent when already
	// disconnected.
	Disconnect() error

	// IsConnected is advisory only, not a liveness check.
	IsConnected() bool

	// Pwd returns the current absolute working directory. Requires a
	// live session.
	Pwd() (string, error)

	// ChangeDir resolves path (which may be relative) against the
	// current working directory and, on success, updates it.
	ChangeDir(path string) (newWorkingDir string, err error)

	// ListDir lists path (which may be relative), returning entries in
	// whatever order the server supplies them.
	ListDir(path string) ([]fsmodel.Entry, error)

	// Mkdir creates a directory.
	Mkdir(path string) error

	// Remove deletes a file or, recursively, a directory. For
	// directories on protocols lacking native recursive removal, the
	// backend lists, recurses depth-first, removes files, then removes
	// the now-empty directory. On any child failure it aborts and
	// surfaces the first error; partial progress is not rolled back.
	Remove(entry fsmodel.Entry) error

	// Rename moves entry to a new absolute path. Server-side atomicity
	// is preferred where available but not required.
	Rename(entry fsmodel.Entry, newPath string) error

	// Stat produces the same shape as a listing entry for a single
	// path.
	Stat(path string) (fsmodel.Entry, error)

	// SendFile opens a write stream for remotePath, sized according to
	// local (some backends, e.g. SCP, require the byte count upfront).
	SendFile(local fsmodel.Entry, remotePath string) (WriteStream, error)

	// RecvFile opens a read stream for remote.
	RecvFile(remote fsmodel.Entry) (ReadStream, error)

	// FinalizeSent finalizes a stream opened by SendFile. Backends whose
	// underlying library auto-finalizes on Close return nil without
	// extra work; FTP must invoke its library's transfer finalization
	// here because the stream alone does not signal completion.
	FinalizeSent(stream WriteStream) error

	// FinalizeRecv finalizes a stream opened by RecvFile.
	FinalizeRecv(stream ReadStream) error
}

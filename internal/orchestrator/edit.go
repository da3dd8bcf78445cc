package orchestrator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"os"
	"time"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/remotefs"
)

var (
	errBinaryFile   = ferrors.Newf(ferrors.UnsupportedFeature, "refusing to edit binary file")
	errNotSupported = ferrors.New(ferrors.UnsupportedFeature)
)

// sniffWindow is the number of leading bytes read to decide whether a
// file is binary before offering to edit it, matching the original
// activity's own 2048-byte read (SPEC_FULL.md §10.4).
const sniffWindow = 2048

// IsBinary reports whether content looks binary: a NUL byte anywhere in
// the sniffed window, or a high proportion of non-printable bytes, flags
// it (spec.md §4.8, "refuse to edit binary files").
func IsBinary(content []byte) bool {
	if len(content) > sniffWindow {
		content = content[:sniffWindow]
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return true
	}
	if len(content) == 0 {
		return false
	}
	var nonText int
	for _, b := range content {
		if b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		if b < 0x20 || b == 0x7f {
			nonText++
		}
	}
	return float64(nonText)/float64(len(content)) > 0.3
}

// EditSession tracks a remote file downloaded to a local temp path for
// editing. The zero value is not usable; construct via BeginRemoteEdit.
type EditSession struct {
	RemotePath string
	TempPath   string
	beforeHash [32]byte
}

// BeginRemoteEdit downloads remote to a local temp file, refusing if the
// content sniffs as binary. The caller is responsible for invoking the
// editor on TempPath and then calling FinishRemoteEdit.
func BeginRemoteEdit(ctx context.Context, remote remotefs.Filesystem, entry fsmodel.Entry) (*EditSession, error) {
	reader, err := remote.RecvFile(entry)
	if err != nil {
		return nil, err
	}
	defer remote.FinalizeRecv(reader)

	tmp, err := os.CreateTemp("", "gateway-edit-*")
	if err != nil {
		return nil, err
	}
	tempPath := tmp.Name()

	hasher := sha256.New()
	sniffed := make([]byte, 0, sniffWindow)
	buf := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			tmp.Close()
			os.Remove(tempPath)
			return nil, ctx.Err()
		default:
		}
		n, readErr := reader.Read(buf)
		if n > 0 {
			if len(sniffed) < sniffWindow {
				take := sniffWindow - len(sniffed)
				if take > n {
					take = n
				}
				sniffed = append(sniffed, buf[:take]...)
			}
			hasher.Write(buf[:n])
			if _, writeErr := tmp.Write(buf[:n]); writeErr != nil {
				tmp.Close()
				os.Remove(tempPath)
				return nil, writeErr
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			tmp.Close()
			os.Remove(tempPath)
			return nil, readErr
		}
	}
	tmp.Close()

	if IsBinary(sniffed) {
		os.Remove(tempPath)
		return nil, errBinaryFile
	}

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return &EditSession{RemotePath: entry.Path, TempPath: tempPath, beforeHash: sum}, nil
}

// FinishRemoteEdit compares the temp file's content hash against the one
// captured at BeginRemoteEdit; if unchanged it skips the re-upload
// entirely. The temp file is always removed, whether or not content
// changed (spec.md §4.8, "unconditional temp cleanup").
func FinishRemoteEdit(ctx context.Context, remote remotefs.Filesystem, session *EditSession) (changed bool, err error) {
	defer os.Remove(session.TempPath)

	content, err := os.ReadFile(session.TempPath)
	if err != nil {
		return false, err
	}
	afterHash := sha256.Sum256(content)
	if afterHash == session.beforeHash {
		return false, nil
	}

	local := fsmodel.NewFile("", session.TempPath, int64(len(content)), time.Now().UTC())
	localFS := &tempFileSource{path: session.TempPath, size: int64(len(content))}
	if err := TransferFile(ctx, localFS, remote, local, session.RemotePath, nil); err != nil {
		return true, err
	}
	return true, nil
}

// tempFileSource is a minimal remotefs.Filesystem adapter so the temp
// edit file can flow through the same TransferFile path as any other
// upload, instead of duplicating the chunked-write loop here.
type tempFileSource struct {
	path string
	size int64
}

func (t *tempFileSource) Connect(string, int, string, string) (string, error) { return "", nil }
func (t *tempFileSource) Disconnect() error                                   { return nil }
func (t *tempFileSource) IsConnected() bool                                   { return true }
func (t *tempFileSource) Pwd() (string, error)                                { return "/", nil }
func (t *tempFileSource) ChangeDir(string) (string, error)                    { return "/", nil }
func (t *tempFileSource) ListDir(string) ([]fsmodel.Entry, error)             { return nil, nil }
func (t *tempFileSource) Mkdir(string) error                                  { return nil }
func (t *tempFileSource) Remove(fsmodel.Entry) error                         { return nil }
func (t *tempFileSource) Rename(fsmodel.Entry, string) error                 { return nil }
func (t *tempFileSource) Stat(string) (fsmodel.Entry, error)                 { return fsmodel.Entry{}, nil }
func (t *tempFileSource) SendFile(fsmodel.Entry, string) (remotefs.WriteStream, error) {
	return nil, errNotSupported
}
func (t *tempFileSource) RecvFile(fsmodel.Entry) (remotefs.ReadStream, error) {
	return os.Open(t.path)
}
func (t *tempFileSource) FinalizeSent(remotefs.WriteStream) error { return nil }
func (t *tempFileSource) FinalizeRecv(stream remotefs.ReadStream) error {
	if c, ok := stream.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

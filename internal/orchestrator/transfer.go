package orchestrator

import (
	"context"
	"io"

	"gateway/internal/ferrors"
	"gateway/internal/fsmodel"
	"gateway/internal/remotefs"
)

// chunkSize bounds a single read/write call during a transfer, so a
// progress callback fires at a steady cadence regardless of file size
// (spec.md §4.6).
const chunkSize = 65536

// TransferDirection distinguishes which pane is the source.
type TransferDirection int

const (
	DirectionUpload TransferDirection = iota
	DirectionDownload
)

// ProgressFunc is called after every chunk with the cumulative bytes
// transferred and the entry's total size. Implementations must not block
// for long, since it runs on the transfer's own goroutine.
type ProgressFunc func(transferred, total int64)

// TransferFile copies a single file between src and dst, in chunkSize
// pieces, invoking onProgress after each chunk and checking ctx for
// cooperative cancellation between chunks (spec.md §4.6, "transfers are
// abortable between chunks, not mid-chunk").
func TransferFile(ctx context.Context, src, dst remotefs.Filesystem, entry fsmodel.Entry, dstPath string, onProgress ProgressFunc) error {
	reader, err := src.RecvFile(entry)
	if err != nil {
		return err
	}
	defer src.FinalizeRecv(reader)

	writer, err := dst.SendFile(entry, dstPath)
	if err != nil {
		return err
	}

	var transferred int64
	buf := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			dst.FinalizeSent(writer)
			return ctx.Err()
		default:
		}

		n, readErr := reader.Read(buf)
		if n > 0 {
			if _, writeErr := writer.Write(buf[:n]); writeErr != nil {
				dst.FinalizeSent(writer)
				return ferrors.Wrap(ferrors.IoErr, writeErr)
			}
			transferred += int64(n)
			if onProgress != nil {
				onProgress(clampProgress(transferred, entry.Size), entry.Size)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			dst.FinalizeSent(writer)
			return ferrors.Wrap(ferrors.IoErr, readErr)
		}
	}

	return dst.FinalizeSent(writer)
}

// clampProgress keeps a reported transferred count from exceeding total,
// which a backend that over-reports length (or a total of 0 for a
// zero-byte file) could otherwise produce (spec.md §4.6 testable property).
func clampProgress(transferred, total int64) int64 {
	if transferred < 0 {
		return 0
	}
	if total >= 0 && transferred > total {
		return total
	}
	return transferred
}

// TransferDirectory recursively copies every entry under src's dir,
// mirroring the tree at dstDir, and returns the first error encountered;
// it does not roll back partially transferred files (matching the
// contract's Remove semantics, spec.md §4.7's "no rollback" invariant
// extended to transfers in DESIGN.md's open-question decisions).
func TransferDirectory(ctx context.Context, src, dst remotefs.Filesystem, dir fsmodel.Entry, dstDir string, onProgress ProgressFunc) error {
	// Mkdir's failure mode for "already exists" isn't uniform across
	// backends, so it is ignored here; a real failure to create the
	// directory surfaces later as a ListDir/SendFile error on its
	// children instead.
	_ = dst.Mkdir(dstDir)
	children, err := src.ListDir(dir.Path)
	if err != nil {
		return err
	}
	for _, child := range children {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		childDst := dstDir + "/" + child.Name
		if child.Kind == fsmodel.KindDirectory && !child.IsSymlink() {
			if err := TransferDirectory(ctx, src, dst, child, childDst, onProgress); err != nil {
				return err
			}
			continue
		}
		if err := TransferFile(ctx, src, dst, child, childDst, onProgress); err != nil {
			return err
		}
	}
	return nil
}

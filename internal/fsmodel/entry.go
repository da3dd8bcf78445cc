// Package fsmodel provides the unified representation of directory entries
// shared by every local and remote filesystem backend.
package fsmodel

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Kind discriminates the two shapes an Entry can take.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Permissions is the POSIX user/group/other read-write-execute triple.
// A nil *Permissions on an Entry means the backend could not determine it
// (e.g. an FTP server that doesn't expose mode bits).
type Permissions struct {
	User  Triple
	Group Triple
	Other Triple
}

// Triple is one read/write/execute class of a POSIX mode.
type Triple struct {
	Read    bool
	Write   bool
	Execute bool
}

func (t Triple) String() string {
	var b strings.Builder
	writeBit(&b, t.Read, 'r')
	writeBit(&b, t.Write, 'w')
	writeBit(&b, t.Execute, 'x')
	return b.String()
}

func writeBit(b *strings.Builder, set bool, r byte) {
	if set {
		b.WriteByte(r)
	} else {
		b.WriteByte('-')
	}
}

// Entry is a discriminated directory entry: either a File or a Directory.
// Every Entry is an immutable snapshot — a listing call produces a fresh
// sequence of Entry values, never a live handle.
type Entry struct {
	Kind Kind

	// Common attributes.
	Name         string
	Path         string // absolute, forward-slash separated, normalized
	ModTime      time.Time
	CreatedTime  *time.Time
	AccessedTime *time.Time
	UID          *int
	GID          *int
	Mode         *Permissions
	SymlinkTo    string // empty if not a symlink

	// File-only attributes. Zero value for directories.
	Size int64
	Ext  string
}

// IsSymlink reports whether this entry is a symbolic link.
func (e Entry) IsSymlink() bool {
	return e.SymlinkTo != ""
}

// NewFile builds a File entry, deriving Ext from Name and normalizing Path.
func NewFile(name, absPath string, size int64, modTime time.Time) Entry {
	return Entry{
		Kind:    KindFile,
		Name:    name,
		Path:    Normalize(absPath),
		ModTime: modTime,
		Size:    size,
		Ext:     extOf(name),
	}
}

// NewDirectory builds a Directory entry with a normalized Path.
func NewDirectory(name, absPath string, modTime time.Time) Entry {
	return Entry{
		Kind:    KindDirectory,
		Name:    name,
		Path:    Normalize(absPath),
		ModTime: modTime,
	}
}

func extOf(name string) string {
	ext := path.Ext(name)
	return strings.TrimPrefix(ext, ".")
}

// Normalize forces forward slashes and removes "." / ".." components,
// matching the contract invariant that every path is absolute and
// normalized on the wire, even on Windows locals (spec.md §3).
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return "/"
	}
	absolute := strings.HasPrefix(p, "/")
	segments := strings.Split(p, "/")
	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(cleaned) > 0 {
				cleaned = cleaned[:len(cleaned)-1]
			}
		default:
			cleaned = append(cleaned, seg)
		}
	}
	joined := strings.Join(cleaned, "/")
	if absolute {
		return "/" + joined
	}
	return joined
}

// String renders the entry the way a long directory listing would, used
// by the orchestrator's message log and info popups.
func (e Entry) String() string {
	mode := modeString(e)
	size := "-"
	if e.Kind == KindFile {
		size = fmt.Sprintf("%d", e.Size)
	}
	name := e.Name
	if e.IsSymlink() {
		name = fmt.Sprintf("%s -> %s", name, e.SymlinkTo)
	}
	return fmt.Sprintf("%s %10s %s %s", mode, size, e.ModTime.UTC().Format("Jan 02 2006 15:04"), name)
}

func modeString(e Entry) string {
	var b strings.Builder
	switch {
	case e.IsSymlink():
		b.WriteByte('l')
	case e.Kind == KindDirectory:
		b.WriteByte('d')
	default:
		b.WriteByte('-')
	}
	if e.Mode == nil {
		b.WriteString("?????????")
		return b.String()
	}
	b.WriteString(e.Mode.User.String())
	b.WriteString(e.Mode.Group.String())
	b.WriteString(e.Mode.Other.String())
	return b.String()
}

// Package bookmarks persists named connection shortcuts and a bounded
// recent-connections list as TOML, with passwords sealed at rest via
// internal/seal (spec.md §5).
package bookmarks

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"gateway/internal/ferrors"
	"gateway/internal/seal"
)

// maxRecent bounds the recent-connections list; the oldest entry is
// evicted once a new connection would push the list past this size
// (spec.md §5.3).
const maxRecent = 16

// Bookmark is one named connection shortcut. Password, if present, is
// sealed ciphertext, never plaintext.
type Bookmark struct {
	Protocol string `toml:"protocol"`
	Address  string `toml:"address"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password,omitempty"`
}

// RecentEntry is one entry of the bounded recent-connections list,
// ordered most-recent-first.
type RecentEntry struct {
	Protocol    string    `toml:"protocol"`
	Address     string    `toml:"address"`
	Port        int       `toml:"port"`
	Username    string    `toml:"username"`
	ConnectedAt time.Time `toml:"connected_at"`
}

// catalogFile is the on-disk TOML shape.
type catalogFile struct {
	Bookmarks map[string]Bookmark `toml:"bookmarks"`
	Recent    []RecentEntry       `toml:"recent"`
}

// Catalog is the in-memory bookmark store, loaded from and persisted to a
// single TOML file.
type Catalog struct {
	path      string
	keyring   *seal.Keyring
	bookmarks map[string]Bookmark
	recent    []RecentEntry
}

// Open loads the catalog at path, treating a missing file as an empty
// catalog (spec.md §5.1). keyring seals and unseals bookmark passwords.
func Open(path string, keyring *seal.Keyring) (*Catalog, error) {
	c := &Catalog{
		path:      path,
		keyring:   keyring,
		bookmarks: make(map[string]Bookmark),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, ferrors.Wrap(ferrors.IoErr, err)
	}

	var file catalogFile
	if _, err := toml.Decode(string(raw), &file); err != nil {
		return nil, ferrors.Wrap(ferrors.InvalidFormat, err)
	}
	if file.Bookmarks != nil {
		c.bookmarks = file.Bookmarks
	}
	c.recent = file.Recent
	return c, nil
}

// Get returns the named bookmark with its password unsealed, if it has
// one.
func (c *Catalog) Get(name string) (Bookmark, bool, error) {
	b, ok := c.bookmarks[name]
	if !ok {
		return Bookmark{}, false, nil
	}
	if b.Password != "" {
		plain, err := c.keyring.Unseal(b.Password)
		if err != nil {
			return Bookmark{}, false, err
		}
		b.Password = plain
	}
	return b, true, nil
}

// Upsert creates or replaces the named bookmark. password is sealed
// before storage; pass empty to store no password.
func (c *Catalog) Upsert(name string, b Bookmark, password string) error {
	if password != "" {
		sealed, err := c.keyring.Seal(password)
		if err != nil {
			return err
		}
		b.Password = sealed
	} else {
		b.Password = ""
	}
	c.bookmarks[name] = b
	return nil
}

// Remove deletes the named bookmark. Removing an absent name is a no-op.
func (c *Catalog) Remove(name string) {
	delete(c.bookmarks, name)
}

// ListBookmarks returns the catalog's bookmark names.
func (c *Catalog) ListBookmarks() []string {
	names := make([]string, 0, len(c.bookmarks))
	for name := range c.bookmarks {
		names = append(names, name)
	}
	return names
}

// ListRecent returns the recent-connections list, most-recent-first.
func (c *Catalog) ListRecent() []RecentEntry {
	out := make([]RecentEntry, len(c.recent))
	copy(out, c.recent)
	return out
}

// PushRecent records a successful connection, deduplicating by
// (protocol, address, port, username): an existing matching entry is
// removed and reinserted at the front rather than duplicated, then the
// list is truncated to maxRecent entries (spec.md §5.3).
func (c *Catalog) PushRecent(entry RecentEntry) {
	filtered := c.recent[:0:0]
	for _, existing := range c.recent {
		if sameConnection(existing, entry) {
			continue
		}
		filtered = append(filtered, existing)
	}
	c.recent = append([]RecentEntry{entry}, filtered...)
	if len(c.recent) > maxRecent {
		c.recent = c.recent[:maxRecent]
	}
}

func sameConnection(a, b RecentEntry) bool {
	return a.Protocol == b.Protocol && a.Address == b.Address &&
		a.Port == b.Port && a.Username == b.Username
}

// Save persists the catalog atomically: it writes to a temp file in the
// same directory, then renames over the destination, so a crash mid-write
// never leaves a truncated catalog on disk.
func (c *Catalog) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}

	file := catalogFile{Bookmarks: c.bookmarks, Recent: c.recent}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".bookmarks-*.tmp")
	if err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(file); err != nil {
		tmp.Close()
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	if err := tmp.Close(); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return ferrors.Wrap(ferrors.IoErr, err)
	}
	return nil
}

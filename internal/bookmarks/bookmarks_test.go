package bookmarks

import (
	"path/filepath"
	"testing"
	"time"

	"gateway/internal/seal"
)

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	dir := t.TempDir()
	kr, err := seal.Load(filepath.Join(dir, "seal.key"))
	if err != nil {
		t.Fatalf("seal.Load() error = %v", err)
	}
	path := filepath.Join(dir, "bookmarks.toml")
	cat, err := Open(path, kr)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return cat, path
}

func TestOpenMissingFileIsEmptyCatalog(t *testing.T) {
	cat, _ := newTestCatalog(t)
	if len(cat.ListBookmarks()) != 0 {
		t.Errorf("ListBookmarks() = %v, want empty", cat.ListBookmarks())
	}
	if len(cat.ListRecent()) != 0 {
		t.Errorf("ListRecent() = %v, want empty", cat.ListRecent())
	}
}

func TestUpsertGetRoundTripsPassword(t *testing.T) {
	cat, _ := newTestCatalog(t)
	err := cat.Upsert("prod", Bookmark{
		Protocol: "sftp",
		Address:  "example.com",
		Port:     22,
		Username: "deploy",
	}, "s3cret")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, ok, err := cat.Get("prod")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatalf("Get() ok = false, want true")
	}
	if got.Password != "s3cret" {
		t.Errorf("Get().Password = %q, want %q", got.Password, "s3cret")
	}
}

func TestSavePersistsAcrossOpen(t *testing.T) {
	cat, path := newTestCatalog(t)
	if err := cat.Upsert("home", Bookmark{Protocol: "ftp", Address: "10.0.0.1", Port: 21, Username: "anon"}, ""); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := cat.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	kr2, err := seal.Load(filepath.Join(filepath.Dir(path), "seal.key"))
	if err != nil {
		t.Fatalf("seal.Load() error = %v", err)
	}
	reopened, err := Open(path, kr2)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	names := reopened.ListBookmarks()
	if len(names) != 1 || names[0] != "home" {
		t.Errorf("ListBookmarks() = %v, want [home]", names)
	}
}

func TestRemoveAbsentNameIsNoOp(t *testing.T) {
	cat, _ := newTestCatalog(t)
	cat.Remove("does-not-exist")
	if len(cat.ListBookmarks()) != 0 {
		t.Errorf("ListBookmarks() = %v, want empty", cat.ListBookmarks())
	}
}

func TestPushRecentDedupsAndReordersToFront(t *testing.T) {
	cat, _ := newTestCatalog(t)
	base := RecentEntry{Protocol: "sftp", Address: "a.example.com", Port: 22, Username: "u"}
	cat.PushRecent(withTime(base, 1))
	cat.PushRecent(RecentEntry{Protocol: "ftp", Address: "b.example.com", Port: 21, Username: "v", ConnectedAt: epoch(2)})
	cat.PushRecent(withTime(base, 3)) // same connection as the first push

	recent := cat.ListRecent()
	if len(recent) != 2 {
		t.Fatalf("len(ListRecent()) = %d, want 2 (dedup should collapse repeat connection)", len(recent))
	}
	if recent[0].Address != "a.example.com" {
		t.Errorf("ListRecent()[0].Address = %q, want most-recently-reconnected entry first", recent[0].Address)
	}
}

func TestPushRecentBoundedAtMax(t *testing.T) {
	cat, _ := newTestCatalog(t)
	for i := 0; i < maxRecent+5; i++ {
		cat.PushRecent(RecentEntry{
			Protocol:    "sftp",
			Address:     "host",
			Port:        22,
			Username:    "user" + string(rune('a'+i%26)),
			ConnectedAt: epoch(i),
		})
	}
	if len(cat.ListRecent()) != maxRecent {
		t.Errorf("len(ListRecent()) = %d, want %d", len(cat.ListRecent()), maxRecent)
	}
}

func withTime(e RecentEntry, offsetSeconds int) RecentEntry {
	e.ConnectedAt = epoch(offsetSeconds)
	return e
}

func epoch(offsetSeconds int) time.Time {
	return time.Unix(int64(offsetSeconds), 0).UTC()
}

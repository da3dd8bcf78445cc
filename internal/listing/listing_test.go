package listing

import (
	"testing"
	"time"

	"gateway/internal/fsmodel"
)

func TestParseRegularFile(t *testing.T) {
	raw := "-rw-r--r-- 1 user group 1234 Jan 15 2023 notes.txt"
	entries := Parse("/home/user", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "notes.txt" {
		t.Errorf("Name = %q, want %q", e.Name, "notes.txt")
	}
	if e.Size != 1234 {
		t.Errorf("Size = %d, want 1234", e.Size)
	}
	if e.Path != "/home/user/notes.txt" {
		t.Errorf("Path = %q, want %q", e.Path, "/home/user/notes.txt")
	}
	if e.ModTime.Year() != 2023 || e.ModTime.Month() != time.January || e.ModTime.Day() != 15 {
		t.Errorf("ModTime = %v, want Jan 15 2023", e.ModTime)
	}
}

func TestParseDirectory(t *testing.T) {
	raw := "drwxr-xr-x 2 user group 4096 Mar 02 10:15 subdir"
	entries := Parse("/srv", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Kind != fsmodel.KindDirectory {
		t.Errorf("Kind = %v, want directory", entries[0].Kind)
	}
	if entries[0].Path != "/srv/subdir" {
		t.Errorf("Path = %q, want /srv/subdir", entries[0].Path)
	}
}

func TestParseSymlink(t *testing.T) {
	raw := "lrwxrwxrwx 1 user group 9 Jun 01 2022 shortcut -> /srv/target"
	entries := Parse("/srv", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "shortcut" {
		t.Errorf("Name = %q, want %q", e.Name, "shortcut")
	}
	if e.SymlinkTo != "/srv/target" {
		t.Errorf("SymlinkTo = %q, want %q", e.SymlinkTo, "/srv/target")
	}
}

func TestParseMissingGroupColumn(t *testing.T) {
	raw := "-rw-r--r-- 1 user 512 Apr 09 2021 noGroup.dat"
	entries := Parse("/x", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Size != 512 {
		t.Errorf("Size = %d, want 512", entries[0].Size)
	}
}

func TestParseSkipsDotEntries(t *testing.T) {
	raw := "drwxr-xr-x 2 user group 4096 Jan 01 2020 .\n" +
		"drwxr-xr-x 2 user group 4096 Jan 01 2020 ..\n" +
		"-rw-r--r-- 1 user group 10 Jan 01 2020 real.txt"
	entries := Parse("/x", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1 (dot entries filtered)", len(entries))
	}
	if entries[0].Name != "real.txt" {
		t.Errorf("Name = %q, want %q", entries[0].Name, "real.txt")
	}
}

func TestParseSkipsTotalLine(t *testing.T) {
	raw := "total 12\n-rw-r--r-- 1 user group 10 Jan 01 2020 file.txt"
	entries := Parse("/x", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
}

func TestParseUnknownDateFallsBackToEpoch(t *testing.T) {
	raw := "-rw-r--r-- 1 user group 10 Xyz 99 bogus file.txt"
	entries := Parse("/x", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if !entries[0].ModTime.Equal(time.Unix(0, 0).UTC()) {
		t.Errorf("ModTime = %v, want epoch", entries[0].ModTime)
	}
}

func TestParseNamesWithSpaces(t *testing.T) {
	raw := "-rw-r--r-- 1 user group 10 Jan 01 2020 my report final.pdf"
	entries := Parse("/x", raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Name != "my report final.pdf" {
		t.Errorf("Name = %q, want %q", entries[0].Name, "my report final.pdf")
	}
}

package fsmodel

import (
	"testing"
	"time"
)

func timeZero() time.Time { return time.Time{} }

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/abs/path", "/abs/path"},
		{"/abs/../path", "/path"},
		{"/abs/./path", "/abs/path"},
		{"/a/b/../../c", "/c"},
		{"", "/"},
		{"/", "/"},
		{`C:\foo\bar`, "/C:/foo/bar"},
	}
	for _, tc := range cases {
		got := Normalize(tc.in)
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTripleString(t *testing.T) {
	tr := Triple{Read: true, Write: false, Execute: true}
	if got := tr.String(); got != "r-x" {
		t.Errorf("Triple.String() = %q, want %q", got, "r-x")
	}
}

func TestNewFileDerivesExt(t *testing.T) {
	e := NewFile("archive.tar.gz", "/home/user/archive.tar.gz", 10, timeZero())
	if e.Ext != "gz" {
		t.Errorf("Ext = %q, want %q", e.Ext, "gz")
	}
	if e.Kind != KindFile {
		t.Errorf("Kind = %v, want KindFile", e.Kind)
	}
}

func TestEntryStringSymlink(t *testing.T) {
	e := NewFile("link", "/home/user/link", 0, timeZero())
	e.SymlinkTo = "/home/user/target"
	s := e.String()
	if want := "link -> /home/user/target"; !contains(s, want) {
		t.Errorf("String() = %q, want to contain %q", s, want)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}

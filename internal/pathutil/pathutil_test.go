package pathutil

import "testing"

func TestResolve(t *testing.T) {
	cases := []struct {
		cwd, p, want string
	}{
		{"/home/user", "", "/home/user"},
		{"/home/user", ".", "/home/user"},
		{"/home/user", "foo", "/home/user/foo"},
		{"/home/user", "../foo", "/home/foo"},
		{"/home/user", "/abs/path", "/abs/path"},
	}
	for _, tc := range cases {
		got := Resolve(tc.cwd, tc.p)
		if got != tc.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tc.cwd, tc.p, got, tc.want)
		}
	}
}

func TestParseAddressDefaults(t *testing.T) {
	addr, err := ParseAddress("example.com")
	if err != nil {
		t.Fatalf("ParseAddress() error = %v", err)
	}
	if addr.Protocol != "sftp" {
		t.Errorf("Protocol = %q, want sftp", addr.Protocol)
	}
	if addr.Port != 22 {
		t.Errorf("Port = %d, want 22", addr.Port)
	}
	if addr.Username == "" {
		t.Errorf("Username = %q, want current OS user", addr.Username)
	}
}

func TestParseAddressFull(t *testing.T) {
	addr, err := ParseAddress("ftps://alice@files.example.com:2121")
	if err != nil {
		t.Fatalf("ParseAddress() error = %v", err)
	}
	if addr.Protocol != "ftps" {
		t.Errorf("Protocol = %q, want ftps", addr.Protocol)
	}
	if addr.Username != "alice" {
		t.Errorf("Username = %q, want alice", addr.Username)
	}
	if addr.Host != "files.example.com" {
		t.Errorf("Host = %q, want files.example.com", addr.Host)
	}
	if addr.Port != 2121 {
		t.Errorf("Port = %d, want 2121", addr.Port)
	}
}

func TestParseAddressDefaultPortPerProtocol(t *testing.T) {
	addr, err := ParseAddress("ftp://anon@ftp.example.com")
	if err != nil {
		t.Fatalf("ParseAddress() error = %v", err)
	}
	if addr.Port != 21 {
		t.Errorf("Port = %d, want 21", addr.Port)
	}
}

func TestParseAddressRejectsUnknownProtocol(t *testing.T) {
	if _, err := ParseAddress("gopher://example.com"); err == nil {
		t.Errorf("ParseAddress(gopher://...) error = nil, want BadAddress")
	}
}

func TestParseAddressRejectsBadPort(t *testing.T) {
	if _, err := ParseAddress("example.com:notaport"); err == nil {
		t.Errorf("ParseAddress() error = nil, want BadAddress")
	}
}

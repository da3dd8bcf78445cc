package ferrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesDirectError(t *testing.T) {
	err := New(NoSuchFile)
	if !Is(err, NoSuchFile) {
		t.Errorf("Is(NoSuchFile) = false, want true")
	}
	if Is(err, ProtocolError) {
		t.Errorf("Is(ProtocolError) = true, want false")
	}
}

func TestIsUnwrapsWrapped(t *testing.T) {
	inner := New(ConnectionError)
	wrapped := fmt.Errorf("dial failed: %w", inner)
	if !Is(wrapped, ConnectionError) {
		t.Errorf("Is did not unwrap to ConnectionError")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(IoErr, cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is did not find the wrapped cause")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := Newf(FileCreateDenied, "path %q exists", "/tmp/x")
	want := `failed to create file: path "/tmp/x" exists`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

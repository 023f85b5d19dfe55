//go:build !statsview

package statsview

import (
	"bytes"
	"testing"
)

func TestStubIsSilent(t *testing.T) {
	if Available() {
		t.Fatal("expected no stats server without the build tag")
	}

	var buf bytes.Buffer
	Launch(&buf)
	Stop()
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

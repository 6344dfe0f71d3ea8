//go:build unix

package mmfile

import (
	"testing"
)

func TestMapAnonUnix(t *testing.T) {
	data, cleanup, err := MapAnon(3 * 4096)
	if err != nil {
		t.Fatalf("MapAnon: %v", err)
	}
	defer func() {
		if cleanupErr := cleanup(); cleanupErr != nil {
			t.Fatalf("cleanup: %v", cleanupErr)
		}
	}()
	if len(data) != 3*4096 {
		t.Fatalf("len mismatch: got %d want %d", len(data), 3*4096)
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: 0x%x", i, b)
		}
	}
	data[0] = 0xde
	data[len(data)-1] = 0xef
	if data[0] != 0xde || data[len(data)-1] != 0xef {
		t.Fatalf("mapping is not writable")
	}
}

func TestMapAnonUnixDoubleCleanup(t *testing.T) {
	_, cleanup, err := MapAnon(4096)
	if err != nil {
		t.Fatalf("MapAnon: %v", err)
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if err := cleanup(); err != nil {
		t.Fatalf("second cleanup should be a no-op, got %v", err)
	}
}

func TestMapAnonRejectsZero(t *testing.T) {
	if _, _, err := MapAnon(0); err == nil {
		t.Fatalf("expected error for zero-length mapping")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

// resetFlags restores the global flags to their defaults with the heap
// allocator, and restores them again when the test ends.
func resetFlags(t *testing.T) {
	t.Helper()
	set := func() {
		verbose, quiet, jsonOut = false, false, false
		allocatorKind, arenaSize, logDir = "heap", "1MiB", ""
		fillType, fillLength, fillValue, fillMultiplier = "int32", 1003, 7, 3
		segmentsLength, segmentsElemSize = 10, 1
		stressWorkers, stressRounds, stressLength = 4, 20, 256
		statsKeep = 1
	}
	set()
	t.Cleanup(set)
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		defer close(done)
		_, _ = buf.ReadFrom(r)
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	<-done
	r.Close()

	return buf.String(), fnErr
}

// decodeJSON unmarshals captured output into v
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

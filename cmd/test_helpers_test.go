package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
)

// captureOutput swaps os.Stdout and os.Stderr for pipes while f runs.
// Pipes are drained concurrently so large outputs cannot block f.
func captureOutput(f func()) (stdout, stderr string) {
	origOut, origErr := os.Stdout, os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout, os.Stderr = wOut, wErr

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); io.Copy(&outBuf, rOut) }()
	go func() { defer wg.Done(); io.Copy(&errBuf, rErr) }()

	defer func() {
		os.Stdout, os.Stderr = origOut, origErr
	}()
	f()
	wOut.Close()
	wErr.Close()
	wg.Wait()
	rOut.Close()
	rErr.Close()
	return outBuf.String(), errBuf.String()
}

func assertContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Errorf("output missing %q:\n%s", want, output)
	}
}

func assertNotContains(t *testing.T, output, unwanted string) {
	t.Helper()
	if strings.Contains(output, unwanted) {
		t.Errorf("output unexpectedly contains %q:\n%s", unwanted, output)
	}
}

// assertErrorFormat checks for a runtime error line "muezzin: cmd[action]: msg".
func assertErrorFormat(t *testing.T, output, cmd, action string) {
	t.Helper()
	assertContains(t, output, "muezzin: "+cmd+"["+action+"]:")
}

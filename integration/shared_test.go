//go:build basic || database

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedBinaryPath holds the path to a shared churnscope binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getChurnscopeBinary returns the path to the churnscope binary, building it once if needed.
func getChurnscopeBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "churnscope-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "churnscope")
		buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/churnscope")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		out, err := buildCmd.CombinedOutput()
		if err != nil {
			panic(fmt.Sprintf("failed to build churnscope: %v\n%s", err, out))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// runChurnscope executes the CLI with the given args and returns its combined
// output. The command runs in a temp working directory so stray config files
// in the repo never leak into a test.
func runChurnscope(t *testing.T, workDir string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(getChurnscopeBinary(), args...)
	cmd.Dir = workDir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	t.Logf("churnscope %v:\n%s", args, buf.String())
	return buf.String(), err
}

// Package shared contains testing utilities shared between integration tests.
// It provides common functions for setting up test projects, stubbing the
// sops binary, and capturing command output.
package shared

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/JinxCappa/SOPSie/cmd"
	"github.com/JinxCappa/SOPSie/internal/audit"
	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

// Envelope is the sops marker content the stub binary writes.
const Envelope = "ENC[AES256_GCM,data:stub,iv:stub,tag:stub,type:str]\n"

// TestRules is a minimal .sops.yaml governing secrets/*.yaml.
const TestRules = `creation_rules:
  - path_regex: secrets/.*\.yaml$
`

// SetupProject creates a governed project in a temp directory, changes
// into it, and restores everything on cleanup. It returns the project
// root.
func SetupProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".sops.yaml"), []byte(TestRules), 0600); err != nil {
		t.Fatalf("Failed to write .sops.yaml: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "secrets"), 0755); err != nil {
		t.Fatalf("Failed to create secrets dir: %v", err)
	}

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatalf("Failed to change to project directory: %v", err)
	}

	originalAuditRoot := audit.ProjectRoot
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to restore working directory: %v", err)
		}
		audit.ProjectRoot = originalAuditRoot
		cmd.ResetGlobalState()
	})

	// Point the user config and ephemeral store away from the real home.
	t.Setenv("SOPSIE_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("TMPDIR", t.TempDir())

	return root
}

// StubSops writes an executable fake sops that rewrites files for
// --in-place calls and prints to stdout otherwise, then points the
// config at it via a pre-written settings file.
func StubSops(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sops")
	script := `#!/bin/sh
mode=""
inplace=0
for arg in "$@"; do
  case "$arg" in
    --encrypt) mode=encrypt ;;
    --decrypt) mode=decrypt ;;
    --in-place) inplace=1 ;;
    --rotate|updatekeys) mode=keep ;;
  esac
  target="$arg"
done
envelope='ENC[AES256_GCM,data:stub,iv:stub,tag:stub,type:str]'
case "$mode" in
  encrypt)
    if [ "$inplace" = 1 ]; then printf '%s\n' "$envelope" > "$target"; else printf '%s\n' "$envelope"; fi ;;
  decrypt)
    if [ "$inplace" = 1 ]; then printf 'plain: stub\n' > "$target"; else printf 'plain: stub\n'; fi ;;
esac
exit 0
`
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write stub sops: %v", err)
	}

	config := "[sops]\nbinary = \"" + path + "\"\n"
	if err := os.WriteFile(os.Getenv("SOPSIE_CONFIG"), []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return path
}

// WriteGoverned writes a governed file and returns its path.
func WriteGoverned(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, "secrets", name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// RunCommand executes the root command with args and captures stdout
// and stderr.
func RunCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	originalStdout := os.Stdout
	originalStderr := os.Stderr

	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = writer
	os.Stderr = writer

	outputChan := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, reader)
		outputChan <- buf.String()
	}()

	root := cmd.GetRootCmd()
	root.SetArgs(args)
	cmd.SetLogger(logger.Logger{})
	runErr := root.Execute()

	writer.Close()
	os.Stdout = originalStdout
	os.Stderr = originalStderr
	output := <-outputChan

	return output, runErr
}

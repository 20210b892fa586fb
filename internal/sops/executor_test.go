package sops

import (
	"context"
	"errors"
	"testing"
	"time"

	serrors "github.com/JinxCappa/SOPSie/internal/errors"
	logger "github.com/JinxCappa/SOPSie/internal/logging"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"secrets.yaml", "yaml"},
		{"secrets.yml", "yaml"},
		{"config.json", "json"},
		{"app.env", "dotenv"},
		{".env", "dotenv"},
		{".env.local", "dotenv"},
		{"settings.ini", "ini"},
		{"blob.bin", "binary"},
		{"Makefile", "binary"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got := FormatForPath(tc.path)
			if got != tc.want {
				t.Errorf("FormatForPath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestClassifyStderr(t *testing.T) {
	exec := NewExecutor("sops", time.Second, logger.Logger{})

	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"ConfigNotFound", "config file not found, or has no creation rules", serrors.ErrConfigNotFound},
		{"NoCreationRules", "error: no matching creation rules found", serrors.ErrConfigNotFound},
		{"ConfigParse", "error loading config: yaml: line 3", serrors.ErrConfigParse},
		{"KeyAccess", "Failed to get the data key required to decrypt the SOPS file", serrors.ErrKeyAccessDenied},
		{"NoKey", "no key could be obtained from any of the key services", serrors.ErrKeyAccessDenied},
		{"NotSops", "sops metadata not found", serrors.ErrInvalidFile},
		{"Fallback", "something exploded", serrors.ErrDecryptionFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := &runError{err: errors.New("exit status 1"), stderr: tc.stderr}
			got := exec.classify(raw, serrors.ErrDecryptionFailed)
			if !errors.Is(got, tc.want) {
				t.Errorf("classify(%q) = %v, want kind %v", tc.stderr, got, tc.want)
			}

			var cmdErr *serrors.CommandError
			if !errors.As(got, &cmdErr) {
				t.Fatalf("Expected CommandError, got %T", got)
			}
			if cmdErr.Details != tc.stderr {
				t.Errorf("Expected stderr preserved in Details, got %q", cmdErr.Details)
			}
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	exec := NewExecutor("sops", time.Second, logger.Logger{})
	raw := &runError{err: errors.New("signal: terminated"), stderr: "", timedOut: true}

	got := exec.classify(raw, serrors.ErrDecryptionFailed)
	if !errors.Is(got, serrors.ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", got)
	}
}

func TestDecryptBinaryNotFound(t *testing.T) {
	exec := NewExecutor("sops-binary-that-does-not-exist", time.Second, logger.Logger{})

	_, err := exec.Decrypt(context.Background(), "secrets.yaml")
	if !errors.Is(err, serrors.ErrCliNotFound) {
		t.Errorf("Expected ErrCliNotFound, got %v", err)
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess timeout test in short mode")
	}

	exec := NewExecutor("sleep", 50*time.Millisecond, logger.Logger{})

	start := time.Now()
	_, err := exec.run(context.Background(), nil, "5")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected error from timed-out process")
	}
	var raw *runError
	if !errors.As(err, &raw) || !raw.timedOut {
		t.Errorf("Expected timedOut runError, got %v", err)
	}
	if elapsed > 4*time.Second {
		t.Errorf("Process was not terminated promptly, took %s", elapsed)
	}
}

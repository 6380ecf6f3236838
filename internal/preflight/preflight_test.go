package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"livelens/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("Work directory", dir); !result.Passed {
		t.Fatalf("expected pass for %s: %+v", dir, result)
	}

	missing := filepath.Join(dir, "missing")
	if result := CheckDirectoryAccess("Work directory", missing); result.Passed {
		t.Fatal("expected failure for missing directory")
	}

	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if result := CheckDirectoryAccess("Work directory", file); result.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckAPIKey(t *testing.T) {
	if result := CheckAPIKey(config.OpenAI{APIKey: "sk-test"}); !result.Passed {
		t.Fatalf("expected pass: %+v", result)
	}
	if result := CheckAPIKey(config.OpenAI{APIKey: "  "}); result.Passed {
		t.Fatal("expected failure for blank key")
	}
}

func TestFailures(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false},
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("Failures = %+v", failed)
	}
}

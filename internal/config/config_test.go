package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " Done , Closed,,Resolved ")
	got := getEnvList("TEST_LIST", "")
	want := []string{"Done", "Closed", "Resolved"}
	if len(got) != len(want) {
		t.Fatalf("getEnvList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("getEnvList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetEnvListFallback(t *testing.T) {
	os.Unsetenv("TEST_LIST_MISSING")
	got := getEnvList("TEST_LIST_MISSING", "A,B")
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("getEnvList fallback = %v, want [A B]", got)
	}
	if got := getEnvList("TEST_LIST_MISSING", ""); got != nil {
		t.Errorf("Empty fallback should yield nil, got %v", got)
	}
}

func TestLoadTaxonomyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	content := `{"OPS": {"done": ["Deployed"], "ignored": ["Wontfix"]}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	overrides, err := loadTaxonomyOverrides(path)
	if err != nil {
		t.Fatalf("loadTaxonomyOverrides: %v", err)
	}
	ops, ok := overrides["OPS"]
	if !ok {
		t.Fatal("OPS override missing")
	}
	if len(ops.Done) != 1 || ops.Done[0] != "Deployed" {
		t.Errorf("Done = %v, want [Deployed]", ops.Done)
	}
	if len(ops.Initial) != 0 {
		t.Errorf("Initial should be empty, got %v", ops.Initial)
	}
}

func TestLoadTaxonomyOverridesBadFile(t *testing.T) {
	if _, err := loadTaxonomyOverrides(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadTaxonomyOverrides(path); err == nil {
		t.Error("Expected an error for invalid JSON")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.Analysis.TrailingWeeks != 4 {
		t.Errorf("TrailingWeeks = %d, want 4", cfg.Analysis.TrailingWeeks)
	}
	if len(cfg.Analysis.Taxonomy.Done) == 0 {
		t.Error("Default done statuses missing")
	}
}

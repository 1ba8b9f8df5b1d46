package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zoterharvest/internal/domain"
)

func TestCache_WriteRecord_CreatesGroupSubdirAndAppends(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(Config{OutputDir: dir, OutputFilename: "out.txt"})

	group := &domain.GroupParams{Name: "testgroup", OutputSubdir: "sub"}
	catalog := domain.CatalogRecord{ID: "testgroup#2024-03-15#abc", Title: "A Study"}

	if err := cache.WriteRecord(group, catalog); err != nil {
		t.Fatalf("write 1: %v", err)
	}
	catalog.ID = "testgroup#2024-03-15#def"
	catalog.Title = "Another Study"
	if err := cache.WriteRecord(group, catalog); err != nil {
		t.Fatalf("write 2: %v", err)
	}
	if err := cache.CloseAll(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, "sub", "out.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "A Study") || !strings.Contains(content, "Another Study") {
		t.Errorf("missing expected records: %s", content)
	}
}

func TestSerialize_OmitsEmptyFields(t *testing.T) {
	out := Serialize(domain.CatalogRecord{ID: "g#2024-01-01#x"})
	if strings.Contains(out, "520 ") {
		t.Error("expected no abstract line for empty abstract")
	}
	if !strings.Contains(out, "001 g#2024-01-01#x") {
		t.Errorf("expected id line, got: %s", out)
	}
}

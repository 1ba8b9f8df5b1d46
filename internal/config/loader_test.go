package config

import (
	"os"
	"path/filepath"
	"testing"

	"zoterharvest/internal/domain"
)

const sampleINI = `
[global]
translation_server_url = http://translate.local:1969
delay_default = 2s
delay_max = 30s
suppress_filters = abstractNote:^TODO

[TestGroup]
user_agent = harvester/1.0
isil = DE-Test
output_subdir = testgroup
author_lookup_url = http://gnd.local/lookup

[Hello Journal]
zeder_id = 1
group = TestGroup
entry_url = https://example.org/article/1
harvester_operation = DIRECT
upload_operation = LIVE
online_issn = 1234-5678
online_ppn = 100000001
zotero_exclude_filters = itemType:attachment
catalog_fields_to_add = SSG=0
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "harvester.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFile_ParsesGlobalGroupAndJournal(t *testing.T) {
	path := writeTempConfig(t, sampleINI)

	loaded, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if loaded.Global.TranslationServerURL != "http://translate.local:1969" {
		t.Errorf("translation url = %q", loaded.Global.TranslationServerURL)
	}
	if len(loaded.Global.Metadata.SuppressFilters) != 1 {
		t.Fatalf("expected 1 global suppress filter, got %d", len(loaded.Global.Metadata.SuppressFilters))
	}

	group, ok := loaded.Groups["TestGroup"]
	if !ok {
		t.Fatal("expected TestGroup to be parsed")
	}
	if group.ISIL != "DE-Test" {
		t.Errorf("isil = %q", group.ISIL)
	}

	if len(loaded.Journals) != 1 {
		t.Fatalf("expected 1 journal, got %d", len(loaded.Journals))
	}
	j := loaded.Journals[0]
	if j.Name != "Hello Journal" || j.HarvesterOperation != domain.OpDirect {
		t.Errorf("journal parsed wrong: %+v", j)
	}
	if len(j.ZoteroMetadata.ExcludeFilters) != 1 || j.ZoteroMetadata.ExcludeFilters[0].Field != "itemType" {
		t.Errorf("zotero exclude filters wrong: %+v", j.ZoteroMetadata.ExcludeFilters)
	}
	if len(j.CatalogMetadata.FieldsToAdd) != 1 || j.CatalogMetadata.FieldsToAdd[0].Replacement != "0" {
		t.Errorf("catalog fields to add wrong: %+v", j.CatalogMetadata.FieldsToAdd)
	}
}

func TestLoadFile_UnknownGroupReferenceFails(t *testing.T) {
	path := writeTempConfig(t, `
[global]

[Hello Journal]
zeder_id = 1
group = NoSuchGroup
entry_url = https://example.org/a
harvester_operation = DIRECT
online_issn = 1-2
online_ppn = 100
`)

	_, err := LoadFile(path, "")
	if err == nil {
		t.Fatal("expected error for unknown group reference")
	}
}

func TestLoadFile_AppliesConfigOverrides(t *testing.T) {
	path := writeTempConfig(t, sampleINI)

	loaded, err := LoadFile(path, "[global]\nupload_operation = TEST\n")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Journals[0].UploadOperation != domain.UploadTest {
		t.Errorf("expected override to set upload_operation=TEST, got %s", loaded.Journals[0].UploadOperation)
	}
}

func TestParseFieldPatternReplacement(t *testing.T) {
	f, ok := parseFieldPatternReplacement("title:^Draft=>Final")
	if !ok || f.Field != "title" || f.Pattern != "^Draft" || f.Replacement != "Final" {
		t.Errorf("parsed wrong: %+v", f)
	}
}

func TestParseFieldAddIf(t *testing.T) {
	f, ok := parseFieldAddIf("SSG=0?Title:^Festschrift")
	if !ok || f.Field != "SSG" || f.Replacement != "0" || f.Condition != "Title:^Festschrift" {
		t.Errorf("parsed wrong: %+v", f)
	}
}

func TestLoadEnhancementMaps_MissingDirReturnsEmpty(t *testing.T) {
	maps, err := LoadEnhancementMaps(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(maps.AuthorBlocklist) != 0 {
		t.Error("expected empty blocklist")
	}
}

func TestLoadEnhancementMaps_ParsesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "author_blocklist.txt"), []byte("N.N.\nAnonymous\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "issn_license.txt"), []byte("1234-5678 = LF\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	maps, err := LoadEnhancementMaps(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !maps.AuthorBlocklist["N.N."] {
		t.Error("expected N.N. in blocklist")
	}
	if maps.IssnLicense["1234-5678"] != "LF" {
		t.Errorf("issn license = %q", maps.IssnLicense["1234-5678"])
	}
}

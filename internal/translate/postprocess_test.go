package translate

import (
	"testing"

	"zoterharvest/internal/domain"
)

func TestPostProcess_FoldsNoteIntoPrecedingItem(t *testing.T) {
	body := []byte(`[
		{"itemType":"journalArticle","title":"A Study"},
		{"itemType":"note","note":"editorial comment"}
	]`)

	items, err := PostProcess(body, domain.MetadataParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after folding, got %d", len(items))
	}
	if len(items[0].Notes) != 1 || items[0].Notes[0] != "editorial comment" {
		t.Fatalf("note not folded, got %+v", items[0].Notes)
	}
}

func TestPostProcess_SuppressBlanksMatchingField(t *testing.T) {
	body := []byte(`[{"itemType":"journalArticle","title":"DRAFT: A Study"}]`)
	params := domain.MetadataParams{
		SuppressFilters: []domain.FieldFilter{
			{Kind: domain.FilterSuppress, Field: "title", Pattern: "^DRAFT:"},
		},
	}

	items, err := PostProcess(body, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].Fields["title"] != "" {
		t.Fatalf("expected title suppressed, got %q", items[0].Fields["title"])
	}
}

func TestPostProcess_OverrideSubstitutesOriginal(t *testing.T) {
	body := []byte(`[{"itemType":"journalArticle","publicationTitle":"Old Name"}]`)
	params := domain.MetadataParams{
		OverrideFilters: []domain.FieldFilter{
			{Kind: domain.FilterOverride, Field: "publicationTitle", Replacement: "New Name (was %org%)"},
		},
	}

	items, err := PostProcess(body, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "New Name (was Old Name)"
	if items[0].Fields["publicationTitle"] != want {
		t.Fatalf("expected %q, got %q", want, items[0].Fields["publicationTitle"])
	}
}

func TestPostProcess_BadJSONReturnsError(t *testing.T) {
	_, err := PostProcess([]byte("not json"), domain.MetadataParams{})
	if err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestMatchesExclude_DetectsLeafMatch(t *testing.T) {
	items, err := ParseItems([]byte(`[{"itemType":"webpage","title":"Drop me"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filters := []domain.FieldFilter{{Kind: domain.FilterExclude, Field: "itemType", Pattern: "^webpage$"}}
	if !MatchesExclude(&items[0], filters) {
		t.Fatal("expected exclude match")
	}
}

func TestApplyRewrite_ReplacesMatches(t *testing.T) {
	items, err := ParseItems([]byte(`[{"itemType":"journalArticle","title":"Vol. 12 -- Some Title"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filters := []domain.FieldFilter{{Kind: domain.FilterRewrite, Field: "title", Pattern: `^Vol\. \d+ -- `, Replacement: ""}}
	ApplyRewrite(&items[0], filters)
	if items[0].Fields["title"] != "Some Title" {
		t.Fatalf("expected rewritten title, got %q", items[0].Fields["title"])
	}
}

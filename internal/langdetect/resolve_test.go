package langdetect

import (
	"context"
	"testing"

	"zoterharvest/internal/domain"
)

func TestResolve_ForceLanguagesIgnoresEverythingElse(t *testing.T) {
	r := NewResolver(nil)
	journal := &domain.JournalParams{
		LanguageMode:      domain.LanguageForceLanguages,
		ExpectedLanguages: []string{"deu", "fra"},
	}

	got := r.Resolve(context.Background(), "english", journal, "some text")
	if len(got) != 2 || got[0] != "deu" || got[1] != "fra" {
		t.Fatalf("expected forced languages verbatim, got %v", got)
	}
}

func TestResolve_EmptyExpectedReturnsReportedOnly(t *testing.T) {
	r := NewResolver(nil)
	journal := &domain.JournalParams{LanguageMode: domain.LanguageDefault}

	got := r.Resolve(context.Background(), "english", journal, "")
	if len(got) != 1 || got[0] != "eng" {
		t.Fatalf("expected [eng], got %v", got)
	}
}

func TestResolve_SingleExpectedLanguageIsTreatedAsDetected(t *testing.T) {
	r := NewResolver(nil)
	journal := &domain.JournalParams{
		LanguageMode:      domain.LanguageDefault,
		ExpectedLanguages: []string{"deu"},
	}

	got := r.Resolve(context.Background(), "", journal, "")
	if len(got) != 1 || got[0] != "deu" {
		t.Fatalf("expected [deu], got %v", got)
	}
}

func TestResolve_ConflictingReportedLanguageClearsSet(t *testing.T) {
	r := NewResolver(nil)
	journal := &domain.JournalParams{
		LanguageMode:      domain.LanguageDefault,
		ExpectedLanguages: []string{"deu"},
	}

	got := r.Resolve(context.Background(), "french", journal, "")
	if got != nil {
		t.Fatalf("expected conflict to clear language set, got %v", got)
	}
}

func TestNormalize_DropsUnrecognized(t *testing.T) {
	if _, ok := Normalize("not-a-real-language-tag-xyz"); ok {
		t.Fatal("expected unrecognized input to be dropped")
	}
	code, ok := Normalize("de")
	if !ok || code != "deu" {
		t.Fatalf("expected deu, got %q (ok=%v)", code, ok)
	}
}

func TestClassify_PicksEnglishForEnglishText(t *testing.T) {
	text := "The result of the study indicates that the effect of the treatment on the outcome of the patients was significant."
	got := Classify(text, []string{"eng", "deu"})
	if got != "eng" {
		t.Fatalf("expected eng, got %q", got)
	}
}

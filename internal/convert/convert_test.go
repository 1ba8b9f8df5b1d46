package convert

import (
	"context"
	"testing"
	"time"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/langdetect"
	"zoterharvest/internal/translate"
)

type fakeDelivery struct {
	deliveredURLs  map[string]bool
	deliveredHashes map[string]bool
}

func (f *fakeDelivery) URLAlreadyDelivered(ctx context.Context, url string, ignored []domain.DeliveryState) (*domain.DeliveredRecordEntry, error) {
	if f.deliveredURLs[url] {
		return &domain.DeliveredRecordEntry{URLs: []string{url}}, nil
	}
	return nil, nil
}

func (f *fakeDelivery) HashAlreadyDelivered(ctx context.Context, hash string, ignored []domain.DeliveryState) ([]domain.DeliveredRecordEntry, error) {
	if f.deliveredHashes[hash] {
		return []domain.DeliveredRecordEntry{{Hash: hash}}, nil
	}
	return nil, nil
}

func baseJournal() *domain.JournalParams {
	return &domain.JournalParams{
		ZederID: "1",
		Name:    "Journal of Testing",
		Online:  domain.IssnPpn{ISSN: "1234-5678", PPN: "pp1"},
	}
}

func baseContext(journal *domain.JournalParams) Context {
	return Context{
		Global:  &domain.GlobalParams{},
		Group:   &domain.GroupParams{Name: "testgroup", ISIL: "DE-Test"},
		Journal: journal,
		Item:    domain.HarvestableItem{ID: 1, URL: "https://example.org/a1", JournalRef: journal},
	}
}

func mustItem(t *testing.T, json string) *translate.Item {
	t.Helper()
	items, err := translate.ParseItems([]byte(json))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &items[0]
}

func fixedNow() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }

func TestConvertItem_HappyPath(t *testing.T) {
	item := mustItem(t, `{"itemType":"journalArticle","title":"A Study of Things","volume":"12","issue":"3","pages":"10-20","date":"2024-01-05","url":"https://example.org/a1","DOI":"10.1/xyz","creators":[{"firstName":"Jane","lastName":"Doe","creatorType":"author"}]}`)

	cctx := baseContext(baseJournal())
	deps := Deps{Delivery: &fakeDelivery{}, Now: fixedNow}
	lang := langdetect.NewResolver(nil)

	record, err := ConvertItem(context.Background(), item, cctx, lang, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Title != "A Study of Things" {
		t.Errorf("title = %q", record.Title)
	}
	if record.SuperiorISSN != "1234-5678" || record.SuperiorPPN != "pp1" {
		t.Errorf("superior linkage wrong: %+v", record)
	}
	if record.VolumeIssuePagesYear == "" {
		t.Error("expected volume/issue/pages/year to be populated")
	}
	if record.ID == "" || record.Hash == "" {
		t.Error("expected id/hash to be set")
	}
}

func TestConvertItem_SkipsUndesiredItemType(t *testing.T) {
	item := mustItem(t, `{"itemType":"webpage","title":"Some Page","url":"https://example.org/p1"}`)

	cctx := baseContext(baseJournal())
	deps := Deps{Delivery: &fakeDelivery{}, Now: fixedNow}
	lang := langdetect.NewResolver(nil)

	_, err := ConvertItem(context.Background(), item, cctx, lang, deps)
	skipErr, ok := err.(*SkipError)
	if !ok {
		t.Fatalf("expected SkipError, got %v", err)
	}
	if skipErr.Reason != "skipped_since_undesired_item_type_" {
		t.Errorf("wrong skip reason: %s", skipErr.Reason)
	}
}

func TestConvertItem_SkipsAlreadyDelivered(t *testing.T) {
	item := mustItem(t, `{"itemType":"journalArticle","title":"A Study","volume":"1","issue":"1","url":"https://example.org/a2"}`)

	cctx := baseContext(baseJournal())
	deps := Deps{Delivery: &fakeDelivery{deliveredURLs: map[string]bool{"https://example.org/a2": true}}, Now: fixedNow}
	lang := langdetect.NewResolver(nil)

	_, err := ConvertItem(context.Background(), item, cctx, lang, deps)
	skipErr, ok := err.(*SkipError)
	if !ok {
		t.Fatalf("expected SkipError, got %v", err)
	}
	if skipErr.Reason != "skipped_since_already_delivered_" {
		t.Errorf("wrong skip reason: %s", skipErr.Reason)
	}
}

func TestConvertItem_SkipsOnlineFirstWhenNoVolumeIssueAndNoDOI(t *testing.T) {
	item := mustItem(t, `{"itemType":"journalArticle","title":"A Study","url":"https://example.org/a3"}`)

	cctx := baseContext(baseJournal())
	deps := Deps{Delivery: &fakeDelivery{}, Now: fixedNow}
	lang := langdetect.NewResolver(nil)

	_, err := ConvertItem(context.Background(), item, cctx, lang, deps)
	skipErr, ok := err.(*SkipError)
	if !ok {
		t.Fatalf("expected SkipError, got %v", err)
	}
	if skipErr.Reason != "skipped_since_online_first_" {
		t.Errorf("wrong skip reason: %s", skipErr.Reason)
	}
}

func TestConvertItem_SkipsEarlyViewSentinel(t *testing.T) {
	item := mustItem(t, `{"itemType":"journalArticle","title":"A Study","volume":"n/a","issue":"n/a","DOI":"10.1/x","url":"https://example.org/a4"}`)

	cctx := baseContext(baseJournal())
	deps := Deps{Delivery: &fakeDelivery{}, Now: fixedNow}
	lang := langdetect.NewResolver(nil)

	_, err := ConvertItem(context.Background(), item, cctx, lang, deps)
	skipErr, ok := err.(*SkipError)
	if !ok {
		t.Fatalf("expected SkipError, got %v", err)
	}
	if skipErr.Reason != "skipped_since_early_view_" {
		t.Errorf("wrong skip reason: %s", skipErr.Reason)
	}
}

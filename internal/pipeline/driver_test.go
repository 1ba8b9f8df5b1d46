package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"zoterharvest/internal/config"
	"zoterharvest/internal/delivery"
	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
	"zoterharvest/internal/harvest"
	"zoterharvest/internal/langdetect"
	"zoterharvest/internal/metrics"
	"zoterharvest/internal/writer"
)

// fakeOperator satisfies harvest.Operator by returning a single
// pre-downloaded entry result, so RunJournal's conversion path runs
// without ever touching the network.
type fakeOperator struct {
	body []byte
}

func (f fakeOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (harvest.Outcome, error) {
	return harvest.Outcome{EntryResult: download.Result{Item: item, Body: f.body, StatusCode: 200, FetchedAt: time.Now()}}, nil
}

const sampleZoteroJSON = `[{
	"itemType": "journalArticle",
	"title": "A Study of Things",
	"creators": [{"creatorType": "author", "lastName": "Doe", "firstName": "Jane"}],
	"volume": "12",
	"issue": "3",
	"date": "2026-01-15",
	"url": "https://example.org/articles/1",
	"DOI": "10.1234/abcd.5678",
	"language": "eng"
}]`

func TestDriver_RunJournal_HarvestsConvertsWritesAndArchives(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO zeder_journals`).
		WithArgs("42", "Sample Journal").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	// CheckAlreadyDelivered (convert stage 10), before Archive.
	mock.ExpectQuery(`JOIN delivered_marc_records_urls`).
		WithArgs("https://example.org/articles/1", "/10.1234/abcd.5678").
		WillReturnRows(pgxmock.NewRows([]string{"id", "hash", "main_title", "delivery_state", "error_message", "delivered_at"}))
	mock.ExpectQuery(`SELECT id, hash, main_title, delivery_state, error_message, delivered_at\s+FROM delivered_marc_records\s+WHERE hash = \$1`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "hash", "main_title", "delivery_state", "error_message", "delivered_at"}))

	// Archive, after WriteRecord.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, delivery_state FROM delivered_marc_records WHERE hash = \$1`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "delivery_state"}))
	mock.ExpectQuery(`INSERT INTO delivered_marc_records`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO delivered_marc_records_urls`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	store := delivery.NewWithDB(mock, 4)

	outDir := t.TempDir()
	cache := writer.NewCache(writer.Config{OutputDir: outDir, OutputFilename: "out.txt"})
	defer cache.CloseAll()

	sink := metrics.NewSink()

	journal := &domain.JournalParams{
		ZederID:            "42",
		Name:               "Sample Journal",
		Group:              "TestGroup",
		EntryURL:           "https://example.org/articles/1",
		HarvesterOperation: domain.OpDirect,
		Online:             domain.IssnPpn{ISSN: "1234-5678", PPN: "100000001"},
	}
	group := &domain.GroupParams{Name: "TestGroup", OutputSubdir: "testgroup"}
	global := &domain.GlobalParams{}

	registry := harvest.NewRegistry(fakeOperator{body: []byte(sampleZoteroJSON)}, nil, nil, nil, nil, nil)

	driver := NewDriver(Deps{
		Registry:           registry,
		Downloads:          download.NewManager(noopTranslator{}, download.Config{Pools: download.NewPools(1, 1, 1, 1), RequestTimeout: time.Second}),
		Delivery:           store,
		Writer:             cache,
		Metrics:            sink,
		LangResolver:       langdetect.NewResolver(nil),
		JournalConcurrency: 1,
	}, &config.Loaded{Global: global, Groups: map[string]*domain.GroupParams{"TestGroup": group}}, nil)

	err = driver.RunJournal(context.Background(), journal)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	summary := sink.Summary()
	require.Equal(t, int64(1), summary.DeliveredByGroup["TestGroup"])

	written, err := os.ReadFile(filepath.Join(outDir, "testgroup", "out.txt"))
	require.NoError(t, err)
	require.Contains(t, string(written), "A Study of Things")
}

type noopTranslator struct{}

func (noopTranslator) PostURL(ctx context.Context, url string) ([]byte, int, error) {
	return nil, 0, nil
}

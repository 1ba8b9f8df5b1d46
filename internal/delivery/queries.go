package delivery

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"zoterharvest/internal/domain"
)

func compressRecord(catalog domain.CatalogRecord) ([]byte, error) {
	raw, err := json.Marshal(catalog)
	if err != nil {
		return nil, fmt.Errorf("delivery: marshal record: %w", err)
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return nil, fmt.Errorf("delivery: gzip record: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("delivery: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressRecord(blob []byte) (domain.CatalogRecord, error) {
	var catalog domain.CatalogRecord
	gr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return catalog, fmt.Errorf("delivery: gunzip record: %w", err)
	}
	defer gr.Close()
	raw, err := io.ReadAll(gr)
	if err != nil {
		return catalog, fmt.Errorf("delivery: read record: %w", err)
	}
	return catalog, json.Unmarshal(raw, &catalog)
}

func ignoredStatesClause(ignored []domain.DeliveryState, argOffset int) (string, []interface{}) {
	if len(ignored) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(ignored))
	args := make([]interface{}, len(ignored))
	for i, s := range ignored {
		placeholders[i] = fmt.Sprintf("$%d", argOffset+i)
		args[i] = string(s)
	}
	return " AND delivery_state NOT IN (" + strings.Join(placeholders, ",") + ")", args
}

// UpsertJournal ensures a zeder_journals row exists for journal, returning
// its internal id.
func (s *Store) UpsertJournal(ctx context.Context, journal *domain.JournalParams) (int64, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	const q = `
		INSERT INTO zeder_journals (zeder_id, journal_name)
		VALUES ($1, $2)
		ON CONFLICT (zeder_id) DO UPDATE SET journal_name = EXCLUDED.journal_name
		RETURNING id
	`
	var id int64
	err = s.db.QueryRow(ctx, q, journal.ZederID, journal.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("delivery: upsert journal %q: %w", journal.ZederID, err)
	}
	return id, nil
}

// URLAlreadyDelivered reports the delivered record matching url, if any,
// excluding entries in a state listed in ignoredStates. A DOI suffix
// (.../doi/10.x/y) is also matched against any stored URL's DOI suffix per
// spec §4.5, since the same article is frequently harvested under both a
// landing-page URL and a bare DOI-resolver URL.
func (s *Store) URLAlreadyDelivered(ctx context.Context, url string, ignoredStates []domain.DeliveryState) (*domain.DeliveredRecordEntry, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	clause, extraArgs := ignoredStatesClause(ignoredStates, 3)
	q := `
		SELECT r.id, r.hash, r.main_title, r.delivery_state, r.error_message, r.delivered_at
		FROM delivered_marc_records r
		JOIN delivered_marc_records_urls u ON u.record_id = r.id
		WHERE (u.url = $1 OR ($2 != '' AND u.url LIKE '%' || $2))` + clause + `
		LIMIT 1
	`
	args := append([]interface{}{url, doiSuffix(url)}, extraArgs...)

	var entry domain.DeliveredRecordEntry
	row := s.db.QueryRow(ctx, q, args...)
	err = row.Scan(&entry.ID, &entry.Hash, &entry.MainTitle, &entry.DeliveryState, &entry.ErrorMessage, &entry.DeliveredAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delivery: url lookup %q: %w", url, err)
	}
	entry.URLs = []string{url}
	return &entry, nil
}

// doiSuffix returns the /10.x/y portion of a DOI-resolver URL, or "" if
// url doesn't look like one.
func doiSuffix(url string) string {
	idx := strings.Index(url, "/10.")
	if idx < 0 {
		return ""
	}
	return url[idx:]
}

// HashAlreadyDelivered returns every delivered record whose content hash
// matches, excluding entries in a state listed in ignoredStates.
func (s *Store) HashAlreadyDelivered(ctx context.Context, hash string, ignoredStates []domain.DeliveryState) ([]domain.DeliveredRecordEntry, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	clause, extraArgs := ignoredStatesClause(ignoredStates, 2)
	q := `
		SELECT id, hash, main_title, delivery_state, error_message, delivered_at
		FROM delivered_marc_records
		WHERE hash = $1` + clause

	args := append([]interface{}{hash}, extraArgs...)
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("delivery: hash lookup %q: %w", hash, err)
	}
	defer rows.Close()

	var out []domain.DeliveredRecordEntry
	for rows.Next() {
		var e domain.DeliveredRecordEntry
		if err := rows.Scan(&e.ID, &e.Hash, &e.MainTitle, &e.DeliveryState, &e.ErrorMessage, &e.DeliveredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordAlreadyDelivered reports whether catalog has already been
// delivered under either its hash or any of its source URLs, the union
// stage 10 of the conversion engine dedups against.
func (s *Store) RecordAlreadyDelivered(ctx context.Context, catalog domain.CatalogRecord, ignoredStates []domain.DeliveryState) (bool, error) {
	if byHash, err := s.HashAlreadyDelivered(ctx, catalog.Hash, ignoredStates); err != nil {
		return false, err
	} else if len(byHash) > 0 {
		return true, nil
	}
	if catalog.URL == "" {
		return false, nil
	}
	entry, err := s.URLAlreadyDelivered(ctx, catalog.URL, ignoredStates)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}

// Archive persists catalog under state, updating the existing row in
// place when one exists in a retryable state (spec §4.5: a prior
// ERROR/RESET delivery is superseded rather than duplicated), inserting a
// new row when no row carries the hash, and leaving an existing row in any
// other state unchanged. In every case catalog.URL is attached to the row.
func (s *Store) Archive(ctx context.Context, journalInternalID int64, catalog domain.CatalogRecord, state domain.DeliveryState, errMsg string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	blob, err := compressRecord(catalog)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delivery: begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID int64
	var existingState string
	err = tx.QueryRow(ctx, `SELECT id, delivery_state FROM delivered_marc_records WHERE hash = $1`, catalog.Hash).Scan(&existingID, &existingState)

	var recordID int64
	switch {
	case err == pgx.ErrNoRows:
		err = tx.QueryRow(ctx, `
			INSERT INTO delivered_marc_records (zeder_journal_id, hash, delivery_state, error_message, delivered_at, main_title, record_blob_compressed)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, journalInternalID, catalog.Hash, string(state), errMsg, time.Now().UTC(), catalog.Title, blob).Scan(&recordID)
		if err != nil {
			return fmt.Errorf("delivery: insert archive: %w", err)
		}
	case err != nil:
		return fmt.Errorf("delivery: archive lookup: %w", err)
	case domain.DeliveryState(existingState).Retryable():
		recordID = existingID
		_, err = tx.Exec(ctx, `
			UPDATE delivered_marc_records
			SET delivery_state = $1, error_message = $2, delivered_at = $3, main_title = $4, record_blob_compressed = $5
			WHERE id = $6
		`, string(state), errMsg, time.Now().UTC(), catalog.Title, blob, existingID)
		if err != nil {
			return fmt.Errorf("delivery: update archive: %w", err)
		}
	default:
		recordID = existingID
	}

	if catalog.URL != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO delivered_marc_records_urls (record_id, url)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, recordID, catalog.URL)
		if err != nil {
			return fmt.Errorf("delivery: insert url: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetLastUploadTime returns the most recent delivered_at for journalInternalID,
// or the Unix epoch if nothing has ever been delivered for it.
func (s *Store) GetLastUploadTime(ctx context.Context, journalInternalID int64) (time.Time, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer release()

	var t time.Time
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(delivered_at), to_timestamp(0))
		FROM delivered_marc_records
		WHERE zeder_journal_id = $1
	`, journalInternalID).Scan(&t)
	if err != nil {
		return time.Time{}, fmt.Errorf("delivery: last upload time: %w", err)
	}
	return t, nil
}

// DeleteOnlineFirstOlderThan purges StateOnlineFirst rows delivered before
// cutoff, per spec §4.5's retention rule for superseded early-view
// placeholders, and returns the number of rows removed.
func (s *Store) DeleteOnlineFirstOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	tag, err := s.db.Exec(ctx, `
		DELETE FROM delivered_marc_records
		WHERE delivery_state = $1 AND delivered_at < $2
	`, string(domain.StateOnlineFirst), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delivery: delete stale online-first records: %w", err)
	}
	return tag.RowsAffected(), nil
}

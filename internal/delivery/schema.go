package delivery

import "context"

// schemaDDL bootstraps the five tables the store needs. Run once at
// startup; CREATE TABLE IF NOT EXISTS keeps it idempotent across runs,
// the same way driver/alt_db leaves migrations to a fixed, versioned DDL
// but without a migration runner in this module's scope.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS zeder_journals (
	id              SERIAL PRIMARY KEY,
	zeder_id        TEXT NOT NULL UNIQUE,
	journal_name    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS delivered_marc_records (
	id                      SERIAL PRIMARY KEY,
	zeder_journal_id        INTEGER REFERENCES zeder_journals(id),
	hash                    TEXT NOT NULL,
	delivery_state          TEXT NOT NULL,
	error_message           TEXT NOT NULL DEFAULT '',
	delivered_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	main_title              TEXT NOT NULL DEFAULT '',
	record_blob_compressed  BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_delivered_marc_records_hash ON delivered_marc_records (hash);

CREATE TABLE IF NOT EXISTS delivered_marc_records_urls (
	record_id  INTEGER NOT NULL REFERENCES delivered_marc_records(id) ON DELETE CASCADE,
	url        TEXT NOT NULL,
	UNIQUE (record_id, url)
);

CREATE INDEX IF NOT EXISTS idx_delivered_marc_records_urls_url ON delivered_marc_records_urls (url);

CREATE TABLE IF NOT EXISTS feed_link_availability (
	feed_url              TEXT PRIMARY KEY,
	is_active             BOOLEAN NOT NULL DEFAULT true,
	consecutive_failures  INTEGER NOT NULL DEFAULT 0,
	last_failure_at       TIMESTAMPTZ,
	last_failure_reason   TEXT
);

CREATE TABLE IF NOT EXISTS metadata_presence_tracer (
	id                  SERIAL PRIMARY KEY,
	zeder_journal_id    INTEGER REFERENCES zeder_journals(id),
	marc_field_tag      TEXT NOT NULL,
	marc_subfield_code  TEXT NOT NULL DEFAULT '',
	record_type         TEXT NOT NULL DEFAULT '',
	regex               TEXT NOT NULL DEFAULT '',
	field_presence      BOOLEAN NOT NULL DEFAULT false
);
`

// Bootstrap applies schemaDDL. Call it once at process startup before any
// Store operation runs.
func (s *Store) Bootstrap(ctx context.Context) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = s.db.Exec(ctx, schemaDDL)
	return err
}

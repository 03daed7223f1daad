package journal

// schemaSQL creates the tables and index the journal needs. Statements are
// idempotent (IF NOT EXISTS) so opening the same database file twice is safe.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sync_queue (
	id            TEXT PRIMARY KEY,
	entity_type   TEXT NOT NULL,
	entity_id     TEXT NOT NULL,
	operation     TEXT NOT NULL CHECK (operation IN ('CREATE','UPDATE','DELETE')),
	data_json     TEXT NOT NULL,
	timestamp     INTEGER NOT NULL,
	device_id     TEXT NOT NULL,
	version_json  TEXT NOT NULL,
	synced        INTEGER NOT NULL DEFAULT 0,
	synced_at     INTEGER,
	retry_count   INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_queue_synced_timestamp ON sync_queue(synced, timestamp);

CREATE TABLE IF NOT EXISTS sync_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

package sqlite

// schema contains the database schema DDL.
const schema = `
-- Imported glucose readings. seq orders the change history.
CREATE TABLE IF NOT EXISTS readings (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    timestamp_ms INTEGER NOT NULL,
    timestamp TEXT NOT NULL,
    value REAL NOT NULL,
    meal TEXT NOT NULL DEFAULT 'unknown',
    imported_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON readings(timestamp_ms);
`

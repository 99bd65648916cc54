// ABOUTME: SQLite database schema for tier list storage
// ABOUTME: Templates, saved results and per-template partition snapshots
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Templates: named item sets a session ranks
CREATE TABLE IF NOT EXISTS templates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    items TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

-- Saved results: immutable tier assignments
CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    source_template_id TEXT NOT NULL,
    template_name TEXT,
    title TEXT,
    tiers TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- Snapshots: last partition per source key
CREATE TABLE IF NOT EXISTS snapshots (
    source_key TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_templates_published ON templates(published);
CREATE INDEX IF NOT EXISTS idx_results_template ON results(source_template_id);
CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1

package database

// Archive schema (DuckDB). Every successful load appends its snapshot here;
// the live dashboard never reads it, it is operational history.
const archiveSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	version VARCHAR NOT NULL,
	source VARCHAR NOT NULL,
	loaded_at TIMESTAMP NOT NULL,
	row_count INTEGER NOT NULL,
	has_sub_category BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS work_orders (
	snapshot_version VARCHAR NOT NULL,
	date_created TIMESTAMP,
	todo_dt TIMESTAMP,
	priority VARCHAR,
	assign_to VARCHAR,
	sub_category VARCHAR,
	response_time_min DOUBLE,
	resolution_time_min DOUBLE,
	sla_respond_met BOOLEAN,
	sla_resolution_met BOOLEAN
);
`

// App schema (SQLite): refresh job tracking and the load journal.
const appSchema = `
CREATE TABLE IF NOT EXISTS refresh_jobs (
	job_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	error_message TEXT,
	snapshot_version TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS load_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	snapshot_version TEXT,
	row_count INTEGER NOT NULL DEFAULT 0,
	coerced_cells INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

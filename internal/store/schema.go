package store

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates every table, index, and virtual table the store
// needs. Tables are created inside one transaction; the vec0 and FTS5
// virtual tables are created afterward since sqlite-vec and FTS5 don't
// behave well nested inside a DDL transaction with foreign keys pending.
//
// Must be called with the sqlite-vec extension registered (Open does this
// via sqlitevec.Auto) and with PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB, dimensions int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"repositories", createRepositoriesTable},
		{"code_files", createCodeFilesTable},
		{"code_chunks", createCodeChunksTable},
		{"code_symbols", createCodeSymbolsTable},
		{"workspaces", createWorkspacesTable},
		{"workspace_dependencies", createWorkspaceDependenciesTable},
		{"services", createServicesTable},
		{"api_endpoints", createAPIEndpointsTable},
		{"cross_repo_dependencies", createCrossRepoDependenciesTable},
		{"documentation_files", createDocumentationFilesTable},
		{"documentation_chunks", createDocumentationChunksTable},
		{"index_metadata", createIndexMetadataTable},
	}
	for _, t := range tables {
		if _, err := tx.Exec(t.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}

	for i, idx := range allIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	if err := CreateVectorIndexes(db, dimensions); err != nil {
		return fmt.Errorf("create vector indexes: %w", err)
	}
	if err := CreateFTSIndexes(db); err != nil {
		return fmt.Errorf("create fts indexes: %w", err)
	}

	return bootstrapMetadata(db, dimensions)
}

func bootstrapMetadata(db *sql.DB, dimensions int) error {
	_, err := db.Exec(
		`INSERT OR IGNORE INTO index_metadata (key, value) VALUES ('schema_version', '1'), ('embedding_dimensions', ?)`,
		fmt.Sprintf("%d", dimensions),
	)
	return err
}

const createRepositoriesTable = `
CREATE TABLE repositories (
    repo_id          TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    kind             TEXT NOT NULL,
    version          TEXT NOT NULL DEFAULT '',
    upstream_url     TEXT NOT NULL DEFAULT '',
    root_path        TEXT NOT NULL DEFAULT '',
    workspace_config BLOB,
    indexed_at       TEXT NOT NULL
)`

const createCodeFilesTable = `
CREATE TABLE code_files (
    repo_id           TEXT NOT NULL,
    file_path         TEXT NOT NULL,
    language          TEXT NOT NULL,
    total_lines       INTEGER NOT NULL DEFAULT 0,
    imports           TEXT NOT NULL DEFAULT '[]',
    exports           TEXT NOT NULL DEFAULT '[]',
    summary           TEXT NOT NULL DEFAULT '',
    summary_fallback  INTEGER NOT NULL DEFAULT 0,
    summary_embedding BLOB,
    workspace_id      TEXT NOT NULL DEFAULT '',
    service_id        TEXT NOT NULL DEFAULT '',
    package_name      TEXT NOT NULL DEFAULT '',
    content_hash      TEXT NOT NULL,
    indexed_at        TEXT NOT NULL,
    PRIMARY KEY (repo_id, file_path),
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)`

const createCodeChunksTable = `
CREATE TABLE code_chunks (
    chunk_id       TEXT PRIMARY KEY,
    repo_id        TEXT NOT NULL,
    file_path      TEXT NOT NULL,
    chunk_type     TEXT NOT NULL,
    content        TEXT NOT NULL,
    start_line     INTEGER NOT NULL,
    end_line       INTEGER NOT NULL,
    token_count    INTEGER NOT NULL DEFAULT 0,
    dependencies      TEXT NOT NULL DEFAULT '[]',
    imported_symbols  TEXT NOT NULL DEFAULT '[]',
    function_names    TEXT NOT NULL DEFAULT '[]',
    class_names       TEXT NOT NULL DEFAULT '[]',
    FOREIGN KEY (repo_id, file_path) REFERENCES code_files(repo_id, file_path) ON DELETE CASCADE
)`

const createCodeSymbolsTable = `
CREATE TABLE code_symbols (
    symbol_id    TEXT PRIMARY KEY,
    repo_id      TEXT NOT NULL,
    name         TEXT NOT NULL,
    kind         TEXT NOT NULL,
    file_path    TEXT NOT NULL,
    line         INTEGER NOT NULL,
    definition   TEXT NOT NULL DEFAULT '',
    scope        TEXT NOT NULL,
    workspace_id TEXT NOT NULL DEFAULT '',
    service_id   TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)`

const createWorkspacesTable = `
CREATE TABLE workspaces (
    workspace_id     TEXT PRIMARY KEY,
    repo_id          TEXT NOT NULL,
    name             TEXT NOT NULL,
    abs_path         TEXT NOT NULL,
    rel_path         TEXT NOT NULL,
    dependencies     TEXT NOT NULL DEFAULT '[]',
    dev_dependencies TEXT NOT NULL DEFAULT '[]',
    is_private       INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)`

const createWorkspaceDependenciesTable = `
CREATE TABLE workspace_dependencies (
    source_workspace_id TEXT NOT NULL,
    target_workspace_id TEXT NOT NULL,
    PRIMARY KEY (source_workspace_id, target_workspace_id),
    FOREIGN KEY (source_workspace_id) REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
    FOREIGN KEY (target_workspace_id) REFERENCES workspaces(workspace_id) ON DELETE CASCADE
)`

const createServicesTable = `
CREATE TABLE services (
    service_id TEXT PRIMARY KEY,
    repo_id    TEXT NOT NULL,
    name       TEXT NOT NULL,
    kind       TEXT NOT NULL,
    files      TEXT NOT NULL DEFAULT '[]',
    FOREIGN KEY (repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)`

const createAPIEndpointsTable = `
CREATE TABLE api_endpoints (
    endpoint_id             TEXT PRIMARY KEY,
    service_id              TEXT NOT NULL,
    repo_id                 TEXT NOT NULL,
    api_type                TEXT NOT NULL,
    path                    TEXT NOT NULL,
    method                  TEXT NOT NULL DEFAULT '',
    request_schema          TEXT NOT NULL DEFAULT '',
    response_schema         TEXT NOT NULL DEFAULT '',
    implementation_chunk_id TEXT NOT NULL DEFAULT '',
    implementation_file     TEXT NOT NULL DEFAULT '',
    implementation_line     INTEGER NOT NULL DEFAULT 0,
    implementation_func     TEXT NOT NULL DEFAULT '',
    deprecated              INTEGER NOT NULL DEFAULT 0,
    description             TEXT NOT NULL DEFAULT '',
    tags                    TEXT NOT NULL DEFAULT '[]',
    FOREIGN KEY (service_id) REFERENCES services(service_id) ON DELETE CASCADE
)`

const createCrossRepoDependenciesTable = `
CREATE TABLE cross_repo_dependencies (
    source_repo_id TEXT NOT NULL,
    target_repo_id TEXT NOT NULL,
    PRIMARY KEY (source_repo_id, target_repo_id),
    FOREIGN KEY (source_repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE,
    FOREIGN KEY (target_repo_id) REFERENCES repositories(repo_id) ON DELETE CASCADE
)`

const createDocumentationFilesTable = `
CREATE TABLE documentation_files (
    repo_id   TEXT NOT NULL DEFAULT '',
    file_path TEXT NOT NULL,
    indexed_at TEXT NOT NULL,
    PRIMARY KEY (repo_id, file_path)
)`

const createDocumentationChunksTable = `
CREATE TABLE documentation_chunks (
    doc_id       TEXT PRIMARY KEY,
    repo_id      TEXT NOT NULL DEFAULT '',
    file_path    TEXT NOT NULL,
    heading_path TEXT NOT NULL DEFAULT '[]',
    language     TEXT NOT NULL DEFAULT '',
    content      TEXT NOT NULL,
    start_line   INTEGER NOT NULL,
    end_line     INTEGER NOT NULL
)`

const createIndexMetadataTable = `
CREATE TABLE index_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

func allIndexes() []string {
	return []string{
		"CREATE INDEX idx_code_files_workspace ON code_files(workspace_id)",
		"CREATE INDEX idx_code_files_service ON code_files(service_id)",
		"CREATE INDEX idx_code_chunks_repo_file ON code_chunks(repo_id, file_path)",
		"CREATE INDEX idx_code_chunks_type ON code_chunks(chunk_type)",
		"CREATE INDEX idx_code_symbols_repo ON code_symbols(repo_id)",
		"CREATE INDEX idx_code_symbols_name ON code_symbols(name)",
		"CREATE INDEX idx_code_symbols_scope ON code_symbols(scope)",
		"CREATE INDEX idx_workspaces_repo ON workspaces(repo_id)",
		"CREATE INDEX idx_services_repo ON services(repo_id)",
		"CREATE INDEX idx_api_endpoints_service ON api_endpoints(service_id)",
		"CREATE INDEX idx_api_endpoints_repo ON api_endpoints(repo_id)",
		"CREATE INDEX idx_api_endpoints_type ON api_endpoints(api_type)",
		"CREATE INDEX idx_cross_repo_source ON cross_repo_dependencies(source_repo_id)",
		"CREATE INDEX idx_doc_chunks_repo ON documentation_chunks(repo_id)",
	}
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertEndpoint writes one api_endpoints row plus its vector entry.
func (s *Store) UpsertEndpoint(tx *sql.Tx, e types.APIEndpoint) error {
	_, err := tx.Exec(`
		INSERT INTO api_endpoints (endpoint_id, service_id, repo_id, api_type, path, method,
			request_schema, response_schema, implementation_chunk_id, implementation_file,
			implementation_line, implementation_func, deprecated, description, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint_id) DO UPDATE SET
			api_type = excluded.api_type, path = excluded.path, method = excluded.method,
			request_schema = excluded.request_schema, response_schema = excluded.response_schema,
			implementation_chunk_id = excluded.implementation_chunk_id,
			implementation_file = excluded.implementation_file,
			implementation_line = excluded.implementation_line,
			implementation_func = excluded.implementation_func,
			deprecated = excluded.deprecated, description = excluded.description, tags = excluded.tags
	`, e.EndpointID, e.ServiceID, e.RepoID, e.APIType, e.Path, e.Method, e.RequestSchema, e.ResponseSchema,
		e.ImplementationChunkID, e.ImplementationFile, e.ImplementationLine, e.ImplementationFunc,
		e.Deprecated, e.Description, marshalStrings(e.Tags))
	if err != nil {
		return fmt.Errorf("upsert endpoint: %w", err)
	}
	if err := upsertVector(tx, "api_endpoints_vec", "endpoint_id", e.EndpointID, e.Embedding); err != nil {
		return fmt.Errorf("upsert endpoint vector: %w", err)
	}
	return nil
}

// GetEndpointsByIDs fetches endpoints for a result set of IDs.
func (s *Store) GetEndpointsByIDs(ids []string) ([]types.APIEndpoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT endpoint_id, service_id, repo_id, api_type, path, method, request_schema, response_schema,
			implementation_chunk_id, implementation_file, implementation_line, implementation_func,
			deprecated, description, tags
		FROM api_endpoints WHERE endpoint_id IN (%s)`, joinPlaceholders(placeholders))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "get endpoints by ids", err, false)
	}
	defer rows.Close()
	return scanEndpoints(rows)
}

// ListEndpointsByRepo returns every endpoint declared by a repository,
// used by API enrichment's no-embedding fallback and by service context
// lookup; outbound-call matching uses ListAllEndpoints.
func (s *Store) ListEndpointsByRepo(repoID string) ([]types.APIEndpoint, error) {
	rows, err := s.db.Query(`
		SELECT endpoint_id, service_id, repo_id, api_type, path, method, request_schema, response_schema,
			implementation_chunk_id, implementation_file, implementation_line, implementation_func,
			deprecated, description, tags
		FROM api_endpoints WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list endpoints by repo", err, false)
	}
	defer rows.Close()
	return scanEndpoints(rows)
}

// ListAllEndpoints returns every indexed endpoint across every repo and
// service, used by the outbound-call matcher to find candidate targets
// and by the path/method lookup in search_api_contracts.
func (s *Store) ListAllEndpoints() ([]types.APIEndpoint, error) {
	rows, err := s.db.Query(`
		SELECT endpoint_id, service_id, repo_id, api_type, path, method, request_schema, response_schema,
			implementation_chunk_id, implementation_file, implementation_line, implementation_func,
			deprecated, description, tags
		FROM api_endpoints`)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list all endpoints", err, false)
	}
	defer rows.Close()
	return scanEndpoints(rows)
}

func scanEndpoints(rows *sql.Rows) ([]types.APIEndpoint, error) {
	var out []types.APIEndpoint
	for rows.Next() {
		var e types.APIEndpoint
		var tags string
		if err := rows.Scan(&e.EndpointID, &e.ServiceID, &e.RepoID, &e.APIType, &e.Path, &e.Method,
			&e.RequestSchema, &e.ResponseSchema, &e.ImplementationChunkID, &e.ImplementationFile,
			&e.ImplementationLine, &e.ImplementationFunc, &e.Deprecated, &e.Description, &tags); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan endpoint", err, false)
		}
		e.Tags = unmarshalStrings(tags)
		out = append(out, e)
	}
	return out, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/gianged/cindex/internal/cerrors"
	"github.com/gianged/cindex/internal/types"
)

// UpsertService writes one services row.
func (s *Store) UpsertService(tx *sql.Tx, svc types.Service) error {
	_, err := tx.Exec(`
		INSERT INTO services (service_id, repo_id, name, kind, files)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(service_id) DO UPDATE SET
			name = excluded.name, kind = excluded.kind, files = excluded.files
	`, svc.ServiceID, svc.RepoID, svc.Name, svc.Kind, marshalStrings(svc.Files))
	if err != nil {
		return fmt.Errorf("upsert service: %w", err)
	}
	return nil
}

// ListServicesByRepo returns every service boundary for a repository.
func (s *Store) ListServicesByRepo(repoID string) ([]types.Service, error) {
	rows, err := s.db.Query(`
		SELECT service_id, repo_id, name, kind, files FROM services WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list services", err, false)
	}
	defer rows.Close()
	return scanServices(rows)
}

// ListAllServices returns every service across every repository, for the
// list_services tool.
func (s *Store) ListAllServices() ([]types.Service, error) {
	rows, err := s.db.Query(`SELECT service_id, repo_id, name, kind, files FROM services ORDER BY repo_id, name`)
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeQuery, "list all services", err, false)
	}
	defer rows.Close()
	return scanServices(rows)
}

func scanServices(rows *sql.Rows) ([]types.Service, error) {
	var out []types.Service
	for rows.Next() {
		var svc types.Service
		var files string
		if err := rows.Scan(&svc.ServiceID, &svc.RepoID, &svc.Name, &svc.Kind, &files); err != nil {
			return nil, cerrors.Store(cerrors.CodeQuery, "scan service", err, false)
		}
		svc.Files = unmarshalStrings(files)
		out = append(out, svc)
	}
	return out, rows.Err()
}

// GetService fetches one service by ID.
func (s *Store) GetService(serviceID string) (*types.Service, error) {
	row := s.db.QueryRow("SELECT service_id, repo_id, name, kind, files FROM services WHERE service_id = ?", serviceID)
	var svc types.Service
	var files string
	if err := row.Scan(&svc.ServiceID, &svc.RepoID, &svc.Name, &svc.Kind, &files); err != nil {
		if err == sql.ErrNoRows {
			return nil, cerrors.Store(cerrors.CodeNotFound, "service not found", err, false)
		}
		return nil, cerrors.Store(cerrors.CodeQuery, "get service", err, false)
	}
	svc.Files = unmarshalStrings(files)
	return &svc, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"folio/internal/folio"
)

// Artifact operations

func (s *Store) FindArtifact(ctx context.Context, artifactID string) (*folio.Artifact, error) {
	return s.findArtifact(ctx, s.db, artifactID)
}

func (s *Store) findArtifact(ctx context.Context, q queryer, artifactID string) (*folio.Artifact, error) {
	row := s.queryRow(ctx, q, `SELECT `+artifactColumns+` FROM project_artifact a WHERE a.id = ?`, artifactID)
	artifact, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding artifact: %w", err)
	}
	return artifact, nil
}

// CreateArtifact stores exactly one content mode: file artifacts keep their
// extension and a NULL link, link artifacts a NULL extension.
func (s *Store) CreateArtifact(ctx context.Context, artifact *folio.Artifact) error {
	var link, ext sql.NullString
	if artifact.FileUploaded {
		ext = nullString(artifact.Extension)
	} else {
		link = sql.NullString{String: artifact.Link, Valid: true}
	}

	_, err := s.exec(ctx, s.db, `INSERT INTO project_artifact
		(id, project_id, name, description, file_uploaded, link, extension, encrypted, published, date_created, date_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID, artifact.ProjectID, artifact.Name, artifact.Description, artifact.FileUploaded,
		link, ext, artifact.Encrypted, artifact.Published, artifact.CreatedAt, artifact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting artifact: %w", err)
	}
	return nil
}

func (s *Store) DeleteArtifact(ctx context.Context, artifactID string, beforeCommit func(*folio.Artifact) error) (*folio.Artifact, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	artifact, err := s.findArtifact(ctx, tx, artifactID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, nil
	}

	if _, err := s.exec(ctx, tx, `DELETE FROM project_artifact WHERE id = ?`, artifactID); err != nil {
		return nil, fmt.Errorf("deleting artifact: %w", err)
	}

	if beforeCommit != nil {
		if err := beforeCommit(artifact); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return artifact, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"folio/internal/database/migrations"
	"folio/internal/folio"
)

// Collaborator operations

func (s *Store) FindCollaborator(ctx context.Context, projectID, userID string) (*folio.CollaboratorLink, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+collaboratorColumns+`
		FROM worked_on w
		WHERE w.project_id = ? AND w.user_id = ?`, projectID, userID)
	link, err := scanCollaborator(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding collaborator: %w", err)
	}
	return link, nil
}

func (s *Store) ListCollaborators(ctx context.Context, projectID string) ([]*folio.CollaboratorLink, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+collaboratorColumns+`
		FROM worked_on w
		WHERE w.project_id = ?
		ORDER BY w.user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing collaborators: %w", err)
	}
	defer rows.Close()

	links := []*folio.CollaboratorLink{}
	for rows.Next() {
		link, err := scanCollaborator(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning collaborator: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collaborators: %w", err)
	}
	return links, nil
}

func (s *Store) SetCollaboratorVisibility(ctx context.Context, projectID, userID string, visible bool) (bool, error) {
	res, err := s.exec(ctx, s.db, `UPDATE worked_on SET is_visible = ? WHERE project_id = ? AND user_id = ?`,
		visible, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("updating collaborator visibility: %w", err)
	}
	return rowsAffected(res)
}

// RemoveCollaborator deletes the link only while the project keeps at least
// one other collaborator; the count and the delete are a single statement.
// It returns folio.ErrLastCollaborator when userID is the only one left.
func (s *Store) RemoveCollaborator(ctx context.Context, projectID, userID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Postgres evaluates the count against a snapshot; lock the project's
	// links so concurrent removals queue up behind each other.
	if s.dialect == migrations.Postgres {
		if _, err := s.exec(ctx, tx, `SELECT user_id FROM worked_on WHERE project_id = ? FOR UPDATE`, projectID); err != nil {
			return false, fmt.Errorf("locking collaborators: %w", err)
		}
	}

	res, err := s.exec(ctx, tx, `DELETE FROM worked_on WHERE project_id = ? AND user_id = ?
		AND (SELECT COUNT(*) FROM worked_on WHERE project_id = ?) > 1`, projectID, userID, projectID)
	if err != nil {
		return false, fmt.Errorf("removing collaborator: %w", err)
	}
	removed, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if !removed {
		var n int
		err := s.queryRow(ctx, tx, `SELECT COUNT(*) FROM worked_on WHERE project_id = ? AND user_id = ?`, projectID, userID).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("checking collaborator: %w", err)
		}
		if n > 0 {
			return false, folio.ErrLastCollaborator
		}
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return true, nil
}

// Invitation operations

func (s *Store) CreateInvitation(ctx context.Context, inv *folio.Invitation) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO collaboration_invite (id, project_id, email, date_created)
		VALUES (?, ?, ?, ?)`, inv.ID, inv.ProjectID, inv.Email, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting invitation: %w", err)
	}
	return nil
}

func (s *Store) FindInvitation(ctx context.Context, invitationID string) (*folio.Invitation, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+invitationColumns+` FROM collaboration_invite c WHERE c.id = ?`, invitationID)
	inv, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding invitation: %w", err)
	}
	return inv, nil
}

func (s *Store) ListInvitations(ctx context.Context, projectID string) ([]*folio.Invitation, error) {
	return s.listInvitations(ctx, `c.project_id = ?`, projectID)
}

func (s *Store) ListInvitationsForEmail(ctx context.Context, email string) ([]*folio.Invitation, error) {
	return s.listInvitations(ctx, `c.email = ?`, email)
}

func (s *Store) listInvitations(ctx context.Context, where string, arg any) ([]*folio.Invitation, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+invitationColumns+`
		FROM collaboration_invite c
		WHERE `+where+`
		ORDER BY c.date_created, c.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	invs := []*folio.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invitations: %w", err)
	}
	return invs, nil
}

// AcceptInvitation links the user and removes the invitation in one
// transaction. An existing link for the pair is kept as is.
func (s *Store) AcceptInvitation(ctx context.Context, projectID, userID, invitationID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = s.queryRow(ctx, tx, `SELECT id FROM collaboration_invite WHERE id = ? AND project_id = ?`,
		invitationID, projectID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("finding invitation: %w", err)
	}

	_, err = s.exec(ctx, tx, `INSERT INTO worked_on (project_id, user_id, is_visible) VALUES (?, ?, ?)
		ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, userID, true)
	if err != nil {
		return false, fmt.Errorf("linking collaborator: %w", err)
	}

	if _, err := s.exec(ctx, tx, `DELETE FROM collaboration_invite WHERE id = ?`, invitationID); err != nil {
		return false, fmt.Errorf("removing invitation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return true, nil
}

func (s *Store) DeleteInvitation(ctx context.Context, invitationID string) (bool, error) {
	res, err := s.exec(ctx, s.db, `DELETE FROM collaboration_invite WHERE id = ?`, invitationID)
	if err != nil {
		return false, fmt.Errorf("deleting invitation: %w", err)
	}
	return rowsAffected(res)
}

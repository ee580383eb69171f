package database

import (
	"context"
	"fmt"

	"folio/internal/folio"
)

// Project operations

func (s *Store) CreateProject(ctx context.Context, project *folio.Project, ownerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = s.exec(ctx, tx, `INSERT INTO project
		(id, title, description, published, category, score, date_created, date_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Title, project.Description, project.Published,
		nullString(project.Category), project.Score, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	if err := s.insertKeywords(ctx, tx, project.ID, project.Keywords); err != nil {
		return err
	}

	_, err = s.exec(ctx, tx, `INSERT INTO worked_on (project_id, user_id, is_visible) VALUES (?, ?, ?)`,
		project.ID, ownerID, true)
	if err != nil {
		return fmt.Errorf("linking owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, project *folio.Project) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.exec(ctx, tx, `UPDATE project
		SET title = ?, description = ?, published = ?, category = ?, date_updated = ?
		WHERE id = ?`,
		project.Title, project.Description, project.Published, nullString(project.Category),
		project.UpdatedAt, project.ID)
	if err != nil {
		return false, fmt.Errorf("updating project: %w", err)
	}
	found, err := rowsAffected(res)
	if err != nil || !found {
		return false, err
	}

	if _, err := s.exec(ctx, tx, `DELETE FROM project_keyword WHERE project_id = ?`, project.ID); err != nil {
		return false, fmt.Errorf("clearing keywords: %w", err)
	}
	if err := s.insertKeywords(ctx, tx, project.ID, project.Keywords); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	return true, nil
}

func (s *Store) insertKeywords(ctx context.Context, q queryer, projectID string, keywords []string) error {
	for _, k := range keywords {
		_, err := s.exec(ctx, q, `INSERT INTO project_keyword (project_id, keyword) VALUES (?, ?)
			ON CONFLICT (project_id, keyword) DO NOTHING`, projectID, k)
		if err != nil {
			return fmt.Errorf("inserting keyword %q: %w", k, err)
		}
	}
	return nil
}

// DeleteProject removes the project and every row that references it. The
// aggregate is loaded first, inside the same transaction, and handed to
// beforeCommit.
func (s *Store) DeleteProject(ctx context.Context, projectID string, beforeCommit func(*folio.Project) error) (*folio.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	project, err := s.fetchAggregate(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	// Children first, so the delete does not depend on ON DELETE CASCADE
	// being enforced by the connection.
	for _, table := range []string{
		"project_image", "project_artifact", "project_keyword",
		"project_award", "worked_on", "collaboration_invite",
	} {
		if _, err := s.exec(ctx, tx, `DELETE FROM `+table+` WHERE project_id = ?`, projectID); err != nil {
			return nil, fmt.Errorf("deleting from %s: %w", table, err)
		}
	}
	if _, err := s.exec(ctx, tx, `DELETE FROM project WHERE id = ?`, projectID); err != nil {
		return nil, fmt.Errorf("deleting project: %w", err)
	}

	if beforeCommit != nil {
		if err := beforeCommit(project); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return project, nil
}

// Award operations

func (s *Store) CreateAward(ctx context.Context, award *folio.Award) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO award (id, name, description, image_name, badge_name)
		VALUES (?, ?, ?, ?, ?)`,
		award.ID, award.Name, award.Description, nullString(award.ImageName), nullString(award.BadgeName))
	if err != nil {
		return fmt.Errorf("inserting award: %w", err)
	}
	return nil
}

// GrantAward is idempotent: granting the same award twice keeps one association.
func (s *Store) GrantAward(ctx context.Context, projectID, awardID string) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO project_award (project_id, award_id) VALUES (?, ?)
		ON CONFLICT (project_id, award_id) DO NOTHING`, projectID, awardID)
	if err != nil {
		return fmt.Errorf("granting award: %w", err)
	}
	return nil
}

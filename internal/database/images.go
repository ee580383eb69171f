package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"folio/internal/folio"
)

// Image operations. Every order change goes through folio's ordering
// planner and is applied inside one transaction.

func (s *Store) FindImage(ctx context.Context, imageID string) (*folio.Image, error) {
	return s.findImage(ctx, s.db, imageID)
}

func (s *Store) findImage(ctx context.Context, q queryer, imageID string) (*folio.Image, error) {
	row := s.queryRow(ctx, q, `SELECT `+imageColumns+` FROM project_image i WHERE i.id = ?`, imageID)
	img, err := scanImage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding image: %w", err)
	}
	return img, nil
}

func (s *Store) ListImages(ctx context.Context, projectID string) ([]*folio.Image, error) {
	return s.listImages(ctx, s.db, projectID)
}

func (s *Store) listImages(ctx context.Context, q queryer, projectID string) ([]*folio.Image, error) {
	rows, err := s.query(ctx, q, `SELECT `+imageColumns+`
		FROM project_image i
		WHERE i.project_id = ?
		ORDER BY i.sort_order`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	images := []*folio.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating images: %w", err)
	}
	return images, nil
}

// AppendImage inserts the image after the project's current last image.
func (s *Store) AppendImage(ctx context.Context, image *folio.Image) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	images, err := s.listImages(ctx, tx, image.ProjectID)
	if err != nil {
		return err
	}
	order := folio.NextOrder(folio.ImageSlots(images))

	_, err = s.exec(ctx, tx, `INSERT INTO project_image (id, project_id, file_name, sort_order, date_created)
		VALUES (?, ?, ?, ?, ?)`,
		image.ID, image.ProjectID, image.FileName, order, image.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	image.Order = order
	return nil
}

// MoveImage applies a planned move. Planner errors (unknown image, stale
// oldIndex, out of range newIndex) are returned unchanged.
func (s *Store) MoveImage(ctx context.Context, projectID, imageID string, oldIndex, newIndex int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	images, err := s.listImages(ctx, tx, projectID)
	if err != nil {
		return err
	}
	changes, err := folio.PlanMove(folio.ImageSlots(images), imageID, oldIndex, newIndex)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	if err := s.applyReorders(ctx, tx, projectID, changes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteImage moves the image to the end of its project's order, compacting
// the rest, then removes its row. beforeCommit sees the image with the order
// it had before the call.
func (s *Store) DeleteImage(ctx context.Context, imageID string, beforeCommit func(*folio.Image) error) (*folio.Image, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	image, err := s.findImage(ctx, tx, imageID)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, nil
	}

	images, err := s.listImages(ctx, tx, image.ProjectID)
	if err != nil {
		return nil, err
	}
	changes, err := folio.PlanRemoval(folio.ImageSlots(images), imageID)
	if err != nil {
		return nil, err
	}
	if err := s.applyReorders(ctx, tx, image.ProjectID, changes); err != nil {
		return nil, err
	}

	if _, err := s.exec(ctx, tx, `DELETE FROM project_image WHERE id = ?`, imageID); err != nil {
		return nil, fmt.Errorf("deleting image: %w", err)
	}

	if beforeCommit != nil {
		if err := beforeCommit(image); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return image, nil
}

// applyReorders writes planned order changes in two phases. Each changed row
// is first parked at the negated target, then all parked rows flip sign in
// one statement. The targets are free slots once the moved rows leave them,
// so UNIQUE (project_id, sort_order) holds after every statement.
func (s *Store) applyReorders(ctx context.Context, q queryer, projectID string, changes []folio.Reorder) error {
	for _, c := range changes {
		res, err := s.exec(ctx, q, `UPDATE project_image SET sort_order = ?
			WHERE id = ? AND project_id = ? AND sort_order = ?`,
			-c.To, c.ID, projectID, c.From)
		if err != nil {
			return fmt.Errorf("parking image %s: %w", c.ID, err)
		}
		ok, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("image %s is no longer at order %d", c.ID, c.From)
		}
	}

	if _, err := s.exec(ctx, q, `UPDATE project_image SET sort_order = -sort_order
		WHERE project_id = ? AND sort_order < 0`, projectID); err != nil {
		return fmt.Errorf("settling image order: %w", err)
	}
	return nil
}

package database

import (
	"database/sql"

	"folio/internal/folio"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Row mapping. Each scan target mirrors one SELECT column list below.
// Columns that can be NULL, either because the schema allows it or because
// they come from the outer side of a join, scan into sql.Null* types.
// Required columns scan into plain Go types so a violated NOT NULL surfaces
// as a scan error.

const projectColumns = `p.id, p.title, p.description, p.published, p.category, p.score, p.date_created, p.date_updated`

type projectRow struct {
	ID          string
	Title       string
	Description string
	Published   bool
	Category    sql.NullString
	Score       int64
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
}

func (r *projectRow) targets() []any {
	return []any{&r.ID, &r.Title, &r.Description, &r.Published, &r.Category, &r.Score, &r.CreatedAt, &r.UpdatedAt}
}

func (r *projectRow) toProject() *folio.Project {
	return &folio.Project{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Published:   r.Published,
		Category:    r.Category.String,
		Score:       r.Score,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (r *projectRow) toSummary() *folio.ProjectSummary {
	return &folio.ProjectSummary{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Published:   r.Published,
		Category:    r.Category.String,
		Score:       r.Score,
		CreatedAt:   r.CreatedAt.Time,
	}
}

func scanProject(sc scanner) (*projectRow, error) {
	var r projectRow
	if err := sc.Scan(r.targets()...); err != nil {
		return nil, err
	}
	return &r, nil
}

const artifactColumns = `a.id, a.project_id, a.name, a.description, a.file_uploaded, a.link, a.extension, a.encrypted, a.published, a.date_created, a.date_updated`

// artifactRow is fully nullable since it also serves the outer side of the
// aggregate join.
type artifactRow struct {
	ID           sql.NullString
	ProjectID    sql.NullString
	Name         sql.NullString
	Description  sql.NullString
	FileUploaded sql.NullBool
	Link         sql.NullString
	Extension    sql.NullString
	Encrypted    sql.NullBool
	Published    sql.NullBool
	CreatedAt    sql.NullTime
	UpdatedAt    sql.NullTime
}

func (r *artifactRow) targets() []any {
	return []any{&r.ID, &r.ProjectID, &r.Name, &r.Description, &r.FileUploaded, &r.Link,
		&r.Extension, &r.Encrypted, &r.Published, &r.CreatedAt, &r.UpdatedAt}
}

// toArtifact returns nil when the row carries no artifact.
func (r *artifactRow) toArtifact() *folio.Artifact {
	if !r.ID.Valid {
		return nil
	}
	return &folio.Artifact{
		ID:           r.ID.String,
		ProjectID:    r.ProjectID.String,
		Name:         r.Name.String,
		Description:  r.Description.String,
		Published:    r.Published.Bool,
		FileUploaded: r.FileUploaded.Bool,
		Link:         r.Link.String,
		Extension:    r.Extension.String,
		Encrypted:    r.Encrypted.Bool,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func scanArtifact(sc scanner) (*folio.Artifact, error) {
	var r artifactRow
	if err := sc.Scan(r.targets()...); err != nil {
		return nil, err
	}
	return r.toArtifact(), nil
}

const collaboratorColumns = `w.project_id, w.user_id, w.is_visible`

type collaboratorRow struct {
	ProjectID sql.NullString
	UserID    sql.NullString
	Visible   sql.NullBool
}

func (r *collaboratorRow) targets() []any {
	return []any{&r.ProjectID, &r.UserID, &r.Visible}
}

// toLink returns nil when the row carries no collaborator.
func (r *collaboratorRow) toLink() *folio.CollaboratorLink {
	if !r.UserID.Valid {
		return nil
	}
	return &folio.CollaboratorLink{
		ProjectID: r.ProjectID.String,
		UserID:    r.UserID.String,
		Visible:   r.Visible.Bool,
	}
}

func scanCollaborator(sc scanner) (*folio.CollaboratorLink, error) {
	var r collaboratorRow
	if err := sc.Scan(r.targets()...); err != nil {
		return nil, err
	}
	return r.toLink(), nil
}

const imageColumns = `i.id, i.project_id, i.file_name, i.sort_order, i.date_created`

func scanImage(sc scanner) (*folio.Image, error) {
	var (
		img     folio.Image
		created sql.NullTime
	)
	if err := sc.Scan(&img.ID, &img.ProjectID, &img.FileName, &img.Order, &created); err != nil {
		return nil, err
	}
	img.CreatedAt = created.Time
	return &img, nil
}

const invitationColumns = `c.id, c.project_id, c.email, c.date_created`

func scanInvitation(sc scanner) (*folio.Invitation, error) {
	var (
		inv     folio.Invitation
		created sql.NullTime
	)
	if err := sc.Scan(&inv.ID, &inv.ProjectID, &inv.Email, &created); err != nil {
		return nil, err
	}
	inv.CreatedAt = created.Time
	return &inv, nil
}

const awardColumns = `aw.id, aw.name, aw.description, aw.image_name, aw.badge_name`

func scanAward(sc scanner) (*folio.Award, error) {
	var (
		award        folio.Award
		image, badge sql.NullString
	)
	if err := sc.Scan(&award.ID, &award.Name, &award.Description, &image, &badge); err != nil {
		return nil, err
	}
	award.ImageName = image.String
	award.BadgeName = badge.String
	return &award, nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

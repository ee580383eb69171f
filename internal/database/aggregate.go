package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"folio/internal/database/migrations"
	"folio/internal/folio"
)

// The aggregate query multiplies every artifact row once per collaborator.
const aggregateQuery = `SELECT ` + projectColumns + `, ` + artifactColumns + `, ` + collaboratorColumns + `
FROM project p
LEFT JOIN project_artifact a ON a.project_id = p.id
LEFT JOIN worked_on w ON w.project_id = p.id
WHERE p.id = ?
ORDER BY p.id, w.user_id, a.date_created, a.id`

// FetchProject reconstructs a project with its artifacts, images,
// collaborators, keywords and awards. All reads share one transaction so the
// aggregate is a consistent snapshot. Returns nil when the project does not exist.
func (s *Store) FetchProject(ctx context.Context, projectID string) (*folio.Project, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: s.readOnlyTx()})
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	project, err := s.fetchAggregate(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return project, nil
}

// readOnlyTx reports whether to request a read-only transaction. Only
// Postgres makes use of it.
func (s *Store) readOnlyTx() bool {
	return s.dialect != migrations.SQLite
}

func (s *Store) fetchAggregate(ctx context.Context, q queryer, projectID string) (*folio.Project, error) {
	project, err := s.foldAggregateRows(ctx, q, projectID)
	if err != nil || project == nil {
		return nil, err
	}

	if project.Images, err = s.listImages(ctx, q, projectID); err != nil {
		return nil, err
	}
	if project.Keywords, err = s.listKeywords(ctx, q, projectID); err != nil {
		return nil, err
	}
	if project.Awards, err = s.listAwards(ctx, q, projectID); err != nil {
		return nil, err
	}
	return project, nil
}

// foldAggregateRows builds the project, its artifacts and its collaborators
// from the joined rows. Each artifact and each collaborator is kept once.
// Rows are grouped by collaborator, so the first group already holds every
// artifact in creation order and later groups only repeat them.
func (s *Store) foldAggregateRows(ctx context.Context, q queryer, projectID string) (*folio.Project, error) {
	rows, err := s.query(ctx, q, aggregateQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying project aggregate: %w", err)
	}
	defer rows.Close()

	var (
		project      *folio.Project
		seenArtifact = make(map[string]bool)
		seenUser     = make(map[string]bool)
	)
	for rows.Next() {
		var (
			p projectRow
			a artifactRow
			w collaboratorRow
		)
		targets := append(append(p.targets(), a.targets()...), w.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scanning project aggregate row: %w", err)
		}

		if project == nil {
			project = p.toProject()
			project.Artifacts = []*folio.Artifact{}
			project.Collaborators = []*folio.CollaboratorLink{}
		}
		if artifact := a.toArtifact(); artifact != nil && !seenArtifact[artifact.ID] {
			seenArtifact[artifact.ID] = true
			project.Artifacts = append(project.Artifacts, artifact)
		}
		if link := w.toLink(); link != nil && !seenUser[link.UserID] {
			seenUser[link.UserID] = true
			project.Collaborators = append(project.Collaborators, link)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project aggregate rows: %w", err)
	}
	return project, nil
}

// FindProjectSummary returns the project row alone, or nil when it does not exist.
func (s *Store) FindProjectSummary(ctx context.Context, projectID string) (*folio.ProjectSummary, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+projectColumns+` FROM project p WHERE p.id = ?`, projectID)
	r, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding project: %w", err)
	}
	return r.toSummary(), nil
}

// ListProjects returns summaries ordered by score, highest first.
func (s *Store) ListProjects(ctx context.Context, filter folio.ProjectFilter) ([]*folio.ProjectSummary, error) {
	var (
		where []string
		args  []any
	)
	if filter.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		where = append(where, `(LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if filter.PublishedOnly {
		where = append(where, `p.published = ?`)
		args = append(args, true)
	}

	query := `SELECT ` + projectColumns + ` FROM project p`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY p.score DESC, p.date_created DESC, p.id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var result []*folio.ProjectSummary
	for rows.Next() {
		r, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		result = append(result, r.toSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return result, nil
}

func (s *Store) listKeywords(ctx context.Context, q queryer, projectID string) ([]string, error) {
	rows, err := s.query(ctx, q, `SELECT keyword FROM project_keyword WHERE project_id = ? ORDER BY keyword`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}
	defer rows.Close()

	keywords := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keywords: %w", err)
	}
	return keywords, nil
}

func (s *Store) listAwards(ctx context.Context, q queryer, projectID string) ([]*folio.Award, error) {
	rows, err := s.query(ctx, q, `SELECT `+awardColumns+`
		FROM award aw
		JOIN project_award pa ON pa.award_id = aw.id
		WHERE pa.project_id = ?
		ORDER BY aw.name, aw.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing awards: %w", err)
	}
	defer rows.Close()

	awards := []*folio.Award{}
	for rows.Next() {
		award, err := scanAward(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning award: %w", err)
		}
		awards = append(awards, award)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating awards: %w", err)
	}
	return awards, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

package server

import (
	"time"

	"folio/internal/folio"
)

type projectView struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Published     bool               `json:"published"`
	Category      string             `json:"category"`
	Score         int64              `json:"score"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Keywords      []string           `json:"keywords"`
	Artifacts     []artifactView     `json:"artifacts"`
	Images        []imageView        `json:"images"`
	Collaborators []collaboratorView `json:"collaborators"`
	Awards        []awardView        `json:"awards"`
}

type summaryView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Published   bool      `json:"published"`
	Category    string    `json:"category"`
	Score       int64     `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

type artifactView struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Published    bool      `json:"published"`
	FileUploaded bool      `json:"file_uploaded"`
	Link         string    `json:"link,omitempty"`
	Extension    string    `json:"extension,omitempty"`
	Encrypted    bool      `json:"encrypted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type imageView struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	FileName  string    `json:"file_name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type collaboratorView struct {
	UserID  string `json:"user_id"`
	Visible bool   `json:"visible"`
}

type invitationView struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type awardView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageName   string `json:"image_name"`
	BadgeName   string `json:"badge_name"`
}

// newProjectView renders p. Outsiders only see published artifacts and
// visible collaborators.
func newProjectView(p *folio.Project, insider bool) projectView {
	v := projectView{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Published:     p.Published,
		Category:      p.Category,
		Score:         p.Score,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Keywords:      append([]string{}, p.Keywords...),
		Artifacts:     []artifactView{},
		Images:        newImageViews(p.Images),
		Collaborators: []collaboratorView{},
		Awards:        []awardView{},
	}
	for _, a := range p.Artifacts {
		if insider || a.Published {
			v.Artifacts = append(v.Artifacts, newArtifactView(a))
		}
	}
	for _, c := range p.Collaborators {
		if insider || c.Visible {
			v.Collaborators = append(v.Collaborators, collaboratorView{UserID: c.UserID, Visible: c.Visible})
		}
	}
	for _, a := range p.Awards {
		v.Awards = append(v.Awards, awardView{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			ImageName:   a.ImageName,
			BadgeName:   a.BadgeName,
		})
	}
	return v
}

func newSummaryView(s *folio.ProjectSummary) summaryView {
	return summaryView{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Published:   s.Published,
		Category:    s.Category,
		Score:       s.Score,
		CreatedAt:   s.CreatedAt,
	}
}

func newArtifactView(a *folio.Artifact) artifactView {
	return artifactView{
		ID:           a.ID,
		ProjectID:    a.ProjectID,
		Name:         a.Name,
		Description:  a.Description,
		Published:    a.Published,
		FileUploaded: a.FileUploaded,
		Link:         a.Link,
		Extension:    a.Extension,
		Encrypted:    a.Encrypted,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func newImageView(i *folio.Image) imageView {
	return imageView{
		ID:        i.ID,
		ProjectID: i.ProjectID,
		FileName:  i.FileName,
		Order:     i.Order,
		CreatedAt: i.CreatedAt,
	}
}

func newImageViews(images []*folio.Image) []imageView {
	out := make([]imageView, 0, len(images))
	for _, i := range images {
		out = append(out, newImageView(i))
	}
	return out
}

func newInvitationView(i *folio.Invitation) invitationView {
	return invitationView{ID: i.ID, ProjectID: i.ProjectID, Email: i.Email, CreatedAt: i.CreatedAt}
}

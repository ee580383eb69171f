package folio

import "time"

// Project is the aggregate root. Artifacts and Images are owned by it and
// reference it by ProjectID only; the nested view is assembled at fetch time.
type Project struct {
	ID          string
	Title       string
	Description string
	Published   bool
	Category    string
	Score       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Keywords      []string
	Artifacts     []*Artifact
	Images        []*Image // sorted by Order ascending
	Collaborators []*CollaboratorLink
	Awards        []*Award
}

// ProjectSummary is the listing view of a project, without nested collections.
type ProjectSummary struct {
	ID          string
	Title       string
	Description string
	Published   bool
	Category    string
	Score       int64
	CreatedAt   time.Time
}

// ProjectDraft holds the caller-supplied fields for creating or updating a project.
type ProjectDraft struct {
	Title       string
	Description string
	Published   bool
	Category    string
	Keywords    []string
}

// ProjectFilter narrows ListProjects. Query is a plain substring match
// against title and description.
type ProjectFilter struct {
	Query         string
	PublishedOnly bool
	Limit         int
}

// Artifact is either an uploaded file or an external link, never both.
type Artifact struct {
	ID           string
	ProjectID    string
	Name         string
	Description  string
	Published    bool
	FileUploaded bool
	Link         string
	Extension    string // only meaningful when FileUploaded
	Encrypted    bool   // blob content is encrypted at rest
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFile reports whether the artifact's content lives in the blob store.
func (a *Artifact) IsFile() bool { return a.FileUploaded }

// Image is one picture in a project's ordered gallery.
type Image struct {
	ID        string
	ProjectID string
	FileName  string
	Order     int
	CreatedAt time.Time
}

// CollaboratorLink associates a user with a project.
type CollaboratorLink struct {
	ProjectID string
	UserID    string
	Visible   bool
}

// Invitation is a pending offer for an email address to collaborate on a project.
type Invitation struct {
	ID        string
	ProjectID string
	Email     string
	CreatedAt time.Time
}

// Award is granted to projects; the association is read-only on the aggregate.
type Award struct {
	ID          string
	Name        string
	Description string
	ImageName   string
	BadgeName   string
}

// Actor is the identity a request runs as. An empty UserID is anonymous.
type Actor struct {
	UserID string
}

// Anonymous reports whether the actor carries no identity.
func (a Actor) Anonymous() bool { return a.UserID == "" }

// ImageBlobKey returns the blob store key for an image.
func ImageBlobKey(imageID string) string {
	return "images/" + imageID
}

// ArtifactBlobKey returns the blob store key for a file artifact.
func ArtifactBlobKey(artifactID, extension string) string {
	if extension == "" {
		return "artifacts/" + artifactID
	}
	return "artifacts/" + artifactID + "." + extension
}

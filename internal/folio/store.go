package folio

import (
	"context"
	"errors"
)

// ErrLastCollaborator is returned by Store.RemoveCollaborator when the user is
// the project's only collaborator.
var ErrLastCollaborator = errors.New("last collaborator")

// Store provides relational persistence for the project aggregate.
// Lookups return (nil, nil) when the entity does not exist. Every method
// that issues more than one statement runs them in a single transaction.
type Store interface {
	// Project operations

	// CreateProject inserts the project, its keywords and a visible
	// collaborator link for ownerID.
	CreateProject(ctx context.Context, project *Project, ownerID string) error

	// UpdateProject overwrites the editable fields and keyword set.
	// Returns false when the project does not exist.
	UpdateProject(ctx context.Context, project *Project) (bool, error)

	// FindProjectSummary returns the project row without nested collections.
	FindProjectSummary(ctx context.Context, projectID string) (*ProjectSummary, error)

	// FetchProject reconstructs the full aggregate from joined rows.
	FetchProject(ctx context.Context, projectID string) (*Project, error)

	// ListProjects returns summaries ordered by score, highest first.
	ListProjects(ctx context.Context, filter ProjectFilter) ([]*ProjectSummary, error)

	// DeleteProject removes the project and everything it owns and returns
	// the aggregate as it was before deletion. beforeCommit, when non-nil,
	// may abort the transaction by returning an error.
	DeleteProject(ctx context.Context, projectID string, beforeCommit func(*Project) error) (*Project, error)

	// Image operations

	FindImage(ctx context.Context, imageID string) (*Image, error)

	// ListImages returns a project's images ordered by Order ascending.
	ListImages(ctx context.Context, projectID string) ([]*Image, error)

	// AppendImage inserts the image at the end of its project's order and
	// sets image.Order.
	AppendImage(ctx context.Context, image *Image) error

	// MoveImage moves an image from oldIndex to newIndex, shifting the images
	// in between so the order stays contiguous.
	MoveImage(ctx context.Context, projectID, imageID string, oldIndex, newIndex int) error

	// DeleteImage compacts the order around the image and removes its row.
	// beforeCommit runs after the row changes and before commit.
	DeleteImage(ctx context.Context, imageID string, beforeCommit func(*Image) error) (*Image, error)

	// Artifact operations

	FindArtifact(ctx context.Context, artifactID string) (*Artifact, error)
	CreateArtifact(ctx context.Context, artifact *Artifact) error
	DeleteArtifact(ctx context.Context, artifactID string, beforeCommit func(*Artifact) error) (*Artifact, error)

	// Collaborator operations

	FindCollaborator(ctx context.Context, projectID, userID string) (*CollaboratorLink, error)
	ListCollaborators(ctx context.Context, projectID string) ([]*CollaboratorLink, error)
	SetCollaboratorVisibility(ctx context.Context, projectID, userID string, visible bool) (bool, error)
	// RemoveCollaborator returns ErrLastCollaborator instead of removing the
	// project's only remaining collaborator.
	RemoveCollaborator(ctx context.Context, projectID, userID string) (bool, error)

	// Invitation operations

	CreateInvitation(ctx context.Context, invitation *Invitation) error
	FindInvitation(ctx context.Context, invitationID string) (*Invitation, error)
	ListInvitations(ctx context.Context, projectID string) ([]*Invitation, error)
	ListInvitationsForEmail(ctx context.Context, email string) ([]*Invitation, error)

	// AcceptInvitation creates a visible link for userID and removes the
	// invitation as one unit. Returns false when no invitation with that id
	// exists for the project.
	AcceptInvitation(ctx context.Context, projectID, userID, invitationID string) (bool, error)

	// DeleteInvitation returns false when the invitation was already absent.
	DeleteInvitation(ctx context.Context, invitationID string) (bool, error)

	// Award operations

	CreateAward(ctx context.Context, award *Award) error
	GrantAward(ctx context.Context, projectID, awardID string) error

	// Close closes the database connection.
	Close() error
}

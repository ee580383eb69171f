package folio

import (
	"context"
	"fmt"
	"io"
)

// Action is one mutation request against the project aggregate. The set of
// actions is closed; see the concrete types below.
type Action interface {
	action() string
}

type AddImageAction struct {
	ProjectID string
	FileName  string
	Content   io.Reader
	Size      int64
}

type MoveImageAction struct {
	ProjectID string
	ImageID   string
	OldIndex  int
	NewIndex  int
}

type DeleteImageAction struct {
	ImageID string
}

type AddArtifactAction struct {
	ProjectID string
	Draft     ArtifactDraft
}

type DeleteArtifactAction struct {
	ArtifactID string
}

type InviteAction struct {
	ProjectID string
	Email     string
}

// AcceptInvitationAction links the acting user to the project.
type AcceptInvitationAction struct {
	ProjectID    string
	InvitationID string
}

// DeclineInvitationAction removes an invitation. Like acceptance it is
// scoped to the project the invitation was issued for.
type DeclineInvitationAction struct {
	ProjectID    string
	InvitationID string
}

type SetVisibilityAction struct {
	ProjectID string
	UserID    string
	Visible   bool
}

type DeleteProjectAction struct {
	ProjectID string
}

type UpdateProjectAction struct {
	ProjectID string
	Draft     ProjectDraft
}

type RemoveCollaboratorAction struct {
	ProjectID string
	UserID    string
}

func (AddImageAction) action() string           { return "add_image" }
func (MoveImageAction) action() string          { return "move_image" }
func (DeleteImageAction) action() string        { return "delete_image" }
func (AddArtifactAction) action() string        { return "add_artifact" }
func (DeleteArtifactAction) action() string     { return "delete_artifact" }
func (InviteAction) action() string             { return "invite" }
func (AcceptInvitationAction) action() string   { return "accept_invitation" }
func (DeclineInvitationAction) action() string  { return "decline_invitation" }
func (SetVisibilityAction) action() string      { return "set_visibility" }
func (DeleteProjectAction) action() string      { return "delete_project" }
func (UpdateProjectAction) action() string      { return "update_project" }
func (RemoveCollaboratorAction) action() string { return "remove_collaborator" }

// ActionName returns the wire name of an action.
func ActionName(a Action) string { return a.action() }

// Result carries what an action produced. At most one field is set.
type Result struct {
	Image      *Image
	Artifact   *Artifact
	Invitation *Invitation
}

// Dispatcher authorizes and executes actions on behalf of an actor.
type Dispatcher struct {
	service *FolioService
	logger  Logger
}

func NewDispatcher(service *FolioService, logger Logger) *Dispatcher {
	return &Dispatcher{service: service, logger: logger}
}

// Dispatch runs exactly one action. Every case authorizes first and returns
// its own result; nothing falls through.
func (d *Dispatcher) Dispatch(ctx context.Context, actor Actor, a Action) (Result, error) {
	d.logger.Debug("dispatching action", "action", a.action(), "user", actor.UserID)
	s := d.service

	switch act := a.(type) {
	case AddImageAction:
		if err := s.authorize(ctx, "AddImage", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		img, err := s.AddImage(ctx, act.ProjectID, act.FileName, act.Content, act.Size)
		return Result{Image: img}, err

	case MoveImageAction:
		if err := s.authorize(ctx, "MoveImage", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.MoveImage(ctx, act.ProjectID, act.ImageID, act.OldIndex, act.NewIndex)

	case DeleteImageAction:
		img, err := s.GetImage(ctx, act.ImageID)
		if err != nil {
			return Result{}, err
		}
		if err := s.authorize(ctx, "DeleteImage", actor, img.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.DeleteImage(ctx, act.ImageID)

	case AddArtifactAction:
		if err := s.authorize(ctx, "AddArtifact", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		artifact, err := s.AddArtifact(ctx, act.ProjectID, act.Draft)
		return Result{Artifact: artifact}, err

	case DeleteArtifactAction:
		artifact, err := s.GetArtifact(ctx, act.ArtifactID)
		if err != nil {
			return Result{}, err
		}
		if err := s.authorize(ctx, "DeleteArtifact", actor, artifact.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.DeleteArtifact(ctx, act.ArtifactID)

	case InviteAction:
		if err := s.authorize(ctx, "Invite", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		inv, err := s.Invite(ctx, act.ProjectID, act.Email)
		return Result{Invitation: inv}, err

	case AcceptInvitationAction:
		if actor.Anonymous() {
			return Result{}, forbidden("AcceptInvitation", "invitation", act.InvitationID)
		}
		return Result{}, s.AcceptInvitation(ctx, act.ProjectID, actor.UserID, act.InvitationID)

	case DeclineInvitationAction:
		if actor.Anonymous() {
			return Result{}, forbidden("DeclineInvitation", "invitation", act.InvitationID)
		}
		inv, err := s.GetInvitation(ctx, act.InvitationID)
		if KindOf(err) == KindNotFound {
			return Result{}, nil
		}
		if err != nil {
			return Result{}, err
		}
		if inv.ProjectID != act.ProjectID {
			return Result{}, notFound("DeclineInvitation", "invitation", act.InvitationID)
		}
		return Result{}, s.DeclineInvitation(ctx, act.InvitationID)

	case SetVisibilityAction:
		if err := s.authorize(ctx, "SetCollaboratorVisibility", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.SetCollaboratorVisibility(ctx, act.ProjectID, act.UserID, act.Visible)

	case DeleteProjectAction:
		if err := s.authorize(ctx, "DeleteProject", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.DeleteProject(ctx, act.ProjectID)

	case UpdateProjectAction:
		if err := s.authorize(ctx, "UpdateProject", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.UpdateProject(ctx, act.ProjectID, act.Draft)

	case RemoveCollaboratorAction:
		if err := s.authorize(ctx, "RemoveCollaborator", actor, act.ProjectID); err != nil {
			return Result{}, err
		}
		return Result{}, s.RemoveCollaborator(ctx, act.ProjectID, act.UserID)

	default:
		return Result{}, invalid("Dispatch", "", "", "unsupported action %s", fmt.Sprintf("%T", a))
	}
}

package folio

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Invite sends an invitation email for a project and records the invitation.
// Nothing is persisted when the email cannot be delivered.
func (s *FolioService) Invite(ctx context.Context, projectID, email string) (*Invitation, error) {
	const op = "Invite"
	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, invalid(op, "invitation", "", "%v", err)
	}
	project, err := s.projectSummary(ctx, op, projectID)
	if err != nil {
		return nil, err
	}

	invitation := &Invitation{
		ID:        s.idgen.New(),
		ProjectID: projectID,
		Email:     addr,
		CreatedAt: s.clock.Now(),
	}

	if err := s.mailer.Send(ctx, s.invitationMessage(project, invitation)); err != nil {
		s.logger.Error("sending invitation failed", "op", op, "project", projectID, "invitation", invitation.ID, "error", err)
		return nil, &Error{Kind: KindDelivery, Op: op, Entity: "invitation", ID: invitation.ID, Err: err}
	}

	if err := s.store.CreateInvitation(ctx, invitation); err != nil {
		s.logger.Error("recording invitation failed", "op", op, "project", projectID, "invitation", invitation.ID, "error", err)
		return nil, storeFailure(op, "invitation", invitation.ID, err)
	}

	s.logger.Info("invitation sent", "project", projectID, "invitation", invitation.ID)
	return invitation, nil
}

func (s *FolioService) invitationMessage(project *ProjectSummary, inv *Invitation) Message {
	var body strings.Builder
	fmt.Fprintf(&body, "You have been invited to collaborate on %q.\n\n", project.Title)
	if s.inviteBaseURL != "" {
		fmt.Fprintf(&body, "Accept or decline the invitation at %s/projects/%s/invitations/%s\n",
			s.inviteBaseURL, project.ID, inv.ID)
	} else {
		fmt.Fprintf(&body, "Invitation id: %s\n", inv.ID)
	}
	return Message{
		To:      []string{inv.Email},
		Subject: fmt.Sprintf("Invitation to collaborate on %s", project.Title),
		Body:    body.String(),
	}
}

// AcceptInvitation makes userID a visible collaborator on the project and
// removes the invitation in one transaction.
func (s *FolioService) AcceptInvitation(ctx context.Context, projectID, userID, invitationID string) error {
	const op = "AcceptInvitation"
	if strings.TrimSpace(userID) == "" {
		return invalid(op, "invitation", invitationID, "user id is required")
	}
	found, err := s.store.AcceptInvitation(ctx, projectID, userID, invitationID)
	if err != nil {
		s.logger.Error("accepting invitation failed", "op", op, "project", projectID, "invitation", invitationID, "error", err)
		return storeFailure(op, "invitation", invitationID, err)
	}
	if !found {
		return notFound(op, "invitation", invitationID)
	}

	s.logger.Info("invitation accepted", "project", projectID, "invitation", invitationID, "user", userID)
	return nil
}

// DeclineInvitation removes the invitation. Declining an invitation that no
// longer exists succeeds.
func (s *FolioService) DeclineInvitation(ctx context.Context, invitationID string) error {
	const op = "DeclineInvitation"
	found, err := s.store.DeleteInvitation(ctx, invitationID)
	if err != nil {
		s.logger.Error("declining invitation failed", "op", op, "invitation", invitationID, "error", err)
		return storeFailure(op, "invitation", invitationID, err)
	}
	if found {
		s.logger.Info("invitation declined", "invitation", invitationID)
	}
	return nil
}

// GetInvitation returns a pending invitation.
func (s *FolioService) GetInvitation(ctx context.Context, invitationID string) (*Invitation, error) {
	const op = "GetInvitation"
	inv, err := s.store.FindInvitation(ctx, invitationID)
	if err != nil {
		s.logger.Error("finding invitation failed", "op", op, "invitation", invitationID, "error", err)
		return nil, storeFailure(op, "invitation", invitationID, err)
	}
	if inv == nil {
		return nil, notFound(op, "invitation", invitationID)
	}
	return inv, nil
}

// ListInvitations returns a project's pending invitations, oldest first.
func (s *FolioService) ListInvitations(ctx context.Context, projectID string) ([]*Invitation, error) {
	const op = "ListInvitations"
	invs, err := s.store.ListInvitations(ctx, projectID)
	if err != nil {
		s.logger.Error("listing invitations failed", "op", op, "project", projectID, "error", err)
		return nil, storeFailure(op, "invitation", "", err)
	}
	return invs, nil
}

// ListInvitationsForEmail returns the pending invitations addressed to email.
func (s *FolioService) ListInvitationsForEmail(ctx context.Context, email string) ([]*Invitation, error) {
	const op = "ListInvitationsForEmail"
	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, invalid(op, "invitation", "", "%v", err)
	}
	invs, err := s.store.ListInvitationsForEmail(ctx, addr)
	if err != nil {
		s.logger.Error("listing invitations failed", "op", op, "error", err)
		return nil, storeFailure(op, "invitation", "", err)
	}
	return invs, nil
}

// ListCollaborators returns all collaborator links of a project.
func (s *FolioService) ListCollaborators(ctx context.Context, projectID string) ([]*CollaboratorLink, error) {
	const op = "ListCollaborators"
	links, err := s.store.ListCollaborators(ctx, projectID)
	if err != nil {
		s.logger.Error("listing collaborators failed", "op", op, "project", projectID, "error", err)
		return nil, storeFailure(op, "collaborator", "", err)
	}
	return links, nil
}

// SetCollaboratorVisibility controls whether userID is shown publicly on the project.
func (s *FolioService) SetCollaboratorVisibility(ctx context.Context, projectID, userID string, visible bool) error {
	const op = "SetCollaboratorVisibility"
	found, err := s.store.SetCollaboratorVisibility(ctx, projectID, userID, visible)
	if err != nil {
		s.logger.Error("updating visibility failed", "op", op, "project", projectID, "user", userID, "error", err)
		return storeFailure(op, "collaborator", userID, err)
	}
	if !found {
		return notFound(op, "collaborator", userID)
	}
	s.logger.Info("collaborator visibility changed", "project", projectID, "user", userID, "visible", visible)
	return nil
}

// RemoveCollaborator unlinks userID from the project. The last collaborator
// cannot be removed.
func (s *FolioService) RemoveCollaborator(ctx context.Context, projectID, userID string) error {
	const op = "RemoveCollaborator"
	found, err := s.store.RemoveCollaborator(ctx, projectID, userID)
	if errors.Is(err, ErrLastCollaborator) {
		return invalid(op, "collaborator", userID, "cannot remove the last collaborator")
	}
	if err != nil {
		s.logger.Error("removing collaborator failed", "op", op, "project", projectID, "user", userID, "error", err)
		return storeFailure(op, "collaborator", userID, err)
	}
	if !found {
		return notFound(op, "collaborator", userID)
	}
	s.logger.Info("collaborator removed", "project", projectID, "user", userID)
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fmt.Errorf("invalid email %q: %w", email, err)
	}
	if addr.Address != email {
		return "", fmt.Errorf("invalid email %q: expected a bare address", email)
	}
	return strings.ToLower(addr.Address), nil
}

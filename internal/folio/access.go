package folio

import "context"

// Access is the outcome of an authorization predicate.
type Access int

const (
	// AccessUndetermined means the store could not answer. Treat as deny.
	AccessUndetermined Access = iota
	AccessDenied
	AccessGranted
)

func (a Access) String() string {
	switch a {
	case AccessGranted:
		return "granted"
	case AccessDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

// Granted reports whether the predicate definitely holds.
func (a Access) Granted() bool { return a == AccessGranted }

// IsCollaborator reports whether userID is linked to the project and, when
// requireVisible is set, shown publicly on it. A store failure yields
// AccessUndetermined together with an Undetermined error.
func (s *FolioService) IsCollaborator(ctx context.Context, projectID, userID string, requireVisible bool) (Access, error) {
	const op = "IsCollaborator"
	if userID == "" {
		return AccessDenied, nil
	}
	link, err := s.store.FindCollaborator(ctx, projectID, userID)
	if err != nil {
		s.logger.Error("collaborator lookup failed", "op", op, "project", projectID, "user", userID, "error", err)
		return AccessUndetermined, &Error{Kind: KindUndetermined, Op: op, Entity: "collaborator", ID: userID, Err: err}
	}
	if link == nil {
		return AccessDenied, nil
	}
	if requireVisible && !link.Visible {
		return AccessDenied, nil
	}
	return AccessGranted, nil
}

// CanView reports whether actor may read the project. Published projects are
// public; unpublished ones are visible to collaborators only.
func (s *FolioService) CanView(ctx context.Context, actor Actor, projectID string) (Access, error) {
	project, err := s.projectSummary(ctx, "CanView", projectID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return AccessDenied, err
		}
		return AccessUndetermined, &Error{Kind: KindUndetermined, Op: "CanView", Entity: "project", ID: projectID, Err: err}
	}
	if project.Published {
		return AccessGranted, nil
	}
	return s.IsCollaborator(ctx, projectID, actor.UserID, false)
}

// authorize requires actor to be a collaborator on the project. Anything but
// a definite grant is refused.
func (s *FolioService) authorize(ctx context.Context, op string, actor Actor, projectID string) error {
	if actor.Anonymous() {
		return forbidden(op, "project", projectID)
	}
	access, err := s.IsCollaborator(ctx, projectID, actor.UserID, false)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			fe.Op = op
		}
		return err
	}
	if !access.Granted() {
		return forbidden(op, "project", projectID)
	}
	return nil
}

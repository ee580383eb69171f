package folio

import (
	"context"
	"strings"
)

// FolioService is the orchestration layer over the relational store, the
// private blob store and the mailer. It holds no per-request state; every
// operation receives what it needs through its arguments.
type FolioService struct {
	store         Store
	blobs         BlobStore
	mailer        Mailer
	encryptor     Encryptor // nil disables at-rest encryption of file artifacts
	logger        Logger
	clock         Clock
	idgen         IDGenerator
	inviteBaseURL string
}

// Option configures optional FolioService behaviour.
type Option func(*FolioService)

// WithEncryptor encrypts file artifact content with enc before it reaches
// the blob store.
func WithEncryptor(enc Encryptor) Option {
	return func(s *FolioService) { s.encryptor = enc }
}

// WithInviteBaseURL sets the link prefix used in invitation emails.
func WithInviteBaseURL(url string) Option {
	return func(s *FolioService) { s.inviteBaseURL = strings.TrimRight(url, "/") }
}

// NewFolioService creates a new FolioService with the provided dependencies.
func NewFolioService(store Store, blobs BlobStore, mailer Mailer, logger Logger, clock Clock, idgen IDGenerator, opts ...Option) *FolioService {
	s := &FolioService{
		store:  store,
		blobs:  blobs,
		mailer: mailer,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProject creates a project owned by actor. The owner becomes its
// first, visible collaborator.
func (s *FolioService) CreateProject(ctx context.Context, actor Actor, draft ProjectDraft) (*Project, error) {
	const op = "CreateProject"
	if actor.Anonymous() {
		return nil, forbidden(op, "project", "")
	}
	if err := validateDraft(op, "", &draft); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	project := &Project{
		ID:          s.idgen.New(),
		Title:       draft.Title,
		Description: draft.Description,
		Published:   draft.Published,
		Category:    draft.Category,
		Keywords:    draft.Keywords,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProject(ctx, project, actor.UserID); err != nil {
		s.logger.Error("creating project failed", "op", op, "project", project.ID, "error", err)
		return nil, storeFailure(op, "project", project.ID, err)
	}
	project.Collaborators = []*CollaboratorLink{{ProjectID: project.ID, UserID: actor.UserID, Visible: true}}

	s.logger.Info("project created", "project", project.ID, "owner", actor.UserID)
	return project, nil
}

// UpdateProject replaces a project's editable fields and keywords.
func (s *FolioService) UpdateProject(ctx context.Context, projectID string, draft ProjectDraft) error {
	const op = "UpdateProject"
	if err := validateDraft(op, projectID, &draft); err != nil {
		return err
	}

	project := &Project{
		ID:          projectID,
		Title:       draft.Title,
		Description: draft.Description,
		Published:   draft.Published,
		Category:    draft.Category,
		Keywords:    draft.Keywords,
		UpdatedAt:   s.clock.Now(),
	}
	found, err := s.store.UpdateProject(ctx, project)
	if err != nil {
		s.logger.Error("updating project failed", "op", op, "project", projectID, "error", err)
		return storeFailure(op, "project", projectID, err)
	}
	if !found {
		return notFound(op, "project", projectID)
	}

	s.logger.Info("project updated", "project", projectID)
	return nil
}

// GetProject returns the full project aggregate.
func (s *FolioService) GetProject(ctx context.Context, projectID string) (*Project, error) {
	const op = "GetProject"
	project, err := s.store.FetchProject(ctx, projectID)
	if err != nil {
		s.logger.Error("fetching project failed", "op", op, "project", projectID, "error", err)
		return nil, storeFailure(op, "project", projectID, err)
	}
	if project == nil {
		return nil, notFound(op, "project", projectID)
	}
	return project, nil
}

// ListProjects returns project summaries matching filter, highest score first.
func (s *FolioService) ListProjects(ctx context.Context, filter ProjectFilter) ([]*ProjectSummary, error) {
	const op = "ListProjects"
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	projects, err := s.store.ListProjects(ctx, filter)
	if err != nil {
		s.logger.Error("listing projects failed", "op", op, "error", err)
		return nil, storeFailure(op, "project", "", err)
	}
	return projects, nil
}

// DeleteProject removes a project with its artifacts, images, links and
// invitations. The rows are committed first and the blobs are removed
// afterwards; a blob that cannot be removed is logged as an orphan and does
// not fail the delete.
func (s *FolioService) DeleteProject(ctx context.Context, projectID string) error {
	const op = "DeleteProject"
	deleted, err := s.store.DeleteProject(ctx, projectID, nil)
	if err != nil {
		s.logger.Error("deleting project failed", "op", op, "project", projectID, "error", err)
		return classify(op, "project", projectID, err)
	}
	if deleted == nil {
		return notFound(op, "project", projectID)
	}

	keys := make([]string, 0, len(deleted.Images)+len(deleted.Artifacts))
	for _, img := range deleted.Images {
		keys = append(keys, ImageBlobKey(img.ID))
	}
	for _, a := range deleted.Artifacts {
		if a.IsFile() {
			keys = append(keys, ArtifactBlobKey(a.ID, a.Extension))
		}
	}
	orphans := 0
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			orphans++
			s.logger.Warn("orphaned blob", "op", op, "project", projectID, "key", key, "error", err)
		}
	}

	s.logger.Info("project deleted", "project", projectID, "images", len(deleted.Images), "artifacts", len(deleted.Artifacts), "orphaned_blobs", orphans)
	return nil
}

// CreateAward registers an award that can later be granted to projects.
func (s *FolioService) CreateAward(ctx context.Context, award Award) (*Award, error) {
	const op = "CreateAward"
	award.Name = strings.TrimSpace(award.Name)
	if award.Name == "" {
		return nil, invalid(op, "award", "", "name is required")
	}
	award.ID = s.idgen.New()
	if err := s.store.CreateAward(ctx, &award); err != nil {
		s.logger.Error("creating award failed", "op", op, "error", err)
		return nil, storeFailure(op, "award", award.ID, err)
	}
	return &award, nil
}

// GrantAward associates an award with a project.
func (s *FolioService) GrantAward(ctx context.Context, projectID, awardID string) error {
	const op = "GrantAward"
	if err := s.requireProject(ctx, op, projectID); err != nil {
		return err
	}
	if err := s.store.GrantAward(ctx, projectID, awardID); err != nil {
		s.logger.Error("granting award failed", "op", op, "project", projectID, "award", awardID, "error", err)
		return storeFailure(op, "award", awardID, err)
	}
	return nil
}

// requireProject returns a NotFound error when the project does not exist.
func (s *FolioService) requireProject(ctx context.Context, op, projectID string) error {
	_, err := s.projectSummary(ctx, op, projectID)
	return err
}

func (s *FolioService) projectSummary(ctx context.Context, op, projectID string) (*ProjectSummary, error) {
	summary, err := s.store.FindProjectSummary(ctx, projectID)
	if err != nil {
		s.logger.Error("looking up project failed", "op", op, "project", projectID, "error", err)
		return nil, storeFailure(op, "project", projectID, err)
	}
	if summary == nil {
		return nil, notFound(op, "project", projectID)
	}
	return summary, nil
}

func validateDraft(op, projectID string, draft *ProjectDraft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Category = strings.TrimSpace(draft.Category)
	if draft.Title == "" {
		return invalid(op, "project", projectID, "title is required")
	}
	if len(draft.Title) > 200 {
		return invalid(op, "project", projectID, "title longer than 200 characters")
	}
	draft.Keywords = normalizeKeywords(draft.Keywords)
	return nil
}

// normalizeKeywords lowercases, trims and de-duplicates keywords, keeping
// first-seen order.
func normalizeKeywords(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

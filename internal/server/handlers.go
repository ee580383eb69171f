package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"folio/internal/folio"
)

type handlers struct {
	service    *folio.FolioService
	dispatcher *folio.Dispatcher
	logger     zerolog.Logger
}

func (h *handlers) dispatch(w http.ResponseWriter, r *http.Request, act folio.Action) (folio.Result, bool) {
	res, err := h.dispatcher.Dispatch(r.Context(), actorFrom(r.Context()), act)
	if err != nil {
		writeError(w, h.logger, err)
		return res, false
	}
	return res, true
}

// isInsider reports whether the caller collaborates on the project. Lookup
// failures count as no.
func (h *handlers) isInsider(r *http.Request, projectID string) bool {
	access, err := h.service.IsCollaborator(r.Context(), projectID, actorFrom(r.Context()).UserID, false)
	return err == nil && access.Granted()
}

func (h *handlers) requireCollaborator(w http.ResponseWriter, r *http.Request, op, projectID string) bool {
	access, err := h.service.IsCollaborator(r.Context(), projectID, actorFrom(r.Context()).UserID, false)
	if err != nil {
		writeError(w, h.logger, err)
		return false
	}
	if !access.Granted() {
		writeError(w, h.logger, &folio.Error{Kind: folio.KindForbidden, Op: op, Entity: "project", ID: projectID})
		return false
	}
	return true
}

func (h *handlers) requireView(w http.ResponseWriter, r *http.Request, op, projectID string) bool {
	access, err := h.service.CanView(r.Context(), actorFrom(r.Context()), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return false
	}
	if !access.Granted() {
		writeError(w, h.logger, &folio.Error{Kind: folio.KindForbidden, Op: op, Entity: "project", ID: projectID})
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, "invalid JSON body", err)
		return false
	}
	return true
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), "")
			return nil, false
		}
		badRequest(w, "reading request body", err)
		return nil, false
	}
	return data, true
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string, fallback bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return v, nil
}

// Projects

type projectRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Published   bool     `json:"published"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
}

type projectPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Published   *bool     `json:"published"`
	Category    *string   `json:"category"`
	Keywords    *[]string `json:"keywords"`
}

// listProjects returns published projects matching q. With published=false
// it also includes unpublished projects the caller collaborates on.
func (h *handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	publishedOnly, err := queryBool(r, "published", true)
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}
	filter := folio.ProjectFilter{Query: r.URL.Query().Get("q"), PublishedOnly: publishedOnly}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(w, "limit must be a non-negative integer", nil)
			return
		}
		filter.Limit = limit
	}

	summaries, err := h.service.ListProjects(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]summaryView, 0, len(summaries))
	for _, s := range summaries {
		if !s.Published && !h.isInsider(r, s.ID) {
			continue
		}
		out = append(out, newSummaryView(s))
	}
	writeOK(w, out)
}

func (h *handlers) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.service.CreateProject(r.Context(), actorFrom(r.Context()), folio.ProjectDraft{
		Title:       req.Title,
		Description: req.Description,
		Published:   req.Published,
		Category:    req.Category,
		Keywords:    req.Keywords,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeCreated(w, newProjectView(project, true))
}

func (h *handlers) getProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if !h.requireView(w, r, "GetProject", projectID) {
		return
	}
	project, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, newProjectView(project, h.isInsider(r, projectID)))
}

func (h *handlers) updateProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	var patch projectPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if !h.requireCollaborator(w, r, "UpdateProject", projectID) {
		return
	}
	current, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	draft := folio.ProjectDraft{
		Title:       current.Title,
		Description: current.Description,
		Published:   current.Published,
		Category:    current.Category,
		Keywords:    current.Keywords,
	}
	if patch.Title != nil {
		draft.Title = *patch.Title
	}
	if patch.Description != nil {
		draft.Description = *patch.Description
	}
	if patch.Published != nil {
		draft.Published = *patch.Published
	}
	if patch.Category != nil {
		draft.Category = *patch.Category
	}
	if patch.Keywords != nil {
		draft.Keywords = *patch.Keywords
	}

	if _, ok := h.dispatch(w, r, folio.UpdateProjectAction{ProjectID: projectID, Draft: draft}); !ok {
		return
	}
	updated, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, newProjectView(updated, true))
}

func (h *handlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dispatch(w, r, folio.DeleteProjectAction{ProjectID: chi.URLParam(r, "projectID")}); !ok {
		return
	}
	writeOK(w, nil)
}

// Images

type moveRequest struct {
	OldIndex *int `json:"old_index"`
	NewIndex *int `json:"new_index"`
}

func (h *handlers) addImage(w http.ResponseWriter, r *http.Request) {
	data, ok := readUpload(w, r)
	if !ok {
		return
	}
	res, ok := h.dispatch(w, r, folio.AddImageAction{
		ProjectID: chi.URLParam(r, "projectID"),
		FileName:  r.URL.Query().Get("file_name"),
		Content:   bytes.NewReader(data),
		Size:      int64(len(data)),
	})
	if !ok {
		return
	}
	writeCreated(w, newImageView(res.Image))
}

// moveImage reorders one image and returns the project's full gallery.
func (h *handlers) moveImage(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OldIndex == nil || req.NewIndex == nil {
		badRequest(w, "old_index and new_index are required", nil)
		return
	}
	_, ok := h.dispatch(w, r, folio.MoveImageAction{
		ProjectID: projectID,
		ImageID:   chi.URLParam(r, "imageID"),
		OldIndex:  *req.OldIndex,
		NewIndex:  *req.NewIndex,
	})
	if !ok {
		return
	}
	project, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, newImageViews(project.Images))
}

func (h *handlers) deleteImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dispatch(w, r, folio.DeleteImageAction{ImageID: chi.URLParam(r, "imageID")}); !ok {
		return
	}
	writeOK(w, nil)
}

func (h *handlers) imageContent(w http.ResponseWriter, r *http.Request) {
	img, err := h.service.GetImage(r.Context(), chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !h.requireView(w, r, "ImageContent", img.ProjectID) {
		return
	}
	var buf bytes.Buffer
	if err := h.service.ImageContent(r.Context(), img.ID, &buf); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(buf.Bytes()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// Artifacts

type linkArtifactRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
	Link        string `json:"link"`
}

func (h *handlers) addLinkArtifact(w http.ResponseWriter, r *http.Request) {
	var req linkArtifactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, ok := h.dispatch(w, r, folio.AddArtifactAction{
		ProjectID: chi.URLParam(r, "projectID"),
		Draft: folio.ArtifactDraft{
			Name:        req.Name,
			Description: req.Description,
			Published:   req.Published,
			Link:        req.Link,
		},
	})
	if !ok {
		return
	}
	writeCreated(w, newArtifactView(res.Artifact))
}

func (h *handlers) addFileArtifact(w http.ResponseWriter, r *http.Request) {
	published, err := queryBool(r, "published", false)
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}
	data, ok := readUpload(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	res, ok := h.dispatch(w, r, folio.AddArtifactAction{
		ProjectID: chi.URLParam(r, "projectID"),
		Draft: folio.ArtifactDraft{
			Name:        q.Get("name"),
			Description: q.Get("description"),
			Published:   published,
			Content:     bytes.NewReader(data),
			Size:        int64(len(data)),
			Extension:   q.Get("ext"),
		},
	})
	if !ok {
		return
	}
	writeCreated(w, newArtifactView(res.Artifact))
}

func (h *handlers) deleteArtifact(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.dispatch(w, r, folio.DeleteArtifactAction{ArtifactID: chi.URLParam(r, "artifactID")}); !ok {
		return
	}
	writeOK(w, nil)
}

// artifactContent streams a plaintext file artifact. Unpublished artifacts
// are limited to collaborators. Encrypted content is only readable from the
// CLI, which can prompt for the passphrase.
func (h *handlers) artifactContent(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.service.GetArtifact(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if artifact.Published {
		if !h.requireView(w, r, "ArtifactContent", artifact.ProjectID) {
			return
		}
	} else if !h.requireCollaborator(w, r, "ArtifactContent", artifact.ProjectID) {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ArtifactContent(r.Context(), artifact.ID, &buf, nil); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(buf.Bytes()))
	filename := artifact.Name
	if artifact.Extension != "" {
		filename += "." + artifact.Extension
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// Collaboration

type inviteRequest struct {
	Email string `json:"email"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

func (h *handlers) invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, ok := h.dispatch(w, r, folio.InviteAction{ProjectID: chi.URLParam(r, "projectID"), Email: req.Email})
	if !ok {
		return
	}
	writeCreated(w, newInvitationView(res.Invitation))
}

func (h *handlers) listInvitations(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if !h.requireCollaborator(w, r, "ListInvitations", projectID) {
		return
	}
	invitations, err := h.service.ListInvitations(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]invitationView, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, newInvitationView(inv))
	}
	writeOK(w, out)
}

func (h *handlers) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	_, ok := h.dispatch(w, r, folio.AcceptInvitationAction{
		ProjectID:    chi.URLParam(r, "projectID"),
		InvitationID: chi.URLParam(r, "invitationID"),
	})
	if !ok {
		return
	}
	writeOK(w, nil)
}

func (h *handlers) declineInvitation(w http.ResponseWriter, r *http.Request) {
	_, ok := h.dispatch(w, r, folio.DeclineInvitationAction{
		ProjectID:    chi.URLParam(r, "projectID"),
		InvitationID: chi.URLParam(r, "invitationID"),
	})
	if !ok {
		return
	}
	writeOK(w, nil)
}

// listCollaborators shows every link to collaborators and visible links to
// anyone who can view the project.
func (h *handlers) listCollaborators(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if !h.requireView(w, r, "ListCollaborators", projectID) {
		return
	}
	links, err := h.service.ListCollaborators(r.Context(), projectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	insider := h.isInsider(r, projectID)
	out := make([]collaboratorView, 0, len(links))
	for _, l := range links {
		if insider || l.Visible {
			out = append(out, collaboratorView{UserID: l.UserID, Visible: l.Visible})
		}
	}
	writeOK(w, out)
}

// isCollaborator answers the membership predicate. Hidden links are only
// disclosed to collaborators and to the user themselves.
func (h *handlers) isCollaborator(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	userID := chi.URLParam(r, "userID")
	visible, err := queryBool(r, "visible", false)
	if err != nil {
		badRequest(w, err.Error(), nil)
		return
	}
	if !visible && actorFrom(r.Context()).UserID != userID && !h.requireCollaborator(w, r, "IsCollaborator", projectID) {
		return
	}

	access, err := h.service.IsCollaborator(r.Context(), projectID, userID, visible)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, map[string]any{"access": access.String(), "granted": access.Granted()})
}

func (h *handlers) setVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Visible == nil {
		badRequest(w, "visible is required", nil)
		return
	}
	_, ok := h.dispatch(w, r, folio.SetVisibilityAction{
		ProjectID: chi.URLParam(r, "projectID"),
		UserID:    chi.URLParam(r, "userID"),
		Visible:   *req.Visible,
	})
	if !ok {
		return
	}
	writeOK(w, nil)
}

func (h *handlers) removeCollaborator(w http.ResponseWriter, r *http.Request) {
	_, ok := h.dispatch(w, r, folio.RemoveCollaboratorAction{
		ProjectID: chi.URLParam(r, "projectID"),
		UserID:    chi.URLParam(r, "userID"),
	})
	if !ok {
		return
	}
	writeOK(w, nil)
}

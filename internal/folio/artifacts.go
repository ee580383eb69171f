package folio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ArtifactDraft describes a new artifact. Exactly one of Link or Content
// must be set.
type ArtifactDraft struct {
	Name        string
	Description string
	Published   bool

	Link string

	Content   io.Reader
	Size      int64
	Extension string
}

// AddArtifact records a link artifact, or stores a file artifact's content
// (encrypted when an Encryptor is configured) and records it.
func (s *FolioService) AddArtifact(ctx context.Context, projectID string, draft ArtifactDraft) (*Artifact, error) {
	const op = "AddArtifact"
	if err := validateArtifactDraft(op, &draft); err != nil {
		return nil, err
	}
	if err := s.requireProject(ctx, op, projectID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	artifact := &Artifact{
		ID:          s.idgen.New(),
		ProjectID:   projectID,
		Name:        draft.Name,
		Description: draft.Description,
		Published:   draft.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var key string
	if draft.Content != nil {
		artifact.FileUploaded = true
		artifact.Extension = draft.Extension
		artifact.Encrypted = s.encryptor != nil
		key = ArtifactBlobKey(artifact.ID, artifact.Extension)
		if err := s.putArtifactContent(ctx, key, draft.Content, draft.Size); err != nil {
			s.logger.Error("storing artifact content failed", "op", op, "artifact", artifact.ID, "error", err)
			return nil, blobFailure(op, "artifact", artifact.ID, err)
		}
	} else {
		artifact.Link = draft.Link
	}

	if err := s.store.CreateArtifact(ctx, artifact); err != nil {
		s.logger.Error("recording artifact failed", "op", op, "artifact", artifact.ID, "error", err)
		if key != "" {
			if derr := s.blobs.Delete(ctx, key); derr != nil {
				s.logger.Warn("orphaned artifact blob", "key", key, "error", derr)
			}
		}
		return nil, storeFailure(op, "artifact", artifact.ID, err)
	}

	s.logger.Info("artifact added", "project", projectID, "artifact", artifact.ID, "file", artifact.FileUploaded)
	return artifact, nil
}

func (s *FolioService) putArtifactContent(ctx context.Context, key string, content io.Reader, size int64) error {
	if s.encryptor == nil {
		return s.blobs.Put(ctx, key, content, size)
	}
	var buf bytes.Buffer
	if err := s.encryptor.Encrypt(content, &buf); err != nil {
		return fmt.Errorf("encrypting content: %w", err)
	}
	return s.blobs.Put(ctx, key, &buf, int64(buf.Len()))
}

// DeleteArtifact removes an artifact. For file artifacts the blob is deleted
// before the row removal commits; a blob failure leaves the row in place.
func (s *FolioService) DeleteArtifact(ctx context.Context, artifactID string) error {
	const op = "DeleteArtifact"
	deleted, err := s.store.DeleteArtifact(ctx, artifactID, func(a *Artifact) error {
		if !a.IsFile() {
			return nil
		}
		if err := s.blobs.Delete(ctx, ArtifactBlobKey(a.ID, a.Extension)); err != nil {
			return blobFailure(op, "artifact", a.ID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("deleting artifact failed", "op", op, "artifact", artifactID, "error", err)
		return classify(op, "artifact", artifactID, err)
	}
	if deleted == nil {
		return notFound(op, "artifact", artifactID)
	}

	s.logger.Info("artifact deleted", "project", deleted.ProjectID, "artifact", artifactID)
	return nil
}

// GetArtifact returns an artifact's metadata.
func (s *FolioService) GetArtifact(ctx context.Context, artifactID string) (*Artifact, error) {
	const op = "GetArtifact"
	artifact, err := s.store.FindArtifact(ctx, artifactID)
	if err != nil {
		s.logger.Error("finding artifact failed", "op", op, "artifact", artifactID, "error", err)
		return nil, storeFailure(op, "artifact", artifactID, err)
	}
	if artifact == nil {
		return nil, notFound(op, "artifact", artifactID)
	}
	return artifact, nil
}

// ArtifactContent writes a file artifact's content to w. dec is required
// when the artifact was stored encrypted and ignored otherwise.
func (s *FolioService) ArtifactContent(ctx context.Context, artifactID string, w io.Writer, dec DecryptionContext) error {
	const op = "ArtifactContent"
	artifact, err := s.GetArtifact(ctx, artifactID)
	if err != nil {
		return err
	}
	if !artifact.IsFile() {
		return invalid(op, "artifact", artifactID, "link artifact has no stored content")
	}
	key := ArtifactBlobKey(artifact.ID, artifact.Extension)

	if !artifact.Encrypted {
		if err := s.blobs.Get(ctx, key, w); err != nil {
			return blobFailure(op, "artifact", artifactID, err)
		}
		return nil
	}

	if dec == nil {
		return invalid(op, "artifact", artifactID, "artifact is encrypted; unlock the private key first")
	}
	var buf bytes.Buffer
	if err := s.blobs.Get(ctx, key, &buf); err != nil {
		return blobFailure(op, "artifact", artifactID, err)
	}
	if err := dec.Decrypt(&buf, w); err != nil {
		return blobFailure(op, "artifact", artifactID, fmt.Errorf("decrypting content: %w", err))
	}
	return nil
}

func validateArtifactDraft(op string, draft *ArtifactDraft) error {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Link = strings.TrimSpace(draft.Link)

	if draft.Name == "" {
		return invalid(op, "artifact", "", "name is required")
	}
	hasLink, hasFile := draft.Link != "", draft.Content != nil
	if hasLink == hasFile {
		return invalid(op, "artifact", "", "exactly one of link or file content is required")
	}

	if hasLink {
		u, err := url.Parse(draft.Link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid(op, "artifact", "", "link must be an absolute http(s) URL")
		}
		draft.Extension = ""
		return nil
	}

	if draft.Size < 0 {
		return invalid(op, "artifact", "", "negative size")
	}
	ext, err := normalizeExtension(draft.Extension)
	if err != nil {
		return invalid(op, "artifact", "", "%v", err)
	}
	draft.Extension = ext
	return nil
}

// normalizeExtension lowercases ext and strips a leading dot. Only short
// alphanumeric extensions are accepted since they become part of a blob key.
func normalizeExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if len(ext) > 10 {
		return "", fmt.Errorf("extension %q too long", ext)
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("extension %q must be alphanumeric", ext)
		}
	}
	return ext, nil
}

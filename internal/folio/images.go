package folio

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// AddImage stores the image content and appends the image at the end of the
// project's order. The blob is written first; if the metadata insert fails
// the blob is removed again.
func (s *FolioService) AddImage(ctx context.Context, projectID, fileName string, content io.Reader, size int64) (*Image, error) {
	const op = "AddImage"
	fileName = strings.TrimSpace(filepath.Base(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, invalid(op, "image", "", "file name is required")
	}
	if size < 0 {
		return nil, invalid(op, "image", "", "negative size")
	}
	if err := s.requireProject(ctx, op, projectID); err != nil {
		return nil, err
	}

	image := &Image{
		ID:        s.idgen.New(),
		ProjectID: projectID,
		FileName:  fileName,
		CreatedAt: s.clock.Now(),
	}

	key := ImageBlobKey(image.ID)
	if err := s.blobs.Put(ctx, key, content, size); err != nil {
		s.logger.Error("storing image content failed", "op", op, "image", image.ID, "error", err)
		return nil, blobFailure(op, "image", image.ID, err)
	}

	if err := s.store.AppendImage(ctx, image); err != nil {
		s.logger.Error("recording image failed", "op", op, "image", image.ID, "error", err)
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Warn("orphaned image blob", "key", key, "error", derr)
		}
		return nil, storeFailure(op, "image", image.ID, err)
	}

	s.logger.Info("image added", "project", projectID, "image", image.ID, "order", image.Order)
	return image, nil
}

// MoveImage moves an image from oldIndex to newIndex within its project.
func (s *FolioService) MoveImage(ctx context.Context, projectID, imageID string, oldIndex, newIndex int) error {
	const op = "MoveImage"
	if err := s.store.MoveImage(ctx, projectID, imageID, oldIndex, newIndex); err != nil {
		fe := classify(op, "image", imageID, err)
		if fe.Kind == KindStore {
			s.logger.Error("moving image failed", "op", op, "image", imageID, "error", err)
		}
		return fe
	}

	s.logger.Info("image moved", "project", projectID, "image", imageID, "from", oldIndex, "to", newIndex)
	return nil
}

// DeleteImage compacts the order of the remaining images, deletes the blob
// and removes the row, all before the transaction commits. If the blob
// cannot be deleted nothing changes.
func (s *FolioService) DeleteImage(ctx context.Context, imageID string) error {
	const op = "DeleteImage"
	deleted, err := s.store.DeleteImage(ctx, imageID, func(img *Image) error {
		if err := s.blobs.Delete(ctx, ImageBlobKey(img.ID)); err != nil {
			return blobFailure(op, "image", img.ID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("deleting image failed", "op", op, "image", imageID, "error", err)
		return classify(op, "image", imageID, err)
	}
	if deleted == nil {
		return notFound(op, "image", imageID)
	}

	s.logger.Info("image deleted", "project", deleted.ProjectID, "image", imageID, "order", deleted.Order)
	return nil
}

// GetImage returns an image's metadata.
func (s *FolioService) GetImage(ctx context.Context, imageID string) (*Image, error) {
	const op = "GetImage"
	image, err := s.store.FindImage(ctx, imageID)
	if err != nil {
		s.logger.Error("finding image failed", "op", op, "image", imageID, "error", err)
		return nil, storeFailure(op, "image", imageID, err)
	}
	if image == nil {
		return nil, notFound(op, "image", imageID)
	}
	return image, nil
}

// ImageContent writes an image's blob to w.
func (s *FolioService) ImageContent(ctx context.Context, imageID string, w io.Writer) error {
	const op = "ImageContent"
	if _, err := s.GetImage(ctx, imageID); err != nil {
		return err
	}
	if err := s.blobs.Get(ctx, ImageBlobKey(imageID), w); err != nil {
		s.logger.Error("reading image content failed", "op", op, "image", imageID, "error", err)
		return blobFailure(op, "image", imageID, err)
	}
	return nil
}

package folio_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"folio/internal/folio"
	"folio/internal/testutil"
)

var owner = folio.Actor{UserID: "owner"}

func newProject(t *testing.T, h *testutil.Harness, title string) *folio.Project {
	t.Helper()
	p, err := h.Service.CreateProject(context.Background(), owner, folio.ProjectDraft{
		Title:    title,
		Keywords: []string{"Go", "sql"},
	})
	if err != nil {
		t.Fatalf("CreateProject(%q) error = %v", title, err)
	}
	return p
}

func addImage(t *testing.T, h *testutil.Harness, projectID, name string) *folio.Image {
	t.Helper()
	img, err := h.Service.AddImage(context.Background(), projectID, name, strings.NewReader("img:"+name), int64(len("img:"+name)))
	if err != nil {
		t.Fatalf("AddImage(%q) error = %v", name, err)
	}
	return img
}

// imageOrder returns "name@order" for each image of the project, in order.
func imageOrder(t *testing.T, h *testutil.Harness, projectID string) []string {
	t.Helper()
	p, err := h.Service.GetProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	out := make([]string, len(p.Images))
	for i, img := range p.Images {
		out[i] = img.FileName + "@" + strconv.Itoa(img.Order)
	}
	return out
}

func assertKind(t *testing.T, err error, want folio.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := folio.KindOf(err); got != want {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, want)
	}
}

func content(t *testing.T, read func(w *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := read(&buf); err != nil {
		t.Fatalf("reading content: %v", err)
	}
	return buf.String()
}

// flakyStore fails collaborator lookups to exercise undetermined access.
type flakyStore struct {
	folio.Store
	lookupErr error
}

func (f *flakyStore) FindCollaborator(ctx context.Context, projectID, userID string) (*folio.CollaboratorLink, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.Store.FindCollaborator(ctx, projectID, userID)
}

var errConnLost = errors.New("connection lost")

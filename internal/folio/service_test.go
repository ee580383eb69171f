package folio_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"folio/internal/folio"
	"folio/internal/testutil"
)

func TestCreateProject(t *testing.T) {
	ctx := context.Background()

	t.Run("owner becomes visible collaborator", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p, err := h.Service.CreateProject(ctx, owner, folio.ProjectDraft{
			Title:    "  Engine  ",
			Keywords: []string{"Go", "go", " SQL ", ""},
		})
		if err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
		if p.Title != "Engine" {
			t.Errorf("Title = %q, want trimmed %q", p.Title, "Engine")
		}

		got, err := h.Service.GetProject(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetProject() error = %v", err)
		}
		if strings.Join(got.Keywords, ",") != "go,sql" {
			t.Errorf("Keywords = %v, want [go sql]", got.Keywords)
		}
		if len(got.Collaborators) != 1 || got.Collaborators[0].UserID != "owner" || !got.Collaborators[0].Visible {
			t.Errorf("Collaborators = %+v, want visible owner", got.Collaborators)
		}
	})

	t.Run("anonymous actor is refused", func(t *testing.T) {
		h := testutil.NewHarness(t)
		_, err := h.Service.CreateProject(ctx, folio.Actor{}, folio.ProjectDraft{Title: "x"})
		assertKind(t, err, folio.KindForbidden)
	})

	t.Run("title is required", func(t *testing.T) {
		h := testutil.NewHarness(t)
		_, err := h.Service.CreateProject(ctx, owner, folio.ProjectDraft{Title: "   "})
		assertKind(t, err, folio.KindValidation)
		if !errors.Is(err, folio.ErrValidation) {
			t.Errorf("errors.Is(err, ErrValidation) = false for %v", err)
		}
	})
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")

	if err := h.Service.UpdateProject(ctx, p.ID, folio.ProjectDraft{Title: "Engine 2", Published: true, Keywords: []string{"rust"}}); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	got, err := h.Service.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.Title != "Engine 2" || !got.Published || strings.Join(got.Keywords, ",") != "rust" {
		t.Errorf("after update got %q published=%v keywords=%v", got.Title, got.Published, got.Keywords)
	}

	assertKind(t, h.Service.UpdateProject(ctx, "missing", folio.ProjectDraft{Title: "x"}), folio.KindNotFound)
}

func TestGetProject_NotFound(t *testing.T) {
	h := testutil.NewHarness(t)
	_, err := h.Service.GetProject(context.Background(), "missing")
	assertKind(t, err, folio.KindNotFound)
	if !errors.Is(err, folio.ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false for %v", err)
	}
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	newProject(t, h, "Compiler")
	p := newProject(t, h, "Kernel")
	if err := h.Service.UpdateProject(ctx, p.ID, folio.ProjectDraft{Title: "Kernel", Published: true}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter folio.ProjectFilter
		want   int
	}{
		{"all", folio.ProjectFilter{}, 2},
		{"published only", folio.ProjectFilter{PublishedOnly: true}, 1},
		{"query", folio.ProjectFilter{Query: "  comp "}, 1},
		{"no match", folio.ProjectFilter{Query: "zzz"}, 0},
		{"oversized limit is clamped", folio.ProjectFilter{Limit: 10000}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Service.ListProjects(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListProjects() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListProjects() returned %d projects, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()

	t.Run("removes rows and blobs", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := newProject(t, h, "Engine")
		img := addImage(t, h, p.ID, "a.png")
		art, err := h.Service.AddArtifact(ctx, p.ID, folio.ArtifactDraft{Name: "report", Content: strings.NewReader("pdf"), Size: 3, Extension: ".PDF"})
		if err != nil {
			t.Fatalf("AddArtifact() error = %v", err)
		}

		if err := h.Service.DeleteProject(ctx, p.ID); err != nil {
			t.Fatalf("DeleteProject() error = %v", err)
		}
		if _, err := h.Service.GetProject(ctx, p.ID); folio.KindOf(err) != folio.KindNotFound {
			t.Errorf("GetProject() after delete error = %v, want not_found", err)
		}
		if h.Blobs.Has(folio.ImageBlobKey(img.ID)) || h.Blobs.Has(folio.ArtifactBlobKey(art.ID, art.Extension)) {
			t.Errorf("blobs left behind: %v", h.Blobs.Keys())
		}
	})

	t.Run("blob failure leaves no dangling rows", func(t *testing.T) {
		h := testutil.NewHarness(t)
		p := newProject(t, h, "Engine")
		first := addImage(t, h, p.ID, "a.png")
		second := addImage(t, h, p.ID, "b.png")

		h.Blobs.FailDeleteAfter(1)
		if err := h.Service.DeleteProject(ctx, p.ID); err != nil {
			t.Fatalf("DeleteProject() error = %v, want nil with orphaned blob", err)
		}
		if _, err := h.Service.GetProject(ctx, p.ID); folio.KindOf(err) != folio.KindNotFound {
			t.Errorf("GetProject() after delete error = %v, want not_found", err)
		}
		for _, img := range []*folio.Image{first, second} {
			err := h.Service.ImageContent(ctx, img.ID, io.Discard)
			assertKind(t, err, folio.KindNotFound)
		}
		if h.Blobs.Has(folio.ImageBlobKey(first.ID)) {
			t.Errorf("first blob should have been deleted")
		}
		if !h.Blobs.Has(folio.ImageBlobKey(second.ID)) {
			t.Errorf("second blob should be left as an orphan")
		}
	})

	t.Run("missing project", func(t *testing.T) {
		h := testutil.NewHarness(t)
		assertKind(t, h.Service.DeleteProject(ctx, "missing"), folio.KindNotFound)
	})
}

func TestAwards(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")

	if _, err := h.Service.CreateAward(ctx, folio.Award{Name: " "}); folio.KindOf(err) != folio.KindValidation {
		t.Errorf("CreateAward(blank) error = %v, want validation", err)
	}
	award, err := h.Service.CreateAward(ctx, folio.Award{Name: "Best in Show"})
	if err != nil {
		t.Fatalf("CreateAward() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := h.Service.GrantAward(ctx, p.ID, award.ID); err != nil {
			t.Fatalf("GrantAward() #%d error = %v", i+1, err)
		}
	}
	assertKind(t, h.Service.GrantAward(ctx, "missing", award.ID), folio.KindNotFound)

	got, err := h.Service.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Awards) != 1 || got.Awards[0].Name != "Best in Show" {
		t.Errorf("Awards = %+v, want one Best in Show", got.Awards)
	}
}

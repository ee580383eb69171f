package folio_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"folio/internal/folio"
	"folio/internal/testutil"
)

func TestAddArtifact_Validation(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")

	tests := []struct {
		name  string
		draft folio.ArtifactDraft
	}{
		{"name required", folio.ArtifactDraft{Link: "https://example.com"}},
		{"neither link nor file", folio.ArtifactDraft{Name: "x"}},
		{"both link and file", folio.ArtifactDraft{Name: "x", Link: "https://example.com", Content: strings.NewReader("a"), Size: 1}},
		{"relative link", folio.ArtifactDraft{Name: "x", Link: "/docs"}},
		{"non-http link", folio.ArtifactDraft{Name: "x", Link: "ftp://example.com/f"}},
		{"bad extension", folio.ArtifactDraft{Name: "x", Content: strings.NewReader("a"), Size: 1, Extension: "../sh"}},
		{"long extension", folio.ArtifactDraft{Name: "x", Content: strings.NewReader("a"), Size: 1, Extension: "abcdefghijk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Service.AddArtifact(ctx, p.ID, tt.draft)
			assertKind(t, err, folio.KindValidation)
		})
	}
	if keys := h.Blobs.Keys(); len(keys) != 0 {
		t.Errorf("rejected drafts left blobs: %v", keys)
	}
}

func TestArtifacts(t *testing.T) {
	ctx := context.Background()
	h := testutil.NewHarness(t)
	p := newProject(t, h, "Engine")

	link, err := h.Service.AddArtifact(ctx, p.ID, folio.ArtifactDraft{Name: "Repo", Link: "https://git.example/engine"})
	if err != nil {
		t.Fatalf("AddArtifact(link) error = %v", err)
	}
	if link.IsFile() || link.Extension != "" {
		t.Errorf("link artifact = %+v, want no file and no extension", link)
	}

	file, err := h.Service.AddArtifact(ctx, p.ID, folio.ArtifactDraft{Name: "Paper", Content: strings.NewReader("%PDF"), Size: 4, Extension: ".PDF"})
	if err != nil {
		t.Fatalf("AddArtifact(file) error = %v", err)
	}
	if !file.IsFile() || file.Extension != "pdf" || file.Encrypted {
		t.Errorf("file artifact = %+v, want plaintext pdf file", file)
	}

	got := content(t, func(w *bytes.Buffer) error { return h.Service.ArtifactContent(ctx, file.ID, w, nil) })
	if got != "%PDF" {
		t.Errorf("ArtifactContent() = %q, want %%PDF", got)
	}
	assertKind(t, h.Service.ArtifactContent(ctx, link.ID, &bytes.Buffer{}, nil), folio.KindValidation)

	proj, err := h.Service.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(proj.Artifacts) != 2 || proj.Artifacts[0].ID != link.ID || proj.Artifacts[1].ID != file.ID {
		t.Errorf("Artifacts = %+v, want link then file", proj.Artifacts)
	}

	h.Blobs.FailDelete(true)
	assertKind(t, h.Service.DeleteArtifact(ctx, file.ID), folio.KindBlob)
	if _, err := h.Service.GetArtifact(ctx, file.ID); err != nil {
		t.Errorf("GetArtifact() after failed delete error = %v", err)
	}

	// Link artifacts never touch the blob store.
	if err := h.Service.DeleteArtifact(ctx, link.ID); err != nil {
		t.Errorf("DeleteArtifact(link) with failing blobs error = %v", err)
	}

	h.Blobs.FailDelete(false)
	if err := h.Service.DeleteArtifact(ctx, file.ID); err != nil {
		t.Fatalf("DeleteArtifact() error = %v", err)
	}
	if h.Blobs.Has(folio.ArtifactBlobKey(file.ID, "pdf")) {
		t.Error("artifact blob still present")
	}
	assertKind(t, h.Service.DeleteArtifact(ctx, file.ID), folio.KindNotFound)
}

func TestArtifacts_Encrypted(t *testing.T) {
	ctx := context.Background()
	enc := testutil.NewTestEncryptor()
	h := testutil.NewHarness(t, folio.WithEncryptor(enc))
	p := newProject(t, h, "Engine")

	plain := "confidential results"
	a, err := h.Service.AddArtifact(ctx, p.ID, folio.ArtifactDraft{Name: "Data", Content: strings.NewReader(plain), Size: int64(len(plain)), Extension: "csv"})
	if err != nil {
		t.Fatalf("AddArtifact() error = %v", err)
	}
	if !a.Encrypted {
		t.Fatal("artifact not marked encrypted")
	}

	var stored bytes.Buffer
	if err := h.Blobs.Get(ctx, folio.ArtifactBlobKey(a.ID, "csv"), &stored); err != nil {
		t.Fatalf("blob Get() error = %v", err)
	}
	if strings.Contains(stored.String(), plain) {
		t.Error("blob holds plaintext")
	}

	assertKind(t, h.Service.ArtifactContent(ctx, a.ID, &bytes.Buffer{}, nil), folio.KindValidation)

	dec, err := enc.Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	got := content(t, func(w *bytes.Buffer) error { return h.Service.ArtifactContent(ctx, a.ID, w, dec) })
	if got != plain {
		t.Errorf("ArtifactContent() = %q, want %q", got, plain)
	}

	reloaded, err := h.Service.GetArtifact(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Encrypted {
		t.Error("Encrypted flag not persisted")
	}
}

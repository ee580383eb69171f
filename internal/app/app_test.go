package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/config"
	"folio/internal/folio"
)

// memoryConfig returns a config whose store, blobs and mail all live in memory.
func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Blobs = config.BlobConfig{Type: "memory"}
	cfg.Mail = config.MailConfig{Type: "memory", From: "folio@example.com", InviteBaseURL: "https://folio.test"}
	cfg.Encryption.Type = "test"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *FolioApp {
	t.Helper()
	a, err := newFolioApp(context.Background(), cfg, "Test", nil)
	if err != nil {
		t.Fatalf("newFolioApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

func TestFolioApp_ImagesAndArtifacts(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, memoryConfig(t))
	owner := folio.Actor{UserID: "owner"}

	project, err := a.Service().CreateProject(ctx, owner, folio.ProjectDraft{Title: "Solar Kiln"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	img, err := a.AddImageFile(ctx, owner, project.ID, writeTempFile(t, "front.png", "png-bytes"))
	if err != nil {
		t.Fatalf("AddImageFile() error = %v", err)
	}
	if img.FileName != "front.png" || img.Order != 1 {
		t.Errorf("image = %+v, want front.png at order 1", img)
	}

	artifact, err := a.AddArtifactFile(ctx, owner, project.ID, "", "build notes", writeTempFile(t, "notes.pdf", "pdf-bytes"), true)
	if err != nil {
		t.Fatalf("AddArtifactFile() error = %v", err)
	}
	if artifact.Name != "notes" {
		t.Errorf("artifact name = %q, want %q", artifact.Name, "notes")
	}
	if !artifact.Encrypted {
		t.Error("artifact should be stored encrypted")
	}

	var out bytes.Buffer
	asked := false
	err = a.WriteArtifactContent(ctx, artifact.ID, &out, func() (string, error) {
		asked = true
		return "anything", nil
	})
	if err != nil {
		t.Fatalf("WriteArtifactContent() error = %v", err)
	}
	if !asked {
		t.Error("passphrase should be requested for an encrypted artifact")
	}
	if out.String() != "pdf-bytes" {
		t.Errorf("content = %q, want %q", out.String(), "pdf-bytes")
	}
}

func TestFolioApp_AddImageFile_Stranger(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, memoryConfig(t))

	project, err := a.Service().CreateProject(ctx, folio.Actor{UserID: "owner"}, folio.ProjectDraft{Title: "Kiln"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	_, err = a.AddImageFile(ctx, folio.Actor{UserID: "stranger"}, project.ID, writeTempFile(t, "x.png", "x"))
	if folio.KindOf(err) != folio.KindForbidden {
		t.Errorf("AddImageFile() kind = %v, want %v (err %v)", folio.KindOf(err), folio.KindForbidden, err)
	}
}

func TestFolioApp_AddImageFile_NotRegular(t *testing.T) {
	a := newTestApp(t, memoryConfig(t))

	_, err := a.AddImageFile(context.Background(), folio.Actor{UserID: "owner"}, "p-1", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "not a regular file") {
		t.Errorf("AddImageFile(dir) error = %v, want not a regular file", err)
	}
}

func TestFolioApp_WriteArtifactContent_PassphraseError(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, memoryConfig(t))
	owner := folio.Actor{UserID: "owner"}

	project, err := a.Service().CreateProject(ctx, owner, folio.ProjectDraft{Title: "Kiln"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	artifact, err := a.AddArtifactFile(ctx, owner, project.ID, "plans", "", writeTempFile(t, "plans.txt", "secret"), false)
	if err != nil {
		t.Fatalf("AddArtifactFile() error = %v", err)
	}

	errNoTTY := errors.New("no terminal")
	err = a.WriteArtifactContent(ctx, artifact.ID, &bytes.Buffer{}, func() (string, error) { return "", errNoTTY })
	if !errors.Is(err, errNoTTY) {
		t.Errorf("WriteArtifactContent() error = %v, want %v", err, errNoTTY)
	}
}

func TestNewFolioApp_PendingMigrations(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Database = config.DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "db")}

	if _, err := newFolioApp(context.Background(), cfg, "Test", nil); err == nil || !strings.Contains(err.Error(), "folio migrate") {
		t.Fatalf("newFolioApp() error = %v, want pending migration error", err)
	}

	if err := Migrate(cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	newTestApp(t, cfg)
}

func TestNewFolioApp_MissingKeys(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Encryption.Type = "age"

	if _, err := newFolioApp(context.Background(), cfg, "Test", nil); err == nil || !strings.Contains(err.Error(), "keys init") {
		t.Fatalf("newFolioApp() error = %v, want missing keys error", err)
	}

	if err := InitKeys(cfg, "correct horse"); err != nil {
		t.Fatalf("InitKeys() error = %v", err)
	}
	a := newTestApp(t, cfg)
	if !a.EncryptionEnabled() {
		t.Error("EncryptionEnabled() = false after key setup")
	}
}

func TestNewFolioApp_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"unknown database", func(c *config.Config) { c.Database.Type = "oracle" }},
		{"unknown blob store", func(c *config.Config) { c.Blobs.Type = "tape" }},
		{"unknown encryption", func(c *config.Config) { c.Encryption.Type = "rot13" }},
		{"unknown mailer", func(c *config.Config) { c.Mail.Type = "pigeon" }},
		{"invalid log level", func(c *config.Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig(t)
			tt.modify(cfg)
			if a, err := newFolioApp(context.Background(), cfg, "Test", nil); err == nil {
				a.Close()
				t.Error("newFolioApp() expected error, got nil")
			}
		})
	}
}

func TestInitKeys_RequiresAge(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Encryption.Type = "none"
	if err := InitKeys(cfg, "pass"); err == nil {
		t.Error("InitKeys() expected error when encryption type is none")
	}
}

func TestSchema(t *testing.T) {
	schema, err := Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if !strings.Contains(schema, "CREATE TABLE project_image (") {
		t.Errorf("Schema() missing project_image table:\n%s", schema)
	}
}
